package db_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matt-steen/takma/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getStore(t *testing.T, dir string) *db.Store {
	t.Helper()

	backend, err := db.NewFileBackend(filepath.Join(dir, "Takma.json"))
	require.NoError(t, err)

	store := db.NewStore(backend)
	require.NoError(t, store.Load(context.Background()))

	return store
}

func sampleBoard() db.Board {
	board := db.NewBoard("Release")
	label := db.NewLabel("#ff0000", "urgent")
	board.Labels = append(board.Labels, label)

	list := db.NewList("Doing")
	card := db.NewCard("write notes")
	card.Description = "some *markdown*"
	card.LabelIDs = append(card.LabelIDs, label.ID)
	due := int64(1700000000000)
	card.DueDate = &due

	checklist := db.NewChecklist("steps")
	checklist.Todos = append(checklist.Todos, db.NewTodoItem("draft"), db.NewTodoItem("review"))
	card.Checklists = append(card.Checklists, checklist)

	list.Cards = append(list.Cards, card)
	board.Lists = append(board.Lists, list)

	return board
}

func TestLoadFirstRun(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	dir := t.TempDir()
	store := getStore(t, dir)

	assert.Equal(db.NewDocument(), store.Document())

	// load always saves, so the defaults are on disk now
	_, err := os.Stat(filepath.Join(dir, "Takma.json"))
	assert.Nil(err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	dir := t.TempDir()
	store := getStore(t, dir)

	board := sampleBoard()
	err := store.Update(context.Background(), func(doc *db.Document) error {
		doc.Boards = append(doc.Boards, board)
		doc.DarkTheme = true

		return nil
	})
	assert.Nil(err)

	reloaded := getStore(t, dir)
	assert.Equal(store.Document(), reloaded.Document())
	assert.Equal(board, reloaded.Document().Boards[0])
}

func TestLoadMergesOverDefaults(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	dir := t.TempDir()
	old := `{"schemaVersion":1,"darkTheme":true,"boards":[{"id":"b1","title":"old board","lists":[{"id":"l1","title":"todo","cards":[{"id":"c1","title":"card"}]}]}]}`
	err := os.WriteFile(filepath.Join(dir, "Takma.json"), []byte(old), 0o600)
	assert.Nil(err)

	doc := getStore(t, dir).Document()

	assert.True(doc.DarkTheme)
	assert.Equal("en", doc.Language)
	assert.Equal(db.SortManual, doc.BoardSortOrder)
	assert.True(doc.Confirmations["deleteBoard"])
	assert.Equal(1280, doc.Window.Width)
	assert.Equal("old board", doc.Boards[0].Title)
	assert.NotNil(doc.Boards[0].Labels)
	assert.Equal([]string{}, doc.Boards[0].Lists[0].Cards[0].Attachments)
	assert.Equal([]string{}, doc.Boards[0].Lists[0].Cards[0].LabelIDs)
}

func TestLoadCorruptedSaveFile(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	dir := t.TempDir()
	savePath := filepath.Join(dir, "Takma.json")
	corrupted := []byte(`{"boards": [`)
	assert.Nil(os.WriteFile(savePath, corrupted, 0o600))

	backend, err := db.NewFileBackend(savePath)
	assert.Nil(err)

	var notified string

	store := db.NewStore(backend)
	store.OnCorrupted(func(rescuePath string) { notified = rescuePath })

	err = store.Load(context.Background())
	assert.Nil(err)

	assert.Equal(savePath+db.CorruptedSuffix, notified)

	rescued, err := os.ReadFile(notified)
	assert.Nil(err)
	assert.Equal(corrupted, rescued)

	assert.Equal(db.NewDocument(), store.Document())

	// the replacement is a valid document again
	data, err := os.ReadFile(savePath)
	assert.Nil(err)

	result, err := db.Validate(data)
	assert.Nil(err)
	assert.True(result.Valid)
}

func TestWindowGeometryFlushedByNextSave(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	dir := t.TempDir()
	store := getStore(t, dir)

	geometry := db.WindowGeometry{X: 10, Y: 20, Width: 800, Height: 600}
	store.SetWindowGeometry(geometry)

	assert.Equal(1280, getStore(t, dir).Document().Window.Width)

	err := store.SetDarkTheme(context.Background(), true)
	assert.Nil(err)

	assert.Equal(geometry, getStore(t, dir).Document().Window)
}

func TestSettingsCommandsSave(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	ctx := context.Background()
	dir := t.TempDir()
	store := getStore(t, dir)

	assert.Nil(store.SetLanguage(ctx, "nl"))
	assert.Nil(store.SetBoardSortOrder(ctx, db.SortByTitle))
	assert.Nil(store.SetOnboardingCompleted(ctx, "board", true))
	assert.Nil(store.SetConfirmation(ctx, "deleteCard", false))
	assert.Nil(store.IncrementTimesOpened(ctx))
	assert.NotNil(store.SetBoardSortOrder(ctx, "random"))

	doc := getStore(t, dir).Document()
	assert.Equal("nl", doc.Language)
	assert.Equal(db.SortByTitle, doc.BoardSortOrder)
	assert.True(doc.Onboarding["board"])
	assert.False(doc.Confirmations["deleteCard"])
	assert.Equal(1, doc.TimesOpened)
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	ctx := context.Background()
	filename := filepath.Join(t.TempDir(), "Takma.sqlite")

	backend, err := db.NewSQLiteBackend(ctx, filename, "Takma.json")
	assert.Nil(err)

	store := db.NewStore(backend)
	assert.Nil(store.Load(ctx))

	board := sampleBoard()
	err = store.Update(ctx, func(doc *db.Document) error {
		doc.Boards = append(doc.Boards, board)

		return nil
	})
	assert.Nil(err)
	assert.Nil(store.Close())

	backend2, err := db.NewSQLiteBackend(ctx, filename, "Takma.json")
	assert.Nil(err)

	defer backend2.Close()

	store2 := db.NewStore(backend2)
	assert.Nil(store2.Load(ctx))
	assert.Equal(board, store2.Document().Boards[0])
}

func TestSQLiteBackendRescue(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	ctx := context.Background()
	filename := filepath.Join(t.TempDir(), "Takma.sqlite")

	backend, err := db.NewSQLiteBackend(ctx, filename, "Takma.json")
	assert.Nil(err)

	defer backend.Close()

	assert.Nil(backend.Write(ctx, []byte("not json")))

	var notified string

	store := db.NewStore(backend)
	store.OnCorrupted(func(rescuePath string) { notified = rescuePath })
	assert.Nil(store.Load(ctx))

	assert.Contains(notified, "Takma.json"+db.CorruptedSuffix)
	assert.Equal(db.NewDocument(), store.Document())
}

func TestNewSQLiteBackendBadFile(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	backend, err := db.NewSQLiteBackend(context.Background(), "/alwfkjasfd/asdflkjdsal.sqlite", "Takma.json")
	assert.Nil(backend)
	assert.NotNil(err)
	assert.Contains(err.Error(), "error running base sql")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	result, err := db.Validate([]byte(`{"schemaVersion":1,"boards":[{"title":"no id","lists":[],"labels":[]}]}`))
	assert.Nil(err)
	assert.False(result.Valid)
	assert.NotEmpty(result.Errors)

	result, err = db.Validate([]byte(`{"schemaVersion":1,"boards":[]}`))
	assert.Nil(err)
	assert.True(result.Valid)

	_, err = db.Validate([]byte(`{`))
	assert.NotNil(err)
}

func TestTitleColorFor(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	assert.Equal(db.TitleColorDark, db.TitleColorFor("#ffffff"))
	assert.Equal(db.TitleColorDark, db.TitleColorFor("yellow"))
	assert.Equal(db.TitleColorLight, db.TitleColorFor("#000000"))
	assert.Equal(db.TitleColorLight, db.TitleColorFor("rgb(20, 20, 80)"))
	assert.Equal(db.TitleColorDark, db.TitleColorFor("not a color"))
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	board := sampleBoard()
	clone := board.Clone()

	clone.Lists[0].Cards[0].Checklists[0].Todos[0].Content = "changed"
	clone.Labels[0].Title = "changed"
	*clone.Lists[0].Cards[0].DueDate = 1

	assert.Equal("draft", board.Lists[0].Cards[0].Checklists[0].Todos[0].Content)
	assert.Equal("urgent", board.Labels[0].Title)
	assert.Equal(int64(1700000000000), *board.Lists[0].Cards[0].DueDate)
}
