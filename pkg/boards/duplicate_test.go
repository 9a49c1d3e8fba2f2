package boards_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/matt-steen/takma/pkg/boards"
	"github.com/matt-steen/takma/pkg/db"
	"github.com/matt-steen/takma/pkg/files"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownImages(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	desc := "![a](Files/b1/img1.png) ![b](https://example.com/x.png) ![a](Files/b1/img1.png)"
	assert.Equal([]string{"Files/b1/img1.png", "https://example.com/x.png"}, boards.MarkdownImages(desc))

	assert.Equal(
		[]string{"Files/b1/with space.png", "Files/b1/win.png"},
		boards.MarkdownImages(`![x](<Files/b1/with space.png> "title") ![y](Files\b1\win.png) [not](Files/b1/link.png)`),
	)
	assert.Empty(boards.MarkdownImages("no images here"))
}

func TestLocalMarkdownImages(t *testing.T) {
	t.Parallel()

	repo := getRepository(t)

	card := db.NewCard("c")
	card.Description = "![a](Files/b1/img1.png) ![b](https://example.com/x.png) ![a](Files/b1/img1.png)"

	assert.Equal(t, []string{"Files/b1/img1.png"}, repo.LocalMarkdownImages(card))
}

// cardWithFiles gives a card an attachment, a cover image and an inline image.
func cardWithFiles(t *testing.T, repo *boards.Repository, boardID, cardID string) db.Card {
	t.Helper()

	ctx := context.Background()

	_, err := repo.AddAttachment(ctx, boardID, cardID, writeSource(t, "plan.txt"))
	require.NoError(t, err)
	require.NoError(t, repo.SetCoverImage(ctx, boardID, cardID, writeSource(t, "cover.png")))

	image, err := repo.Files().SaveToBoardDirectory(writeSource(t, "inline.png"), boardID, "")
	require.NoError(t, err)
	require.NoError(t, repo.SetCardDescription(ctx, boardID, cardID, "see ![shot]("+image+") and ![web](https://example.com/x.png)"))

	checklistID, err := repo.AddChecklist(ctx, boardID, cardID, "steps")
	require.NoError(t, err)
	_, err = repo.AddTodoItem(ctx, boardID, cardID, checklistID, "draft")
	require.NoError(t, err)

	card, err := repo.GetCard(boardID, cardID)
	require.NoError(t, err)

	return card
}

func assertOwnFiles(t *testing.T, repo *boards.Repository, original, dup db.Card) {
	t.Helper()

	assert := assert.New(t)

	assert.NotEqual(original.ID, dup.ID)
	assert.NotEqual(original.Checklists[0].ID, dup.Checklists[0].ID)
	assert.NotEqual(original.Checklists[0].Todos[0].ID, dup.Checklists[0].Todos[0].ID)
	assert.Equal(original.Checklists[0].Todos[0].Content, dup.Checklists[0].Todos[0].Content)

	assert.Len(dup.Attachments, 1)
	assert.NotEqual(original.Attachments[0], dup.Attachments[0])
	assert.True(repo.Files().Exists(dup.Attachments[0]))
	assert.Equal("plan.txt", files.OriginalFilename(dup.Attachments[0]))

	assert.NotEqual(original.CoverImage, dup.CoverImage)
	assert.True(repo.Files().Exists(dup.CoverImage))

	images := repo.LocalMarkdownImages(dup)
	assert.Len(images, 1)
	assert.NotEqual(repo.LocalMarkdownImages(original), images)
	assert.True(repo.Files().Exists(images[0]))
	assert.Contains(dup.Description, "![web](https://example.com/x.png)")
}

func TestDuplicateCardIsolation(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	repo := getRepository(t)
	boardID, listID, cardID := boardWithCard(t, repo)

	lastID, err := repo.CreateCard(ctx, boardID, listID, "last")
	require.NoError(err)

	original := cardWithFiles(t, repo, boardID, cardID)

	dupID, err := repo.DuplicateCard(ctx, boardID, cardID)
	require.NoError(err)

	list, err := repo.GetList(boardID, listID)
	require.NoError(err)
	assert.Equal([]string{cardID, dupID, lastID}, cardIDs(list))

	dup, err := repo.GetCard(boardID, dupID)
	require.NoError(err)
	assertOwnFiles(t, repo, original, dup)

	require.NoError(repo.DeleteCard(ctx, boardID, cardID))

	assert.True(repo.Files().Exists(dup.Attachments[0]))
	assert.True(repo.Files().Exists(dup.CoverImage))
	assert.True(repo.Files().Exists(repo.LocalMarkdownImages(dup)[0]))
}

func TestDuplicateCardSkipsMissingFiles(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	repo := getRepository(t)
	boardID, _, cardID := boardWithCard(t, repo)

	attachment, err := repo.AddAttachment(ctx, boardID, cardID, writeSource(t, "gone.txt"))
	require.NoError(err)
	require.NoError(os.Remove(repo.Files().Resolve(attachment)))

	dupID, err := repo.DuplicateCard(ctx, boardID, cardID)
	require.NoError(err)

	dup, err := repo.GetCard(boardID, dupID)
	require.NoError(err)
	assert.Empty(dup.Attachments)
}

func TestDuplicateList(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	repo := getRepository(t)
	boardID, listID, cardID := boardWithCard(t, repo)

	otherListID, err := repo.CreateList(ctx, boardID, "Done")
	require.NoError(err)

	original := cardWithFiles(t, repo, boardID, cardID)

	dupID, err := repo.DuplicateList(ctx, boardID, listID)
	require.NoError(err)

	board, err := repo.GetBoard(boardID)
	require.NoError(err)
	assert.Equal(listID, board.Lists[0].ID)
	assert.Equal(dupID, board.Lists[1].ID)
	assert.Equal(otherListID, board.Lists[2].ID)
	assert.Equal("Doing", board.Lists[1].Title)

	assertOwnFiles(t, repo, original, board.Lists[1].Cards[0])
}

func TestDuplicateBoard(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	repo := getRepository(t)
	boardID, _, cardID := boardWithCard(t, repo)

	laterID, err := repo.CreateBoard(ctx, boards.BoardParams{Title: "later"})
	require.NoError(err)

	require.NoError(repo.SetBackgroundImage(ctx, boardID, writeSource(t, "sky.png")))

	labelID, err := repo.AddLabelToBoard(ctx, boardID, "red", "urgent")
	require.NoError(err)
	require.NoError(repo.AddLabelToCard(ctx, boardID, cardID, labelID))

	original := cardWithFiles(t, repo, boardID, cardID)

	dupID, err := repo.DuplicateBoard(ctx, boardID)
	require.NoError(err)

	all := repo.Boards()
	assert.Equal([]string{boardID, dupID, laterID}, []string{all[0].ID, all[1].ID, all[2].ID})

	source, err := repo.GetBoard(boardID)
	require.NoError(err)
	dup, err := repo.GetBoard(dupID)
	require.NoError(err)

	assert.NotEqual(source.BackgroundImagePath, dup.BackgroundImagePath)
	assert.True(strings.HasPrefix(dup.BackgroundImagePath, files.BoardDirectory(dupID)+"/"))
	assert.Equal(source.Labels, dup.Labels)

	dupCard := dup.Lists[0].Cards[0]
	assert.Equal([]string{labelID}, dupCard.LabelIDs)
	assert.True(strings.HasPrefix(dupCard.Attachments[0], files.BoardDirectory(dupID)+"/"))
	assertOwnFiles(t, repo, original, dupCard)

	require.NoError(repo.DeleteBoard(ctx, boardID))
	assert.True(repo.Files().Exists(dup.BackgroundImagePath))
	assert.True(repo.Files().Exists(dupCard.Attachments[0]))
}

func TestCopyPasteCardAcrossBoards(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	repo := getRepository(t)
	sourceID, _, cardID := boardWithCard(t, repo)

	urgent, err := repo.AddLabelToBoard(ctx, sourceID, "red", "urgent")
	require.NoError(err)
	require.NoError(repo.AddLabelToCard(ctx, sourceID, cardID, urgent))

	original := cardWithFiles(t, repo, sourceID, cardID)

	copied, err := repo.CopyCard(sourceID, cardID)
	require.NoError(err)
	assert.Empty(copied.Card.Attachments)
	assert.Equal("", copied.Card.CoverImage)
	assert.Len(copied.Attachments, 1)
	assert.Equal("plan.txt", copied.Attachments[0].Filename)
	assert.NotNil(copied.CoverImage)
	assert.Len(copied.Labels, 1)

	// the snapshot outlives the card it was taken from
	require.NoError(repo.DeleteCard(ctx, sourceID, cardID))

	targetID, err := repo.CreateBoard(ctx, boards.BoardParams{Title: "target"})
	require.NoError(err)
	targetList, err := repo.CreateList(ctx, targetID, "Inbox")
	require.NoError(err)
	existing, err := repo.AddLabelToBoard(ctx, targetID, "red", "urgent")
	require.NoError(err)

	pastedID, err := repo.PasteCard(ctx, copied, targetID, targetList, nil)
	require.NoError(err)

	pasted, err := repo.GetCard(targetID, pastedID)
	require.NoError(err)
	assert.NotEqual(original.ID, pasted.ID)
	assert.Equal([]string{existing}, pasted.LabelIDs)
	assert.Len(pasted.Attachments, 1)
	assert.True(strings.HasPrefix(pasted.Attachments[0], files.BoardDirectory(targetID)+"/"))
	assert.True(repo.Files().Exists(pasted.Attachments[0]))
	assert.True(repo.Files().Exists(pasted.CoverImage))

	images := repo.LocalMarkdownImages(pasted)
	assert.Len(images, 1)
	assert.True(strings.HasPrefix(images[0], files.BoardDirectory(targetID)+"/"))

	target, err := repo.GetBoard(targetID)
	require.NoError(err)
	assert.Len(target.Labels, 1)

	// pasting twice gives two independent cards
	secondID, err := repo.PasteCard(ctx, copied, targetID, targetList, boards.Index(0))
	require.NoError(err)

	list, err := repo.GetList(targetID, targetList)
	require.NoError(err)
	assert.Equal([]string{secondID, pastedID}, cardIDs(list))
}

func TestCopyPasteList(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	repo := getRepository(t)
	sourceID, listID, cardID := boardWithCard(t, repo)

	labelID, err := repo.AddLabelToBoard(ctx, sourceID, "blue", "backend")
	require.NoError(err)
	require.NoError(repo.AddLabelToCard(ctx, sourceID, cardID, labelID))
	_, err = repo.AddLabelToBoard(ctx, sourceID, "green", "unused")
	require.NoError(err)

	copied, err := repo.CopyList(sourceID, listID)
	require.NoError(err)
	assert.Len(copied.Labels, 1)
	assert.Len(copied.Cards, 1)

	// the target already uses the label id for something else
	targetID, err := repo.CreateBoard(ctx, boards.BoardParams{
		Title:  "target",
		Labels: []db.Label{{ID: labelID, Title: "frontend", Color: "pink", TitleColor: "black"}},
	})
	require.NoError(err)

	pastedID, err := repo.PasteList(ctx, copied, targetID, nil)
	require.NoError(err)

	target, err := repo.GetBoard(targetID)
	require.NoError(err)
	assert.Len(target.Labels, 2)
	assert.Equal(pastedID, target.Lists[0].ID)
	assert.NotEqual(listID, pastedID)

	pasted := target.Lists[0].Cards[0]
	assert.Len(pasted.LabelIDs, 1)
	assert.NotEqual(labelID, pasted.LabelIDs[0])
	assert.Equal(target.Labels[1].ID, pasted.LabelIDs[0])
	assert.Equal("backend", target.Labels[1].Title)

	// a second paste lands at the requested position
	secondID, err := repo.PasteList(ctx, copied, targetID, boards.Index(0))
	require.NoError(err)

	target, err = repo.GetBoard(targetID)
	require.NoError(err)
	assert.Equal([]string{secondID, pastedID}, []string{target.Lists[0].ID, target.Lists[1].ID})
	assert.Len(target.Labels, 2)
}

func TestCopyPasteBoard(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	repo := getRepository(t)
	sourceID, _, cardID := boardWithCard(t, repo)

	require.NoError(repo.SetBackgroundImage(ctx, sourceID, writeSource(t, "sky.png")))
	labelID, err := repo.AddLabelToBoard(ctx, sourceID, "red", "urgent")
	require.NoError(err)
	require.NoError(repo.AddLabelToCard(ctx, sourceID, cardID, labelID))
	cardWithFiles(t, repo, sourceID, cardID)

	copied, err := repo.CopyBoard(sourceID)
	require.NoError(err)
	assert.NotNil(copied.BackgroundImage)
	assert.Equal("sky.png", copied.BackgroundImage.Filename)

	require.NoError(repo.DeleteBoard(ctx, sourceID))

	pastedID, err := repo.PasteBoard(ctx, copied, boards.Index(0))
	require.NoError(err)
	assert.NotEqual(sourceID, pastedID)

	pasted, err := repo.GetBoard(pastedID)
	require.NoError(err)
	assert.Equal("Release", pasted.Title)
	assert.True(repo.Files().Exists(pasted.BackgroundImagePath))
	assert.True(strings.HasPrefix(pasted.BackgroundImagePath, files.BoardDirectory(pastedID)+"/"))
	assert.Len(pasted.Labels, 1)

	card := pasted.Lists[0].Cards[0]
	assert.Equal([]string{pasted.Labels[0].ID}, card.LabelIDs)
	assert.True(repo.Files().Exists(card.Attachments[0]))
	assert.True(repo.Files().Exists(card.CoverImage))
}
