package boards_test

import (
	"context"
	"testing"

	"github.com/matt-steen/takma/pkg/boards"
	"github.com/matt-steen/takma/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boardWithLabelA(t *testing.T, repo *boards.Repository) string {
	t.Helper()

	boardID, err := repo.CreateBoard(context.Background(), boards.BoardParams{
		Title:  "target",
		Labels: []db.Label{{ID: "a", Title: "X", Color: "red", TitleColor: "black"}},
	})
	require.NoError(t, err)

	return boardID
}

func TestCreateMissingLabelsInBoard(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		incoming db.Label
		// check gets the mapping and the labels of the board afterwards
		check func(assert *assert.Assertions, mapping map[string]string, labels []db.Label)
	}{
		"id match content differs": {
			incoming: db.Label{ID: "a", Title: "Y", Color: "blue", TitleColor: "white"},
			check: func(assert *assert.Assertions, mapping map[string]string, labels []db.Label) {
				assert.Len(labels, 2)
				assert.Len(mapping, 1)

				fresh := mapping["a"]
				assert.NotEqual("", fresh)
				assert.NotEqual("a", fresh)
				assert.Equal(db.Label{ID: fresh, Title: "Y", Color: "blue", TitleColor: "white"}, labels[1])
			},
		},
		"content match different id": {
			incoming: db.Label{ID: "b", Title: "X", Color: "red", TitleColor: "black"},
			check: func(assert *assert.Assertions, mapping map[string]string, labels []db.Label) {
				assert.Len(labels, 1)
				assert.Equal(map[string]string{"b": "a"}, mapping)
			},
		},
		"no match": {
			incoming: db.Label{ID: "c", Title: "Z", Color: "green", TitleColor: "white"},
			check: func(assert *assert.Assertions, mapping map[string]string, labels []db.Label) {
				assert.Len(labels, 2)
				assert.Equal("c", labels[1].ID)
				assert.Empty(mapping)
			},
		},
		"id and content match": {
			incoming: db.Label{ID: "a", Title: "X", Color: "red", TitleColor: "black"},
			check: func(assert *assert.Assertions, mapping map[string]string, labels []db.Label) {
				assert.Len(labels, 1)
				assert.Empty(mapping)
			},
		},
	}

	for name, tc := range tests {
		tc := tc

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert := assert.New(t)
			repo := getRepository(t)
			boardID := boardWithLabelA(t, repo)

			mapping, err := repo.CreateMissingLabelsInBoard(context.Background(), boardID, []db.Label{tc.incoming})
			assert.Nil(err)

			board, err := repo.GetBoard(boardID)
			assert.Nil(err)

			tc.check(assert, mapping, board.Labels)
		})
	}
}

func TestLabelLifecycle(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	repo := getRepository(t)
	boardID, listID, cardID := boardWithCard(t, repo)

	otherID, err := repo.CreateCard(ctx, boardID, listID, "other")
	require.NoError(err)

	labelID, err := repo.AddLabelToBoard(ctx, boardID, "#ffff00", "later")
	require.NoError(err)

	assert.ErrorIs(repo.AddLabelToCard(ctx, boardID, cardID, "nope"), boards.ErrNotFound)

	require.NoError(repo.AddLabelToCard(ctx, boardID, cardID, labelID))
	require.NoError(repo.AddLabelToCard(ctx, boardID, cardID, labelID))
	require.NoError(repo.AddLabelToCard(ctx, boardID, otherID, labelID))

	card, err := repo.GetCard(boardID, cardID)
	require.NoError(err)
	assert.Equal([]string{labelID}, card.LabelIDs)

	require.NoError(repo.EditLabelTitle(ctx, boardID, labelID, "soon"))
	require.NoError(repo.EditLabelColor(ctx, boardID, labelID, "#000080"))

	board, err := repo.GetBoard(boardID)
	require.NoError(err)
	assert.Equal("soon", board.Labels[0].Title)
	assert.Equal("#000080", board.Labels[0].Color)
	assert.Equal(db.TitleColorLight, board.Labels[0].TitleColor)

	require.NoError(repo.RemoveLabelFromCard(ctx, boardID, otherID, labelID))

	other, err := repo.GetCard(boardID, otherID)
	require.NoError(err)
	assert.Empty(other.LabelIDs)

	require.NoError(repo.RemoveLabel(ctx, boardID, labelID))

	card, err = repo.GetCard(boardID, cardID)
	require.NoError(err)
	assert.Empty(card.LabelIDs)

	board, err = repo.GetBoard(boardID)
	require.NoError(err)
	assert.Empty(board.Labels)

	assert.ErrorIs(repo.RemoveLabel(ctx, boardID, labelID), boards.ErrNotFound)
}
