package boards

import (
	"context"

	"github.com/matt-steen/takma/pkg/db"
	"github.com/rs/zerolog/log"
)

// CreateList appends an empty list to a board and returns its id.
func (r *Repository) CreateList(ctx context.Context, boardID, title string) (string, error) {
	list := db.NewList(title)

	err := r.updateBoard(ctx, boardID, func(board *db.Board) error {
		board.Lists = append(board.Lists, list)

		return nil
	})
	if err != nil {
		return "", err
	}

	log.Debug().Str("board_id", boardID).Str("list_id", list.ID).Msg("created list")

	return list.ID, nil
}

// UpdateList replaces a list with list. A list whose id no longer matches
// listID, or empty ids, are ignored: they come from views of stale data.
func (r *Repository) UpdateList(ctx context.Context, list db.List, boardID, listID string) error {
	if boardID == "" || listID == "" || list.ID != listID {
		log.Debug().Str("board_id", boardID).Str("list_id", listID).Msg("ignoring stale list update")

		return nil
	}

	return r.updateBoard(ctx, boardID, func(board *db.Board) error {
		i, err := listIndex(board, listID)
		if err != nil {
			return err
		}

		board.Lists[i] = list.Clone()

		return nil
	})
}

// SetListTitle renames a list.
func (r *Repository) SetListTitle(ctx context.Context, boardID, listID, title string) error {
	return r.updateBoard(ctx, boardID, func(board *db.Board) error {
		i, err := listIndex(board, listID)
		if err != nil {
			return err
		}

		board.Lists[i].Title = title

		return nil
	})
}

// DeleteList removes a list and every file owned by its cards.
func (r *Repository) DeleteList(ctx context.Context, boardID, listID string) error {
	var removed db.List

	err := r.updateBoard(ctx, boardID, func(board *db.Board) error {
		i, err := listIndex(board, listID)
		if err != nil {
			return err
		}

		removed = board.Lists[i]
		board.Lists = removeAt(board.Lists, i)

		return nil
	})
	if err != nil {
		return err
	}

	var owned []string
	for _, card := range removed.Cards {
		owned = append(owned, r.ownedFiles(card)...)
	}

	log.Debug().Str("board_id", boardID).Str("list_id", listID).Int("files", len(owned)).Msg("deleted list")

	return r.removeFiles(owned)
}

// MoveList moves a list to position to within its board.
func (r *Repository) MoveList(ctx context.Context, boardID, listID string, to int) error {
	return r.updateBoard(ctx, boardID, func(board *db.Board) error {
		i, err := listIndex(board, listID)
		if err != nil {
			return err
		}

		board.Lists = move(board.Lists, i, to)

		return nil
	})
}
