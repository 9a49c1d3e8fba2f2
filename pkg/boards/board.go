package boards

import (
	"context"
	"fmt"

	"github.com/matt-steen/takma/pkg/db"
	"github.com/rs/zerolog/log"
)

// BoardParams describes a board to create. Only Title is required.
type BoardParams struct {
	Title string
	// BackgroundImage is the file to use as background, empty for none.
	BackgroundImage string
	// KeepImagePath stores BackgroundImage as is instead of copying it into
	// the board directory, for restores where the file is already in place.
	KeepImagePath bool
	// ID is generated when empty.
	ID     string
	Labels []db.Label
	Lists  []db.List
	// Favourite marks the board as favourite.
	Favourite bool
	// InsertAt is the position in the board sequence; nil appends.
	InsertAt *int
}

// CreateBoard adds a board and returns its id.
func (r *Repository) CreateBoard(ctx context.Context, params BoardParams) (string, error) {
	board := db.NewBoard(params.Title)
	if params.ID != "" {
		board.ID = params.ID
	}

	board.Favourite = params.Favourite

	if params.Labels != nil {
		board.Labels = append([]db.Label{}, params.Labels...)
	}

	if params.Lists != nil {
		board.Lists = append([]db.List{}, params.Lists...)
	}

	switch {
	case params.BackgroundImage == "":
	case params.KeepImagePath:
		board.BackgroundImagePath = params.BackgroundImage
	default:
		bg, err := r.files.SaveToBoardDirectory(params.BackgroundImage, board.ID, "")
		if err != nil {
			return "", fmt.Errorf("error adding board %s: %w", params.Title, err)
		}

		board.BackgroundImagePath = bg
	}

	err := r.store.Update(ctx, func(doc *db.Document) error {
		if _, err := boardIndex(doc, board.ID); err == nil {
			return fmt.Errorf("error adding board: id %s already exists", board.ID)
		}

		doc.Boards = insertAt(doc.Boards, board, params.InsertAt)

		return nil
	})
	if err != nil {
		if !params.KeepImagePath {
			return "", joinCleanup(err, r.files.Remove(board.BackgroundImagePath))
		}

		return "", err
	}

	log.Debug().Str("board_id", board.ID).Msg("created board")

	return board.ID, nil
}

// DeleteBoard removes a board and its whole file directory. Every file of
// the board lives in that directory, so its cards need not be walked.
func (r *Repository) DeleteBoard(ctx context.Context, boardID string) error {
	err := r.store.Update(ctx, func(doc *db.Document) error {
		i, err := boardIndex(doc, boardID)
		if err != nil {
			return err
		}

		doc.Boards = removeAt(doc.Boards, i)

		return nil
	})
	if err != nil {
		return err
	}

	log.Debug().Str("board_id", boardID).Msg("deleted board")

	return r.files.RemoveBoardDirectory(boardID)
}

// SetBoardTitle renames a board.
func (r *Repository) SetBoardTitle(ctx context.Context, boardID, title string) error {
	return r.updateBoard(ctx, boardID, func(board *db.Board) error {
		board.Title = title

		return nil
	})
}

// SetBoardFavourite marks or unmarks a board as favourite.
func (r *Repository) SetBoardFavourite(ctx context.Context, boardID string, favourite bool) error {
	return r.updateBoard(ctx, boardID, func(board *db.Board) error {
		board.Favourite = favourite

		return nil
	})
}

// SetBoardArchived archives or restores a board.
func (r *Repository) SetBoardArchived(ctx context.Context, boardID string, archived bool) error {
	return r.updateBoard(ctx, boardID, func(board *db.Board) error {
		board.Archived = archived

		return nil
	})
}

// OpenBoard records that the board was just opened.
func (r *Repository) OpenBoard(ctx context.Context, boardID string) error {
	return r.updateBoard(ctx, boardID, func(board *db.Board) error {
		board.LastOpened = db.Now()

		return nil
	})
}

// SetBackgroundImage copies src into the board directory and uses it as
// background, removing the previous background file. An empty src removes the background.
func (r *Repository) SetBackgroundImage(ctx context.Context, boardID, src string) error {
	var bg string

	if src != "" {
		saved, err := r.files.SaveToBoardDirectory(src, boardID, "")
		if err != nil {
			return err
		}

		bg = saved
	}

	var previous string

	err := r.updateBoard(ctx, boardID, func(board *db.Board) error {
		previous = board.BackgroundImagePath
		board.BackgroundImagePath = bg

		return nil
	})
	if err != nil {
		return joinCleanup(err, r.files.Remove(bg))
	}

	return r.files.Remove(previous)
}

// MoveBoard moves a board to position to in the board sequence.
func (r *Repository) MoveBoard(ctx context.Context, boardID string, to int) error {
	return r.store.Update(ctx, func(doc *db.Document) error {
		i, err := boardIndex(doc, boardID)
		if err != nil {
			return err
		}

		doc.Boards = move(doc.Boards, i, to)

		return nil
	})
}
