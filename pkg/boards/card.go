package boards

import (
	"context"
	"fmt"
	"time"

	"github.com/matt-steen/takma/pkg/db"
	"github.com/rs/zerolog/log"
)

// CreateCard appends a card with default fields to a list and returns its id.
func (r *Repository) CreateCard(ctx context.Context, boardID, listID, title string) (string, error) {
	card := db.NewCard(title)

	err := r.updateBoard(ctx, boardID, func(board *db.Board) error {
		i, err := listIndex(board, listID)
		if err != nil {
			return err
		}

		board.Lists[i].Cards = append(board.Lists[i].Cards, card)

		return nil
	})
	if err != nil {
		return "", err
	}

	log.Debug().Str("board_id", boardID).Str("card_id", card.ID).Msg("created card")

	return card.ID, nil
}

// UpdateCard replaces a card with card. A card whose id no longer matches
// cardID, or empty ids, are ignored: they come from windows showing stale data.
func (r *Repository) UpdateCard(ctx context.Context, card db.Card, boardID, cardID string) error {
	if boardID == "" || cardID == "" || card.ID != cardID {
		log.Debug().Str("board_id", boardID).Str("card_id", cardID).Msg("ignoring stale card update")

		return nil
	}

	return r.updateCard(ctx, boardID, cardID, func(existing *db.Card) error {
		*existing = card.Clone()

		return nil
	})
}

// DeleteCard removes a card and every file it owns.
func (r *Repository) DeleteCard(ctx context.Context, boardID, cardID string) error {
	var removed db.Card

	err := r.updateBoard(ctx, boardID, func(board *db.Board) error {
		i, j, err := cardIndex(board, cardID)
		if err != nil {
			return err
		}

		removed = board.Lists[i].Cards[j]
		board.Lists[i].Cards = removeAt(board.Lists[i].Cards, j)

		return nil
	})
	if err != nil {
		return err
	}

	owned := r.ownedFiles(removed)

	log.Debug().Str("board_id", boardID).Str("card_id", cardID).Int("files", len(owned)).Msg("deleted card")

	return r.removeFiles(owned)
}

// MoveCard moves a card to position to of the list toListID, which may be its current list.
func (r *Repository) MoveCard(ctx context.Context, boardID, cardID, toListID string, to int) error {
	return r.updateBoard(ctx, boardID, func(board *db.Board) error {
		target, err := listIndex(board, toListID)
		if err != nil {
			return err
		}

		i, j, err := cardIndex(board, cardID)
		if err != nil {
			return err
		}

		if i == target {
			board.Lists[i].Cards = move(board.Lists[i].Cards, j, to)

			return nil
		}

		card := board.Lists[i].Cards[j]
		board.Lists[i].Cards = removeAt(board.Lists[i].Cards, j)

		if to < 0 {
			to = 0
		}

		board.Lists[target].Cards = insertAt(board.Lists[target].Cards, card, &to)

		return nil
	})
}

// SetCardTitle renames a card.
func (r *Repository) SetCardTitle(ctx context.Context, boardID, cardID, title string) error {
	return r.updateCard(ctx, boardID, cardID, func(card *db.Card) error {
		card.Title = title

		return nil
	})
}

// SetCardDescription replaces the markdown description of a card.
func (r *Repository) SetCardDescription(ctx context.Context, boardID, cardID, description string) error {
	return r.updateCard(ctx, boardID, cardID, func(card *db.Card) error {
		card.Description = description

		return nil
	})
}

// SetCardDueDate sets the due date of a card; nil clears it.
func (r *Repository) SetCardDueDate(ctx context.Context, boardID, cardID string, due *time.Time) error {
	return r.updateCard(ctx, boardID, cardID, func(card *db.Card) error {
		if due == nil {
			card.DueDate = nil

			return nil
		}

		ms := due.UnixMilli()
		card.DueDate = &ms

		return nil
	})
}

// SetCardComplete marks a card as complete or not.
func (r *Repository) SetCardComplete(ctx context.Context, boardID, cardID string, complete bool) error {
	return r.updateCard(ctx, boardID, cardID, func(card *db.Card) error {
		card.Complete = complete

		return nil
	})
}

// AddAttachment copies src into the board directory and attaches it to a card.
// It returns the stored path.
func (r *Repository) AddAttachment(ctx context.Context, boardID, cardID, src string) (string, error) {
	saved, err := r.files.SaveToBoardDirectory(src, boardID, "")
	if err != nil {
		return "", err
	}

	err = r.updateCard(ctx, boardID, cardID, func(card *db.Card) error {
		card.Attachments = append(card.Attachments, saved)

		return nil
	})
	if err != nil {
		return "", joinCleanup(err, r.files.Remove(saved))
	}

	return saved, nil
}

// RemoveAttachment detaches a file from a card and deletes it.
func (r *Repository) RemoveAttachment(ctx context.Context, boardID, cardID, attachment string) error {
	err := r.updateCard(ctx, boardID, cardID, func(card *db.Card) error {
		for i, a := range card.Attachments {
			if a == attachment {
				card.Attachments = removeAt(card.Attachments, i)

				return nil
			}
		}

		return fmt.Errorf("attachment %s: %w", attachment, ErrNotFound)
	})
	if err != nil {
		return err
	}

	return r.files.Remove(attachment)
}

// SetCoverImage copies src into the board directory and uses it as the cover
// of a card, deleting the previous cover.
func (r *Repository) SetCoverImage(ctx context.Context, boardID, cardID, src string) error {
	saved, err := r.files.SaveToBoardDirectory(src, boardID, "")
	if err != nil {
		return err
	}

	previous, err := r.swapCoverImage(ctx, boardID, cardID, saved)
	if err != nil {
		return joinCleanup(err, r.files.Remove(saved))
	}

	return r.files.Remove(previous)
}

// RemoveCoverImage removes and deletes the cover of a card.
func (r *Repository) RemoveCoverImage(ctx context.Context, boardID, cardID string) error {
	previous, err := r.swapCoverImage(ctx, boardID, cardID, "")
	if err != nil {
		return err
	}

	return r.files.Remove(previous)
}

func (r *Repository) swapCoverImage(ctx context.Context, boardID, cardID, cover string) (string, error) {
	var previous string

	err := r.updateCard(ctx, boardID, cardID, func(card *db.Card) error {
		previous = card.CoverImage
		card.CoverImage = cover

		return nil
	})

	return previous, err
}

// AddChecklist appends an empty checklist to a card and returns its id.
func (r *Repository) AddChecklist(ctx context.Context, boardID, cardID, title string) (string, error) {
	checklist := db.NewChecklist(title)

	err := r.updateCard(ctx, boardID, cardID, func(card *db.Card) error {
		card.Checklists = append(card.Checklists, checklist)

		return nil
	})
	if err != nil {
		return "", err
	}

	return checklist.ID, nil
}

// DeleteChecklist removes a checklist from a card.
func (r *Repository) DeleteChecklist(ctx context.Context, boardID, cardID, checklistID string) error {
	return r.updateCard(ctx, boardID, cardID, func(card *db.Card) error {
		i, err := checklistIndex(card, checklistID)
		if err != nil {
			return err
		}

		card.Checklists = removeAt(card.Checklists, i)

		return nil
	})
}

// AddTodoItem appends an item to a checklist and returns its id.
func (r *Repository) AddTodoItem(ctx context.Context, boardID, cardID, checklistID, content string) (string, error) {
	item := db.NewTodoItem(content)

	err := r.updateCard(ctx, boardID, cardID, func(card *db.Card) error {
		i, err := checklistIndex(card, checklistID)
		if err != nil {
			return err
		}

		card.Checklists[i].Todos = append(card.Checklists[i].Todos, item)

		return nil
	})
	if err != nil {
		return "", err
	}

	return item.ID, nil
}

// SetTodoItemComplete checks or unchecks a checklist item.
func (r *Repository) SetTodoItemComplete(ctx context.Context, boardID, cardID, checklistID, todoID string, complete bool) error {
	return r.updateCard(ctx, boardID, cardID, func(card *db.Card) error {
		i, err := checklistIndex(card, checklistID)
		if err != nil {
			return err
		}

		for j := range card.Checklists[i].Todos {
			if card.Checklists[i].Todos[j].ID == todoID {
				card.Checklists[i].Todos[j].Complete = complete

				return nil
			}
		}

		return fmt.Errorf("todo item %s: %w", todoID, ErrNotFound)
	})
}

func checklistIndex(card *db.Card, checklistID string) (int, error) {
	for i := range card.Checklists {
		if card.Checklists[i].ID == checklistID {
			return i, nil
		}
	}

	return -1, fmt.Errorf("checklist %s: %w", checklistID, ErrNotFound)
}
