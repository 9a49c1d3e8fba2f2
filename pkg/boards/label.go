package boards

import (
	"context"
	"fmt"

	"github.com/matt-steen/takma/pkg/db"
	"github.com/rs/zerolog/log"
)

func labelIndex(board *db.Board, labelID string) (int, error) {
	for i := range board.Labels {
		if board.Labels[i].ID == labelID {
			return i, nil
		}
	}

	return -1, fmt.Errorf("label %s: %w", labelID, ErrNotFound)
}

// AddLabelToBoard creates a label on a board and returns its id.
func (r *Repository) AddLabelToBoard(ctx context.Context, boardID, color, title string) (string, error) {
	label := db.NewLabel(color, title)

	err := r.updateBoard(ctx, boardID, func(board *db.Board) error {
		board.Labels = append(board.Labels, label)

		return nil
	})
	if err != nil {
		return "", err
	}

	return label.ID, nil
}

// EditLabelColor changes the color of a label and derives its title color again.
func (r *Repository) EditLabelColor(ctx context.Context, boardID, labelID, color string) error {
	return r.updateBoard(ctx, boardID, func(board *db.Board) error {
		i, err := labelIndex(board, labelID)
		if err != nil {
			return err
		}

		board.Labels[i].Color = color
		board.Labels[i].TitleColor = db.TitleColorFor(color)

		return nil
	})
}

// EditLabelTitle renames a label.
func (r *Repository) EditLabelTitle(ctx context.Context, boardID, labelID, title string) error {
	return r.updateBoard(ctx, boardID, func(board *db.Board) error {
		i, err := labelIndex(board, labelID)
		if err != nil {
			return err
		}

		board.Labels[i].Title = title

		return nil
	})
}

// RemoveLabel deletes a label from a board and from every card that referenced it.
func (r *Repository) RemoveLabel(ctx context.Context, boardID, labelID string) error {
	return r.updateBoard(ctx, boardID, func(board *db.Board) error {
		i, err := labelIndex(board, labelID)
		if err != nil {
			return err
		}

		board.Labels = removeAt(board.Labels, i)

		for l := range board.Lists {
			for c := range board.Lists[l].Cards {
				card := &board.Lists[l].Cards[c]
				card.LabelIDs = withoutID(card.LabelIDs, labelID)
			}
		}

		return nil
	})
}

// AddLabelToCard attaches a label of the board to one of its cards. Adding a label twice is a no-op.
func (r *Repository) AddLabelToCard(ctx context.Context, boardID, cardID, labelID string) error {
	return r.updateBoard(ctx, boardID, func(board *db.Board) error {
		if _, err := labelIndex(board, labelID); err != nil {
			return err
		}

		card, err := findCard(board, cardID)
		if err != nil {
			return err
		}

		if !containsID(card.LabelIDs, labelID) {
			card.LabelIDs = append(card.LabelIDs, labelID)
		}

		return nil
	})
}

// RemoveLabelFromCard detaches a label from a card.
func (r *Repository) RemoveLabelFromCard(ctx context.Context, boardID, cardID, labelID string) error {
	return r.updateCard(ctx, boardID, cardID, func(card *db.Card) error {
		card.LabelIDs = withoutID(card.LabelIDs, labelID)

		return nil
	})
}

// CreateMissingLabelsInBoard makes the labels of a pasted entity available
// on a board and returns how their ids map onto the board's labels. Ids
// that need no remapping are absent from the map.
func (r *Repository) CreateMissingLabelsInBoard(ctx context.Context, boardID string, incoming []db.Label) (map[string]string, error) {
	var mapping map[string]string

	err := r.updateBoard(ctx, boardID, func(board *db.Board) error {
		mapping = reconcileLabels(board, incoming)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapping, nil
}

// reconcileLabels adds the incoming labels the board does not have yet. For each label, in this order:
//
//   - same content under another id: the existing label is reused and the id remapped
//   - same id and same content: nothing to do
//   - same id but different content: the label is added under a new id and the id remapped
//   - no match at all: the label is added as is
func reconcileLabels(board *db.Board, incoming []db.Label) map[string]string {
	mapping := map[string]string{}

	for _, label := range incoming {
		contentMatch := -1

		for i := range board.Labels {
			if board.Labels[i].SameContent(label) {
				contentMatch = i

				break
			}
		}

		if contentMatch != -1 {
			if existing := board.Labels[contentMatch].ID; existing != label.ID {
				mapping[label.ID] = existing
			}

			continue
		}

		if _, err := labelIndex(board, label.ID); err == nil {
			conflict := label
			conflict.ID = db.NewID()
			board.Labels = append(board.Labels, conflict)
			mapping[label.ID] = conflict.ID

			log.Debug().Str("label_id", label.ID).Str("new_id", conflict.ID).Msg("label id conflict")

			continue
		}

		board.Labels = append(board.Labels, label)
	}

	return mapping
}

// remapLabelIDs rewrites ids through mapping and drops ids the board does not know.
func remapLabelIDs(board *db.Board, ids []string, mapping map[string]string) []string {
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if mapped, ok := mapping[id]; ok {
			id = mapped
		}

		if _, err := labelIndex(board, id); err != nil || containsID(out, id) {
			continue
		}

		out = append(out, id)
	}

	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}

	return false
}

func withoutID(ids []string, id string) []string {
	out := ids[:0]

	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}

	return out
}
