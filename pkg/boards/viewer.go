package boards

import (
	"github.com/matt-steen/takma/pkg/db"
)

// ViewerCaptions are display strings resolved by the caller in the user's language.
type ViewerCaptions struct {
	ReadOnly    string `json:"readOnly"`
	DueDate     string `json:"dueDate"`
	Completed   string `json:"completed"`
	Checklist   string `json:"checklist"`
	Attachments string `json:"attachments"`
}

// ViewerPayload is everything a read-only card window needs, without access to the document.
type ViewerPayload struct {
	Card     db.Card        `json:"card"`
	Labels   []db.Label     `json:"labels"`
	Theme    string         `json:"theme,omitempty"`
	Captions ViewerCaptions `json:"captions"`
}

// CardViewerPayload assembles the message sent to a read-only card window.
func (r *Repository) CardViewerPayload(boardID, cardID, theme string, captions ViewerCaptions) (ViewerPayload, error) {
	board, err := r.viewBoard(boardID)
	if err != nil {
		return ViewerPayload{}, err
	}

	card, err := findCard(&board, cardID)
	if err != nil {
		return ViewerPayload{}, err
	}

	return ViewerPayload{
		Card:     *card,
		Labels:   board.Labels,
		Theme:    theme,
		Captions: captions,
	}, nil
}
