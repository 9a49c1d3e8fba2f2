package boards

import (
	"strings"

	"github.com/matt-steen/takma/pkg/db"
	"github.com/matt-steen/takma/pkg/search"
)

// CardContainsString reports whether query matches the title, description,
// checklist titles or todo items of card.
func CardContainsString(card db.Card, query string, maxFuzzyDistance int) bool {
	var b strings.Builder

	b.WriteString(card.Title)
	b.WriteString(" ")
	b.WriteString(card.Description)

	for _, checklist := range card.Checklists {
		b.WriteString(" ")
		b.WriteString(checklist.Title)

		for _, todo := range checklist.Todos {
			b.WriteString(" ")
			b.WriteString(todo.Content)
		}
	}

	return search.PerformSearchInText(query, strings.ToLower(b.String()), maxFuzzyDistance)
}

// SearchCards returns the cards of a board matching query, in board order.
func (r *Repository) SearchCards(boardID, query string) ([]db.Card, error) {
	board, err := r.viewBoard(boardID)
	if err != nil {
		return nil, err
	}

	matches := []db.Card{}

	for _, list := range board.Lists {
		for _, card := range list.Cards {
			if CardContainsString(card, query, r.fuzzyDistance) {
				matches = append(matches, card)
			}
		}
	}

	return matches, nil
}
