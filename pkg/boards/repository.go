// Package boards is the only mutator of the board tree: boards hold lists,
// lists hold cards, cards hold checklists, and every board owns the labels its
// cards reference.
//
// Every mutating call changes the document through db.Store.Update, which
// saves before it returns. Files owned by a deleted entity are removed after
// that save, before the call returns, so callers that need the disk to be
// clean can rely on it and callers that don't can run the call in a goroutine.
//
// Lookups are linear scans. Boards hold tens to a few hundred cards, and
// keeping no index means there is nothing to keep in sync.
package boards

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/matt-steen/takma/pkg/db"
	"github.com/matt-steen/takma/pkg/files"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when a board, list, card, checklist or label does not exist (anymore).
var ErrNotFound = errors.New("not found")

// Repository exposes the operations on the board tree held by a db.Store.
type Repository struct {
	store         *db.Store
	files         *files.Manager
	fuzzyDistance int
}

// NewRepository creates a repository over the document of store, keeping
// board files with manager. fuzzyDistance is used by SearchCards.
func NewRepository(store *db.Store, manager *files.Manager, fuzzyDistance int) *Repository {
	return &Repository{
		store:         store,
		files:         manager,
		fuzzyDistance: fuzzyDistance,
	}
}

// Files returns the file manager used for board files.
func (r *Repository) Files() *files.Manager {
	return r.files
}

// Index returns a pointer to i, for the optional insert positions of create and paste calls.
func Index(i int) *int {
	return &i
}

func boardIndex(doc *db.Document, boardID string) (int, error) {
	for i := range doc.Boards {
		if doc.Boards[i].ID == boardID {
			return i, nil
		}
	}

	return -1, fmt.Errorf("board %s: %w", boardID, ErrNotFound)
}

func findBoard(doc *db.Document, boardID string) (*db.Board, error) {
	i, err := boardIndex(doc, boardID)
	if err != nil {
		return nil, err
	}

	return &doc.Boards[i], nil
}

func listIndex(board *db.Board, listID string) (int, error) {
	for i := range board.Lists {
		if board.Lists[i].ID == listID {
			return i, nil
		}
	}

	return -1, fmt.Errorf("list %s: %w", listID, ErrNotFound)
}

// cardIndex finds a card in any list of the board; card ids are unique
// within a board so the first match is the card.
func cardIndex(board *db.Board, cardID string) (int, int, error) {
	for i := range board.Lists {
		for j := range board.Lists[i].Cards {
			if board.Lists[i].Cards[j].ID == cardID {
				return i, j, nil
			}
		}
	}

	return -1, -1, fmt.Errorf("card %s: %w", cardID, ErrNotFound)
}

func findCard(board *db.Board, cardID string) (*db.Card, error) {
	i, j, err := cardIndex(board, cardID)
	if err != nil {
		return nil, err
	}

	return &board.Lists[i].Cards[j], nil
}

// insertAt inserts v at position at, or appends it when at is nil or out of range.
func insertAt[T any](s []T, v T, at *int) []T {
	if at == nil || *at < 0 || *at >= len(s) {
		return append(s, v)
	}

	s = append(s, v)
	copy(s[*at+1:], s[*at:])
	s[*at] = v

	return s
}

func removeAt[T any](s []T, i int) []T {
	return append(s[:i], s[i+1:]...)
}

// move moves the element at from to position to, clamping to to the slice bounds.
func move[T any](s []T, from, to int) []T {
	if to < 0 {
		to = 0
	}

	if to >= len(s) {
		to = len(s) - 1
	}

	v := s[from]
	s = removeAt(s, from)

	return insertAt(s, v, &to)
}

func (r *Repository) updateBoard(ctx context.Context, boardID string, fn func(board *db.Board) error) error {
	return r.store.Update(ctx, func(doc *db.Document) error {
		board, err := findBoard(doc, boardID)
		if err != nil {
			return err
		}

		return fn(board)
	})
}

func (r *Repository) updateCard(ctx context.Context, boardID, cardID string, fn func(card *db.Card) error) error {
	return r.updateBoard(ctx, boardID, func(board *db.Board) error {
		card, err := findCard(board, cardID)
		if err != nil {
			return err
		}

		return fn(card)
	})
}

func (r *Repository) viewBoard(boardID string) (db.Board, error) {
	var (
		board db.Board
		err   error
	)

	r.store.View(func(doc *db.Document) {
		var b *db.Board

		b, err = findBoard(doc, boardID)
		if err == nil {
			board = b.Clone()
		}
	})

	return board, err
}

// removeFiles deletes every path, continuing past failures.
func (r *Repository) removeFiles(paths []string) error {
	var errs []error

	for _, p := range paths {
		if err := r.files.Remove(p); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		log.Warn().Int("failed", len(errs)).Msg("error removing files")
	}

	return errors.Join(errs...)
}

// joinCleanup adds the error of undoing a failed operation to its cause.
func joinCleanup(err, cleanupErr error) error {
	if cleanupErr == nil {
		return err
	}

	return errors.Join(err, cleanupErr)
}

// ownedFiles lists every file that belongs to the card alone.
func (r *Repository) ownedFiles(card db.Card) []string {
	var owned []string

	for _, p := range append(append([]string{}, card.Attachments...), card.CoverImage) {
		if r.files.IsManaged(p) {
			owned = append(owned, p)
		}
	}

	return append(owned, r.LocalMarkdownImages(card)...)
}

// GetBoard returns a copy of a board.
func (r *Repository) GetBoard(boardID string) (db.Board, error) {
	return r.viewBoard(boardID)
}

// GetList returns a copy of a list.
func (r *Repository) GetList(boardID, listID string) (db.List, error) {
	board, err := r.viewBoard(boardID)
	if err != nil {
		return db.List{}, err
	}

	i, err := listIndex(&board, listID)
	if err != nil {
		return db.List{}, err
	}

	return board.Lists[i], nil
}

// GetCard returns a copy of a card.
func (r *Repository) GetCard(boardID, cardID string) (db.Card, error) {
	board, err := r.viewBoard(boardID)
	if err != nil {
		return db.Card{}, err
	}

	card, err := findCard(&board, cardID)
	if err != nil {
		return db.Card{}, err
	}

	return *card, nil
}

// Boards returns copies of all boards in their stored order.
func (r *Repository) Boards() []db.Board {
	var boards []db.Board

	r.store.View(func(doc *db.Document) {
		boards = make([]db.Board, len(doc.Boards))
		for i := range doc.Boards {
			boards[i] = doc.Boards[i].Clone()
		}
	})

	return boards
}

// SortedBoards returns copies of all boards ordered by the board sort preference.
// The manual order is the stored sequence, as arranged by MoveBoard.
func (r *Repository) SortedBoards() []db.Board {
	var order db.SortOrder

	r.store.View(func(doc *db.Document) {
		order = doc.BoardSortOrder
	})

	boards := r.Boards()

	switch order {
	case db.SortByTitle:
		sort.SliceStable(boards, func(i, j int) bool {
			return strings.ToLower(boards[i].Title) < strings.ToLower(boards[j].Title)
		})
	case db.SortByLastOpened:
		sort.SliceStable(boards, func(i, j int) bool {
			return boards[i].LastOpened > boards[j].LastOpened
		})
	case db.SortByCreation:
		sort.SliceStable(boards, func(i, j int) bool {
			return boards[i].CreationDate < boards[j].CreationDate
		})
	}

	return boards
}
