package boards

import (
	"context"
	"fmt"

	"github.com/matt-steen/takma/pkg/db"
	"github.com/matt-steen/takma/pkg/files"
	"github.com/rs/zerolog/log"
)

// fileSink saves new copies of the files of an entity, into the directory of
// boardID or, when boardID is empty, into the staging directory. It remembers
// every file it wrote so a failed operation can take them back.
type fileSink struct {
	files   *files.Manager
	boardID string
	created []string
	// cache maps a source path to its copy so a file referenced twice is copied once.
	cache map[string]string
}

func (r *Repository) newSink(boardID string) *fileSink {
	return &fileSink{files: r.files, boardID: boardID, cache: map[string]string{}}
}

// save copies src and returns the path of the copy. A source that no longer
// exists yields "" and no error.
func (s *fileSink) save(src, filename string) (string, error) {
	if src == "" {
		return "", nil
	}

	if dst, ok := s.cache[src]; ok {
		return dst, nil
	}

	if !s.files.Exists(src) {
		log.Warn().Str("path", src).Msg("skipping missing file")

		return "", nil
	}

	var (
		dst string
		err error
	)

	if s.boardID == "" {
		dst, err = s.files.SaveToTempDirectory(src, filename)
	} else {
		dst, err = s.files.SaveToBoardDirectory(src, s.boardID, filename)
	}

	if err != nil {
		return "", err
	}

	s.cache[src] = dst
	s.created = append(s.created, dst)

	return dst, nil
}

// discard removes every file written so far and returns err with any removal failure.
func (s *fileSink) discard(err error) error {
	var errs []error

	for _, p := range s.created {
		if rmErr := s.files.Remove(p); rmErr != nil {
			errs = append(errs, rmErr)
		}
	}

	s.created = nil

	for _, e := range errs {
		err = joinCleanup(err, e)
	}

	return err
}

// description copies the managed images of a markdown text and points the text at the copies.
func (s *fileSink) description(markdown string) (string, error) {
	var firstErr error

	out := rewriteMarkdownImages(markdown, func(target string) string {
		if firstErr != nil || !s.files.IsManaged(target) {
			return ""
		}

		dst, err := s.save(target, "")
		if err != nil {
			firstErr = err

			return ""
		}

		return dst
	})

	return out, firstErr
}

// duplicateCard returns a copy of card with fresh ids whose files are new copies.
func (s *fileSink) duplicateCard(card db.Card) (db.Card, error) {
	dup := withFreshIDs(card)
	dup.Attachments = make([]string, 0, len(card.Attachments))

	for _, a := range card.Attachments {
		saved, err := s.save(a, "")
		if err != nil {
			return db.Card{}, err
		}

		if saved != "" {
			dup.Attachments = append(dup.Attachments, saved)
		}
	}

	cover, err := s.save(card.CoverImage, "")
	if err != nil {
		return db.Card{}, err
	}

	dup.CoverImage = cover

	if dup.Description, err = s.description(card.Description); err != nil {
		return db.Card{}, err
	}

	return dup, nil
}

func (s *fileSink) duplicateList(list db.List) (db.List, error) {
	dup := list.Clone()
	dup.ID = db.NewID()
	dup.CreationDate = db.Now()

	for i := range list.Cards {
		card, err := s.duplicateCard(list.Cards[i])
		if err != nil {
			return db.List{}, err
		}

		dup.Cards[i] = card
	}

	return dup, nil
}

// copiedFile stages src and describes it for the clipboard; nil when src is empty or missing.
func (s *fileSink) copiedFile(src string) (*db.CopiedFile, error) {
	staged, err := s.save(src, "")
	if err != nil || staged == "" {
		return nil, err
	}

	return &db.CopiedFile{Filename: files.OriginalFilename(src), TempPath: staged}, nil
}

func (s *fileSink) copiedCard(card db.Card, boardLabels []db.Label) (db.CopiedCard, error) {
	copied := db.CopiedCard{
		Card:        card.Clone(),
		Attachments: []db.CopiedFile{},
		Labels:      referencedLabels(boardLabels, card.LabelIDs),
	}

	copied.Card.Attachments = []string{}
	copied.Card.CoverImage = ""

	for _, a := range card.Attachments {
		f, err := s.copiedFile(a)
		if err != nil {
			return db.CopiedCard{}, err
		}

		if f != nil {
			copied.Attachments = append(copied.Attachments, *f)
		}
	}

	cover, err := s.copiedFile(card.CoverImage)
	if err != nil {
		return db.CopiedCard{}, err
	}

	copied.CoverImage = cover

	if copied.Card.Description, err = s.description(card.Description); err != nil {
		return db.CopiedCard{}, err
	}

	return copied, nil
}

func (s *fileSink) copiedList(list db.List, boardLabels []db.Label) (db.CopiedList, error) {
	copied := db.CopiedList{
		ID:           list.ID,
		CreationDate: list.CreationDate,
		Title:        list.Title,
		Cards:        make([]db.CopiedCard, 0, len(list.Cards)),
	}

	var ids []string

	for _, card := range list.Cards {
		c, err := s.copiedCard(card, boardLabels)
		if err != nil {
			return db.CopiedList{}, err
		}

		copied.Cards = append(copied.Cards, c)
		ids = append(ids, card.LabelIDs...)
	}

	copied.Labels = referencedLabels(boardLabels, ids)

	return copied, nil
}

// pastedCard turns a clipboard card into a card with fresh ids whose files live in the sink's board.
// Label ids are left as copied; the caller maps them onto the target board.
func (s *fileSink) pastedCard(copied db.CopiedCard) (db.Card, error) {
	card := withFreshIDs(copied.Card)
	card.Attachments = make([]string, 0, len(copied.Attachments))

	for _, f := range copied.Attachments {
		saved, err := s.save(f.TempPath, f.Filename)
		if err != nil {
			return db.Card{}, err
		}

		if saved != "" {
			card.Attachments = append(card.Attachments, saved)
		}
	}

	card.CoverImage = ""

	if copied.CoverImage != nil {
		cover, err := s.save(copied.CoverImage.TempPath, copied.CoverImage.Filename)
		if err != nil {
			return db.Card{}, err
		}

		card.CoverImage = cover
	}

	var err error
	if card.Description, err = s.description(copied.Card.Description); err != nil {
		return db.Card{}, err
	}

	return card, nil
}

func (s *fileSink) pastedList(copied db.CopiedList) (db.List, error) {
	list := db.NewList(copied.Title)

	for _, c := range copied.Cards {
		card, err := s.pastedCard(c)
		if err != nil {
			return db.List{}, err
		}

		list.Cards = append(list.Cards, card)
	}

	return list, nil
}

// withFreshIDs deep copies card, giving it and its checklists and todo items new ids.
func withFreshIDs(card db.Card) db.Card {
	dup := card.Clone()
	dup.ID = db.NewID()
	dup.CreationDate = db.Now()

	for i := range dup.Checklists {
		dup.Checklists[i].ID = db.NewID()
		dup.Checklists[i].CreationDate = dup.CreationDate

		for j := range dup.Checklists[i].Todos {
			dup.Checklists[i].Todos[j].ID = db.NewID()
		}
	}

	return dup
}

func referencedLabels(labels []db.Label, ids []string) []db.Label {
	out := []db.Label{}

	for _, l := range labels {
		if containsID(ids, l.ID) {
			out = append(out, l)
		}
	}

	return out
}

func remapCardLabels(board *db.Board, cards []db.Card, mapping map[string]string) {
	for i := range cards {
		cards[i].LabelIDs = remapLabelIDs(board, cards[i].LabelIDs, mapping)
	}
}

// DuplicateCard inserts a copy of a card right after it and returns the id of the copy.
// The copy gets its own files, so deleting either card leaves the other intact.
func (r *Repository) DuplicateCard(ctx context.Context, boardID, cardID string) (string, error) {
	card, err := r.GetCard(boardID, cardID)
	if err != nil {
		return "", err
	}

	sink := r.newSink(boardID)

	dup, err := sink.duplicateCard(card)
	if err != nil {
		return "", sink.discard(fmt.Errorf("error duplicating card %s: %w", cardID, err))
	}

	err = r.updateBoard(ctx, boardID, func(board *db.Board) error {
		i, j, err := cardIndex(board, cardID)
		if err != nil {
			return err
		}

		board.Lists[i].Cards = insertAt(board.Lists[i].Cards, dup, Index(j+1))

		return nil
	})
	if err != nil {
		return "", sink.discard(err)
	}

	log.Debug().Str("board_id", boardID).Str("card_id", cardID).Str("copy_id", dup.ID).Msg("duplicated card")

	return dup.ID, nil
}

// DuplicateList inserts a copy of a list and all its cards right after it and returns the id of the copy.
func (r *Repository) DuplicateList(ctx context.Context, boardID, listID string) (string, error) {
	list, err := r.GetList(boardID, listID)
	if err != nil {
		return "", err
	}

	sink := r.newSink(boardID)

	dup, err := sink.duplicateList(list)
	if err != nil {
		return "", sink.discard(fmt.Errorf("error duplicating list %s: %w", listID, err))
	}

	err = r.updateBoard(ctx, boardID, func(board *db.Board) error {
		i, err := listIndex(board, listID)
		if err != nil {
			return err
		}

		board.Lists = insertAt(board.Lists, dup, Index(i+1))

		return nil
	})
	if err != nil {
		return "", sink.discard(err)
	}

	log.Debug().Str("board_id", boardID).Str("list_id", listID).Str("copy_id", dup.ID).Msg("duplicated list")

	return dup.ID, nil
}

// DuplicateBoard inserts a copy of a board right after it and returns the id
// of the copy. Every file of the copy lives in the copy's own directory.
func (r *Repository) DuplicateBoard(ctx context.Context, boardID string) (string, error) {
	board, err := r.GetBoard(boardID)
	if err != nil {
		return "", err
	}

	dup := board.Clone()
	dup.ID = db.NewID()
	dup.CreationDate = db.Now()
	dup.LastOpened = dup.CreationDate

	sink := r.newSink(dup.ID)

	if dup.BackgroundImagePath, err = sink.save(board.BackgroundImagePath, ""); err != nil {
		return "", sink.discard(fmt.Errorf("error duplicating board %s: %w", boardID, err))
	}

	for i := range board.Lists {
		if dup.Lists[i], err = sink.duplicateList(board.Lists[i]); err != nil {
			return "", sink.discard(fmt.Errorf("error duplicating board %s: %w", boardID, err))
		}
	}

	err = r.store.Update(ctx, func(doc *db.Document) error {
		i, err := boardIndex(doc, boardID)
		if err != nil {
			return err
		}

		doc.Boards = insertAt(doc.Boards, dup, Index(i+1))

		return nil
	})
	if err != nil {
		return "", joinCleanup(err, r.files.RemoveBoardDirectory(dup.ID))
	}

	log.Debug().Str("board_id", boardID).Str("copy_id", dup.ID).Msg("duplicated board")

	return dup.ID, nil
}

// CopyCard takes a snapshot of a card for the clipboard. Its files are staged
// outside the board so the snapshot survives the deletion of the card.
func (r *Repository) CopyCard(boardID, cardID string) (db.CopiedCard, error) {
	board, err := r.GetBoard(boardID)
	if err != nil {
		return db.CopiedCard{}, err
	}

	card, err := findCard(&board, cardID)
	if err != nil {
		return db.CopiedCard{}, err
	}

	sink := r.newSink("")

	copied, err := sink.copiedCard(*card, board.Labels)
	if err != nil {
		return db.CopiedCard{}, sink.discard(fmt.Errorf("error copying card %s: %w", cardID, err))
	}

	return copied, nil
}

// CopyList takes a snapshot of a list and its cards for the clipboard.
func (r *Repository) CopyList(boardID, listID string) (db.CopiedList, error) {
	board, err := r.GetBoard(boardID)
	if err != nil {
		return db.CopiedList{}, err
	}

	i, err := listIndex(&board, listID)
	if err != nil {
		return db.CopiedList{}, err
	}

	sink := r.newSink("")

	copied, err := sink.copiedList(board.Lists[i], board.Labels)
	if err != nil {
		return db.CopiedList{}, sink.discard(fmt.Errorf("error copying list %s: %w", listID, err))
	}

	return copied, nil
}

// CopyBoard takes a snapshot of a whole board for the clipboard.
func (r *Repository) CopyBoard(boardID string) (db.CopiedBoard, error) {
	board, err := r.GetBoard(boardID)
	if err != nil {
		return db.CopiedBoard{}, err
	}

	sink := r.newSink("")
	copied := db.CopiedBoard{
		ID:           board.ID,
		CreationDate: board.CreationDate,
		Title:        board.Title,
		Lists:        make([]db.CopiedList, 0, len(board.Lists)),
		Labels:       append([]db.Label{}, board.Labels...),
		Favourite:    board.Favourite,
	}

	if copied.BackgroundImage, err = sink.copiedFile(board.BackgroundImagePath); err != nil {
		return db.CopiedBoard{}, sink.discard(fmt.Errorf("error copying board %s: %w", boardID, err))
	}

	for _, list := range board.Lists {
		l, err := sink.copiedList(list, board.Labels)
		if err != nil {
			return db.CopiedBoard{}, sink.discard(fmt.Errorf("error copying board %s: %w", boardID, err))
		}

		copied.Lists = append(copied.Lists, l)
	}

	return copied, nil
}

// PasteCard adds a clipboard card to a list at index at, or at the end when
// at is nil, and returns the id of the new card. Labels the target
// board lacks are created there.
func (r *Repository) PasteCard(ctx context.Context, copied db.CopiedCard, boardID, listID string, at *int) (string, error) {
	sink := r.newSink(boardID)

	card, err := sink.pastedCard(copied)
	if err != nil {
		return "", sink.discard(fmt.Errorf("error pasting card: %w", err))
	}

	err = r.updateBoard(ctx, boardID, func(board *db.Board) error {
		i, err := listIndex(board, listID)
		if err != nil {
			return err
		}

		mapping := reconcileLabels(board, copied.Labels)
		card.LabelIDs = remapLabelIDs(board, card.LabelIDs, mapping)
		board.Lists[i].Cards = insertAt(board.Lists[i].Cards, card, at)

		return nil
	})
	if err != nil {
		return "", sink.discard(err)
	}

	log.Debug().Str("board_id", boardID).Str("card_id", card.ID).Msg("pasted card")

	return card.ID, nil
}

// PasteList adds a clipboard list to a board and returns the id of the new list.
func (r *Repository) PasteList(ctx context.Context, copied db.CopiedList, boardID string, at *int) (string, error) {
	sink := r.newSink(boardID)

	list, err := sink.pastedList(copied)
	if err != nil {
		return "", sink.discard(fmt.Errorf("error pasting list: %w", err))
	}

	err = r.updateBoard(ctx, boardID, func(board *db.Board) error {
		mapping := reconcileLabels(board, copied.Labels)
		remapCardLabels(board, list.Cards, mapping)
		board.Lists = insertAt(board.Lists, list, at)

		return nil
	})
	if err != nil {
		return "", sink.discard(err)
	}

	log.Debug().Str("board_id", boardID).Str("list_id", list.ID).Msg("pasted list")

	return list.ID, nil
}

// PasteBoard adds a clipboard board to the board sequence and returns the id of the new board.
func (r *Repository) PasteBoard(ctx context.Context, copied db.CopiedBoard, at *int) (string, error) {
	board := db.NewBoard(copied.Title)
	board.Favourite = copied.Favourite

	sink := r.newSink(board.ID)

	if copied.BackgroundImage != nil {
		bg, err := sink.save(copied.BackgroundImage.TempPath, copied.BackgroundImage.Filename)
		if err != nil {
			return "", sink.discard(fmt.Errorf("error pasting board: %w", err))
		}

		board.BackgroundImagePath = bg
	}

	for _, c := range copied.Lists {
		list, err := sink.pastedList(c)
		if err != nil {
			return "", sink.discard(fmt.Errorf("error pasting board: %w", err))
		}

		board.Lists = append(board.Lists, list)
	}

	mapping := reconcileLabels(&board, copied.Labels)
	for i := range board.Lists {
		remapCardLabels(&board, board.Lists[i].Cards, mapping)
	}

	_, err := r.CreateBoard(ctx, BoardParams{
		Title:           board.Title,
		BackgroundImage: board.BackgroundImagePath,
		KeepImagePath:   true,
		ID:              board.ID,
		Labels:          board.Labels,
		Lists:           board.Lists,
		Favourite:       board.Favourite,
		InsertAt:        at,
	})
	if err != nil {
		return "", joinCleanup(err, r.files.RemoveBoardDirectory(board.ID))
	}

	return board.ID, nil
}
