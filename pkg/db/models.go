package db

import (
	"time"

	"github.com/google/uuid"
)

// CurrentSchemaVersion is written into every new save document.
const CurrentSchemaVersion = 1

// SortOrder selects how boards are ordered in the boards overview.
type SortOrder string

// These constants refer to the board orderings supported by the app.
const (
	SortManual       SortOrder = "manual"
	SortByCreation   SortOrder = "creation"
	SortByTitle      SortOrder = "title"
	SortByLastOpened SortOrder = "lastOpened"
)

// Document is the root of everything persisted in the save file.
type Document struct {
	SchemaVersion  int             `json:"schemaVersion"`
	AppName        string          `json:"appName"`
	DarkTheme      bool            `json:"darkTheme"`
	TimesOpened    int             `json:"timesOpened"`
	BoardSortOrder SortOrder       `json:"boardSortOrder"`
	Language       string          `json:"language"`
	Onboarding     map[string]bool `json:"onboarding"`
	Window         WindowGeometry  `json:"window"`
	// Confirmations maps a dialog name to whether the user still wants to be asked.
	Confirmations map[string]bool `json:"confirmations"`
	Boards        []Board         `json:"boards"`
}

// WindowGeometry is the last known position and size of the main window.
type WindowGeometry struct {
	X         int  `json:"x"`
	Y         int  `json:"y"`
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	Maximized bool `json:"maximized"`
}

// Board contains lists of cards and the labels those cards can reference.
type Board struct {
	ID           string `json:"id"`
	CreationDate int64  `json:"creationDate"`
	LastOpened   int64  `json:"lastOpened"`
	Title        string `json:"title"`
	// BackgroundImagePath is relative to the save directory, empty for none.
	BackgroundImagePath string  `json:"backgroundImagePath"`
	Lists               []List  `json:"lists"`
	Labels              []Label `json:"labels"`
	Favourite           bool    `json:"favourite"`
	Archived            bool    `json:"archived"`
}

// List is an ordered column of cards.
type List struct {
	ID           string `json:"id"`
	CreationDate int64  `json:"creationDate"`
	Title        string `json:"title"`
	Cards        []Card `json:"cards"`
}

// Card is a single task on a board.
type Card struct {
	ID           string `json:"id"`
	CreationDate int64  `json:"creationDate"`
	Title        string `json:"title"`
	// Description is markdown and may embed images stored in the board directory.
	Description string   `json:"description"`
	Attachments []string `json:"attachments"`
	// CoverImage is empty when the card has no cover.
	CoverImage string      `json:"coverImage"`
	Checklists []Checklist `json:"checklists"`
	// LabelIDs reference labels of the board containing the card.
	LabelIDs []string `json:"labelIds"`
	// DueDate is in unix milliseconds, nil when unset.
	DueDate  *int64 `json:"dueDate"`
	Complete bool   `json:"complete"`
}

// Label can be attached to any card of the board that owns it.
type Label struct {
	ID    string `json:"id"`
	Color string `json:"color"`
	Title string `json:"title"`
	// TitleColor is derived from Color, see TitleColorFor.
	TitleColor string `json:"titleColor"`
}

// Checklist groups todo items on a card.
type Checklist struct {
	ID           string     `json:"id"`
	CreationDate int64      `json:"creationDate"`
	Title        string     `json:"title"`
	Todos        []TodoItem `json:"todos"`
}

// TodoItem is a single line in a checklist.
type TodoItem struct {
	ID       string `json:"id"`
	Complete bool   `json:"complete"`
	Content  string `json:"content"`
}

// CopiedFile is a file staged outside any board, waiting to be pasted.
type CopiedFile struct {
	Filename string `json:"filename"`
	TempPath string `json:"tempPath"`
}

// CopiedCard is a self-contained snapshot of a card on the clipboard.
// Card carries no attachments or cover image; those travel as staged files.
type CopiedCard struct {
	Card        Card         `json:"card"`
	Attachments []CopiedFile `json:"attachments"`
	CoverImage  *CopiedFile  `json:"coverImage"`
	Labels      []Label      `json:"labels"`
}

// CopiedList is a self-contained snapshot of a list on the clipboard.
type CopiedList struct {
	ID           string       `json:"id"`
	CreationDate int64        `json:"creationDate"`
	Title        string       `json:"title"`
	Cards        []CopiedCard `json:"cards"`
	Labels       []Label      `json:"labels"`
}

// CopiedBoard is a self-contained snapshot of a board on the clipboard.
type CopiedBoard struct {
	ID              string       `json:"id"`
	CreationDate    int64        `json:"creationDate"`
	Title           string       `json:"title"`
	BackgroundImage *CopiedFile  `json:"backgroundImage"`
	Lists           []CopiedList `json:"lists"`
	Labels          []Label      `json:"labels"`
	Favourite       bool         `json:"favourite"`
}

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

// Now returns the current time in unix milliseconds, the unit of every timestamp in the document.
func Now() int64 {
	return time.Now().UnixMilli()
}

// NewDocument returns a document holding the defaults of the current schema version.
func NewDocument() *Document {
	return &Document{
		SchemaVersion:  CurrentSchemaVersion,
		AppName:        "Takma",
		BoardSortOrder: SortManual,
		Language:       "en",
		Onboarding:     defaultOnboarding(),
		Window:         WindowGeometry{Width: 1280, Height: 720},
		Confirmations:  defaultConfirmations(),
		Boards:         []Board{},
	}
}

func defaultOnboarding() map[string]bool {
	return map[string]bool{
		"boardsOverview": false,
		"board":          false,
		"cardDetails":    false,
	}
}

func defaultConfirmations() map[string]bool {
	return map[string]bool{
		"deleteBoard": true,
		"deleteList":  true,
		"deleteCard":  true,
		"deleteLabel": true,
	}
}

// NewBoard creates a board with a fresh id and creation date.
func NewBoard(title string) Board {
	now := Now()

	return Board{
		ID:           NewID(),
		CreationDate: now,
		LastOpened:   now,
		Title:        title,
		Lists:        []List{},
		Labels:       []Label{},
	}
}

// NewList creates an empty list with a fresh id and creation date.
func NewList(title string) List {
	return List{
		ID:           NewID(),
		CreationDate: Now(),
		Title:        title,
		Cards:        []Card{},
	}
}

// NewCard creates a card with a fresh id and creation date and every other field at its default.
func NewCard(title string) Card {
	return Card{
		ID:           NewID(),
		CreationDate: Now(),
		Title:        title,
		Attachments:  []string{},
		Checklists:   []Checklist{},
		LabelIDs:     []string{},
	}
}

// NewChecklist creates an empty checklist.
func NewChecklist(title string) Checklist {
	return Checklist{
		ID:           NewID(),
		CreationDate: Now(),
		Title:        title,
		Todos:        []TodoItem{},
	}
}

// NewTodoItem creates an incomplete todo item.
func NewTodoItem(content string) TodoItem {
	return TodoItem{ID: NewID(), Content: content}
}

// NewLabel creates a label whose title color is derived from color.
func NewLabel(color, title string) Label {
	return Label{
		ID:         NewID(),
		Color:      color,
		Title:      title,
		TitleColor: TitleColorFor(color),
	}
}

// SameContent reports whether two labels look identical, ignoring their ids.
func (l Label) SameContent(other Label) bool {
	return l.Title == other.Title && l.TitleColor == other.TitleColor && l.Color == other.Color
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	c := b
	c.Lists = make([]List, len(b.Lists))

	for i := range b.Lists {
		c.Lists[i] = b.Lists[i].Clone()
	}

	c.Labels = append([]Label{}, b.Labels...)

	return c
}

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	c := l
	c.Cards = make([]Card, len(l.Cards))

	for i := range l.Cards {
		c.Cards[i] = l.Cards[i].Clone()
	}

	return c
}

// Clone returns a deep copy of the card.
func (c Card) Clone() Card {
	clone := c
	clone.Attachments = append([]string{}, c.Attachments...)
	clone.LabelIDs = append([]string{}, c.LabelIDs...)
	clone.Checklists = make([]Checklist, len(c.Checklists))

	for i := range c.Checklists {
		clone.Checklists[i] = c.Checklists[i].Clone()
	}

	if c.DueDate != nil {
		due := *c.DueDate
		clone.DueDate = &due
	}

	return clone
}

// Clone returns a deep copy of the checklist.
func (c Checklist) Clone() Checklist {
	clone := c
	clone.Todos = append([]TodoItem{}, c.Todos...)

	return clone
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := *d
	c.Onboarding = copyFlags(d.Onboarding)
	c.Confirmations = copyFlags(d.Confirmations)
	c.Boards = make([]Board, len(d.Boards))

	for i := range d.Boards {
		c.Boards[i] = d.Boards[i].Clone()
	}

	return &c
}

func copyFlags(in map[string]bool) map[string]bool {
	if in == nil {
		return nil
	}

	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}

	return out
}

// normalize replaces null collections read from older or hand-edited save
// files with their empty defaults so the tree can be used without nil checks.
func (d *Document) normalize() {
	if d.Onboarding == nil {
		d.Onboarding = defaultOnboarding()
	}

	if d.Confirmations == nil {
		d.Confirmations = defaultConfirmations()
	}

	if d.Boards == nil {
		d.Boards = []Board{}
	}

	for i := range d.Boards {
		d.Boards[i].normalize()
	}
}

func (b *Board) normalize() {
	if b.Lists == nil {
		b.Lists = []List{}
	}

	if b.Labels == nil {
		b.Labels = []Label{}
	}

	for i := range b.Labels {
		if b.Labels[i].TitleColor == "" {
			b.Labels[i].TitleColor = TitleColorFor(b.Labels[i].Color)
		}
	}

	for i := range b.Lists {
		if b.Lists[i].Cards == nil {
			b.Lists[i].Cards = []Card{}
		}

		for j := range b.Lists[i].Cards {
			b.Lists[i].Cards[j].normalize()
		}
	}
}

func (c *Card) normalize() {
	if c.Attachments == nil {
		c.Attachments = []string{}
	}

	if c.Checklists == nil {
		c.Checklists = []Checklist{}
	}

	if c.LabelIDs == nil {
		c.LabelIDs = []string{}
	}

	for i := range c.Checklists {
		if c.Checklists[i].Todos == nil {
			c.Checklists[i].Todos = []TodoItem{}
		}
	}
}
