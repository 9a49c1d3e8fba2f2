package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// SetDarkTheme switches the theme preference and saves.
func (s *Store) SetDarkTheme(ctx context.Context, dark bool) error {
	return s.Update(ctx, func(doc *Document) error {
		doc.DarkTheme = dark

		return nil
	})
}

// SetLanguage stores the display language and saves.
func (s *Store) SetLanguage(ctx context.Context, language string) error {
	return s.Update(ctx, func(doc *Document) error {
		doc.Language = language

		return nil
	})
}

// SetBoardSortOrder stores how boards are ordered and saves.
func (s *Store) SetBoardSortOrder(ctx context.Context, order SortOrder) error {
	switch order {
	case SortManual, SortByCreation, SortByTitle, SortByLastOpened:
	default:
		return fmt.Errorf("error setting sort order: unknown order %q", order)
	}

	return s.Update(ctx, func(doc *Document) error {
		doc.BoardSortOrder = order

		return nil
	})
}

// SetOnboardingCompleted records whether the named tour has been completed and saves.
func (s *Store) SetOnboardingCompleted(ctx context.Context, tour string, completed bool) error {
	return s.Update(ctx, func(doc *Document) error {
		doc.Onboarding[tour] = completed

		return nil
	})
}

// SetConfirmation records whether the named confirmation dialog should still be shown and saves.
func (s *Store) SetConfirmation(ctx context.Context, dialog string, ask bool) error {
	return s.Update(ctx, func(doc *Document) error {
		doc.Confirmations[dialog] = ask

		return nil
	})
}

// IncrementTimesOpened counts an application start and saves.
func (s *Store) IncrementTimesOpened(ctx context.Context) error {
	return s.Update(ctx, func(doc *Document) error {
		doc.TimesOpened++

		return nil
	})
}

// SetWindowGeometry records the window position and size without saving.
// It changes continuously while the user drags or resizes, so it is flushed
// by whichever save comes next.
func (s *Store) SetWindowGeometry(geometry WindowGeometry) {
	s.Stage(func(doc *Document) {
		doc.Window = geometry
	})

	log.Debug().Int("width", geometry.Width).Int("height", geometry.Height).Msg("window geometry staged")
}
