package controller

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/matt-steen/takma/pkg/boards"
	"github.com/matt-steen/takma/pkg/db"
	"github.com/matt-steen/takma/pkg/files"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Controller mediates between the board repository and the terminal.
type Controller struct {
	store         *db.Store
	repo          *boards.Repository
	thumbnailer   *files.Thumbnailer
	thumbnailSize int
}

// Opener builds the controller once the config file is known.
type Opener func(ctx context.Context, configPath string) (*Controller, error)

// NewController creates a new Controller over an already loaded store.
func NewController(store *db.Store, repo *boards.Repository, thumbnailer *files.Thumbnailer, thumbnailSize int) *Controller {
	return &Controller{
		store:         store,
		repo:          repo,
		thumbnailer:   thumbnailer,
		thumbnailSize: thumbnailSize,
	}
}

// Close waits for background thumbnails and releases the store.
func (c *Controller) Close() error {
	c.thumbnailer.Wait()

	if err := c.store.Close(); err != nil {
		return fmt.Errorf("error closing store: %w", err)
	}

	return nil
}

// NewRootCommand builds the takma command tree. open is called once, before
// the first subcommand runs, with the value of --config. The returned func
// closes the opened controller, if any, and must be called after Execute.
func NewRootCommand(open Opener) (*cobra.Command, func() error) {
	var (
		configPath string
		c          *Controller
	)

	root := &cobra.Command{
		Use:           "takma",
		Short:         "Manage kanban boards from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c != nil {
				return nil
			}

			opened, err := open(cmd.Context(), configPath)
			if err != nil {
				return err
			}

			c = opened

			log.Debug().Str("command", cmd.CommandPath()).Msg("running command")

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <user config dir>/Takma/takma.toml)")

	get := func() *Controller { return c }

	root.AddCommand(
		boardCommand(get),
		listCommand(get),
		cardCommand(get),
		labelCommand(get),
		thumbnailCommand(get),
		validateCommand(get),
	)

	closeFn := func() error {
		if c == nil {
			return nil
		}

		err := c.Close()
		c = nil

		return err
	}

	return root, closeFn
}

// errUsage marks invalid flag combinations.
var errUsage = errors.New("invalid usage")

func printf(w io.Writer, format string, args ...interface{}) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		log.Warn().Err(err).Msg("error writing output")
	}
}
