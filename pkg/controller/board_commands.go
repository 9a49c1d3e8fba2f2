package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matt-steen/takma/pkg/boards"
	"github.com/matt-steen/takma/pkg/db"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	titleWidth = 40
	idWidth    = 36
)

type getter func() *Controller

func boardCommand(get getter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Create, list and remove boards",
	}

	cmd.AddCommand(
		boardListCommand(get),
		boardCreateCommand(get),
		boardDeleteCommand(get),
		boardOpenCommand(get),
		boardDuplicateCommand(get),
		boardExportCommand(get),
	)

	return cmd
}

func boardListCommand(get getter) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List boards in the configured sort order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			shown := 0

			for _, board := range get().repo.SortedBoards() {
				if board.Archived && !all {
					continue
				}

				marker := " "
				if board.Favourite {
					marker = "*"
				}

				printf(out, "%-*s %s %-*s %d lists\n", idWidth, board.ID, marker, titleWidth, truncate(board.Title, titleWidth), len(board.Lists))
				shown++
			}

			if shown == 0 {
				printf(out, "No boards yet. Use 'takma board create <title>' to add one.\n")
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include archived boards")

	return cmd
}

func boardCreateCommand(get getter) *cobra.Command {
	var params boards.BoardParams

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a board",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Title = strings.Join(args, " ")

			id, err := get().repo.CreateBoard(cmd.Context(), params)
			if err != nil {
				return err
			}

			printf(cmd.OutOrStdout(), "%s\n", id)

			return nil
		},
	}

	cmd.Flags().StringVar(&params.BackgroundImage, "background", "", "background image to copy into the board")
	cmd.Flags().BoolVar(&params.Favourite, "favourite", false, "mark the board as favourite")

	return cmd
}

func boardDeleteCommand(get getter) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <board-id>",
		Short: "Delete a board and all of its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return get().repo.DeleteBoard(cmd.Context(), args[0])
		},
	}
}

func boardOpenCommand(get getter) *cobra.Command {
	return &cobra.Command{
		Use:   "open <board-id>",
		Short: "Show the lists and cards of a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := get()

			if err := c.repo.OpenBoard(cmd.Context(), args[0]); err != nil {
				return err
			}

			board, err := c.repo.GetBoard(args[0])
			if err != nil {
				return err
			}

			printBoard(cmd, board)

			return nil
		},
	}
}

func boardDuplicateCommand(get getter) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <board-id>",
		Short: "Copy a board, its files included, right after it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := get().repo.DuplicateBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printf(cmd.OutOrStdout(), "%s\n", id)

			return nil
		},
	}
}

func boardExportCommand(get getter) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <board-id>",
		Short: "Print a board as JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, err := get().repo.GetBoard(args[0])
			if err != nil {
				return err
			}

			data, err := exportBoard(board, format)
			if err != nil {
				return err
			}

			printf(cmd.OutOrStdout(), "%s\n", data)

			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")

	return cmd
}

// exportBoard encodes a board. YAML keeps the JSON field names of the save file.
func exportBoard(board db.Board, format string) ([]byte, error) {
	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error encoding board: %w", err)
	}

	switch strings.ToLower(format) {
	case "json":
		return data, nil
	case "yaml", "yml":
		// UseNumber keeps millisecond timestamps as integers
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()

		var generic map[string]interface{}
		if err := dec.Decode(&generic); err != nil {
			return nil, fmt.Errorf("error encoding board: %w", err)
		}

		out, err := yaml.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("error encoding board as yaml: %w", err)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", errUsage, format)
	}
}

func printBoard(cmd *cobra.Command, board db.Board) {
	out := cmd.OutOrStdout()

	printf(out, "%s\n%s\n", board.Title, strings.Repeat("=", len(board.Title)))

	labels := make(map[string]string, len(board.Labels))
	for _, l := range board.Labels {
		labels[l.ID] = l.Title
	}

	for _, list := range board.Lists {
		printf(out, "\n%s (%s)\n", list.Title, list.ID)

		for _, card := range list.Cards {
			done := " "
			if card.Complete {
				done = "x"
			}

			var names []string
			for _, id := range card.LabelIDs {
				names = append(names, labels[id])
			}

			printf(out, "  [%s] %-*s %s %s\n", done, titleWidth, truncate(card.Title, titleWidth), card.ID, strings.Join(names, ","))
		}
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}

	return string(r[:width-3]) + "..."
}
