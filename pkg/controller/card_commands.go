package controller

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/matt-steen/takma/pkg/boards"
	"github.com/spf13/cobra"
)

const dueDateLayout = "2006-01-02"

func listCommand(get getter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Manage the lists of a board",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <board-id> <title>",
		Short: "Append a list to a board",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := get().repo.CreateList(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}

			printf(cmd.OutOrStdout(), "%s\n", id)

			return nil
		},
	}, &cobra.Command{
		Use:   "delete <board-id> <list-id>",
		Short: "Delete a list, its cards and their files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return get().repo.DeleteList(cmd.Context(), args[0], args[1])
		},
	})

	return cmd
}

func cardCommand(get getter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage cards",
	}

	cmd.AddCommand(
		cardCreateCommand(get),
		cardShowCommand(get),
		cardSearchCommand(get),
		cardDuplicateCommand(get),
		cardCopyCommand(get),
		cardAttachCommand(get),
		cardDeleteCommand(get),
	)

	return cmd
}

func cardCreateCommand(get getter) *cobra.Command {
	var (
		description string
		due         string
	)

	cmd := &cobra.Command{
		Use:   "create <board-id> <list-id> <title>",
		Short: "Append a card to a list",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo := get().repo
			boardID := args[0]

			var dueDate *time.Time

			if due != "" {
				t, err := time.ParseInLocation(dueDateLayout, due, time.Local)
				if err != nil {
					return fmt.Errorf("%w: bad due date %q, expected YYYY-MM-DD", errUsage, due)
				}

				dueDate = &t
			}

			id, err := repo.CreateCard(ctx, boardID, args[1], strings.Join(args[2:], " "))
			if err != nil {
				return err
			}

			if description != "" {
				if err := repo.SetCardDescription(ctx, boardID, id, description); err != nil {
					return err
				}
			}

			if dueDate != nil {
				if err := repo.SetCardDueDate(ctx, boardID, id, dueDate); err != nil {
					return err
				}
			}

			printf(cmd.OutOrStdout(), "%s\n", id)

			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "markdown description")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")

	return cmd
}

func cardShowCommand(get getter) *cobra.Command {
	var theme string

	cmd := &cobra.Command{
		Use:   "show <board-id> <card-id>",
		Short: "Print the read-only view of a card as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := get().repo.CardViewerPayload(args[0], args[1], theme, boards.ViewerCaptions{
				ReadOnly:    "Read only",
				DueDate:     "Due date",
				Completed:   "Completed",
				Checklist:   "Checklist",
				Attachments: "Attachments",
			})
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return fmt.Errorf("error encoding card: %w", err)
			}

			printf(cmd.OutOrStdout(), "%s\n", data)

			return nil
		},
	}

	cmd.Flags().StringVar(&theme, "theme", "", "theme name passed to the viewer")

	return cmd
}

func cardSearchCommand(get getter) *cobra.Command {
	return &cobra.Command{
		Use:   "search <board-id> [query]",
		Short: `Find cards; quote the query ("...") for an exact phrase`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cards, err := get().repo.SearchCards(args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}

			for _, card := range cards {
				printf(cmd.OutOrStdout(), "%-*s %s\n", idWidth, card.ID, card.Title)
			}

			return nil
		},
	}
}

func cardDuplicateCommand(get getter) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <board-id> <card-id>",
		Short: "Copy a card, its files included, right after it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := get().repo.DuplicateCard(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			printf(cmd.OutOrStdout(), "%s\n", id)

			return nil
		},
	}
}

func cardCopyCommand(get getter) *cobra.Command {
	var (
		toBoard string
		toList  string
		at      int
	)

	cmd := &cobra.Command{
		Use:   "copy <board-id> <card-id>",
		Short: "Copy a card into a list of any board, labels included",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if toList == "" {
				return fmt.Errorf("%w: --to-list is required", errUsage)
			}

			if toBoard == "" {
				toBoard = args[0]
			}

			repo := get().repo

			copied, err := repo.CopyCard(args[0], args[1])
			if err != nil {
				return err
			}

			var insertAt *int
			if at >= 0 {
				insertAt = boards.Index(at)
			}

			id, err := repo.PasteCard(cmd.Context(), copied, toBoard, toList, insertAt)
			if err != nil {
				return err
			}

			printf(cmd.OutOrStdout(), "%s\n", id)

			return nil
		},
	}

	cmd.Flags().StringVar(&toBoard, "to-board", "", "target board (default: the source board)")
	cmd.Flags().StringVar(&toList, "to-list", "", "target list")
	cmd.Flags().IntVar(&at, "at", -1, "position in the target list (default: last)")

	return cmd
}

func cardAttachCommand(get getter) *cobra.Command {
	var cover bool

	cmd := &cobra.Command{
		Use:   "attach <board-id> <card-id> <file>",
		Short: "Copy a file into the board and attach it to a card",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := get().repo

			if cover {
				return repo.SetCoverImage(cmd.Context(), args[0], args[1], args[2])
			}

			saved, err := repo.AddAttachment(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}

			printf(cmd.OutOrStdout(), "%s\n", saved)

			return nil
		},
	}

	cmd.Flags().BoolVar(&cover, "cover", false, "use the file as cover image instead")

	return cmd
}

func cardDeleteCommand(get getter) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <board-id> <card-id>",
		Short: "Delete a card and the files it owns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return get().repo.DeleteCard(cmd.Context(), args[0], args[1])
		},
	}
}

func labelCommand(get getter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Manage board labels",
	}

	var card string

	add := &cobra.Command{
		Use:   "add <board-id> <color> <title>",
		Short: "Add a label to a board, optionally attaching it to a card",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := get().repo

			id, err := repo.AddLabelToBoard(cmd.Context(), args[0], args[1], strings.Join(args[2:], " "))
			if err != nil {
				return err
			}

			if card != "" {
				if err := repo.AddLabelToCard(cmd.Context(), args[0], card, id); err != nil {
					return err
				}
			}

			printf(cmd.OutOrStdout(), "%s\n", id)

			return nil
		},
	}

	add.Flags().StringVar(&card, "card", "", "card to attach the new label to")

	cmd.AddCommand(add, &cobra.Command{
		Use:   "remove <board-id> <label-id>",
		Short: "Remove a label from a board and all of its cards",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return get().repo.RemoveLabel(cmd.Context(), args[0], args[1])
		},
	})

	return cmd
}
