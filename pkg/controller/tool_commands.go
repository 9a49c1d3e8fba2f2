package controller

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matt-steen/takma/pkg/db"
	"github.com/spf13/cobra"
)

func thumbnailCommand(get getter) *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "thumbnail <image>",
		Short: "Generate the cached thumbnail of an image and print its path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := get()
			if size <= 0 {
				size = c.thumbnailSize
			}

			src := c.repo.Files().Resolve(args[0])

			path := c.thumbnailer.Thumbnail(src, size)
			if path == src {
				// GIFs and images that fail to decode keep being served as they are
				c.thumbnailer.Wait()

				if cached := c.thumbnailer.CachePath(src, size); fileExists(cached) {
					path = cached
				}
			}

			printf(cmd.OutOrStdout(), "%s\n", path)

			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", 0, "length of the shorter side in pixels (default from config)")

	return cmd
}

func validateCommand(get getter) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [save-file]",
		Short: "Check a save file, or the loaded document, against the save file schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)

			source := get().store.Location()

			if len(args) == 1 {
				source = args[0]

				data, err = os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("error reading %s: %w", args[0], err)
				}
			} else {
				data, err = json.Marshal(get().store.Document())
				if err != nil {
					return fmt.Errorf("error encoding document: %w", err)
				}
			}

			result, err := db.Validate(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if result.Valid {
				printf(out, "%s is valid\n", source)

				return nil
			}

			for _, e := range result.Errors {
				printf(out, "%s\n", e)
			}

			return fmt.Errorf("%s has %d schema violations", source, len(result.Errors))
		},
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}
