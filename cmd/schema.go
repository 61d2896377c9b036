package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grovetools/promptgen/pkg/config"
	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/grovetools/promptgen/pkg/schema"
	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:       "schema [template|prompt|chunk|variations|theme]",
		Short:     "Print or write the JSON schemas of the document types",
		Long:      "Prints the JSON schema of one document type, or writes every schema into --out as {type}.schema.json.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"template", "prompt", "chunk", "variations", "theme"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				data, err := schema.JSON(config.Kind(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			if outDir == "" {
				return errors.WithHint(errors.New("no document type given"), "pass a type or --out <dir> to write all schemas")
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return errors.Wrap(err, "failed to create schema directory")
			}
			for _, kind := range schema.Kinds {
				data, err := schema.JSON(kind)
				if err != nil {
					return err
				}
				path := filepath.Join(outDir, string(kind)+".schema.json")
				if err := os.WriteFile(path, data, 0644); err != nil {
					return errors.Wrapf(err, "failed to write %s", path)
				}
				log.Infof("Wrote %s", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "Write all schemas into this directory")
	return cmd
}
