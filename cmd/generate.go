package cmd

import (
	"os"
	"path/filepath"

	"github.com/grovetools/promptgen/pkg/manifest"
	"github.com/grovetools/promptgen/pkg/pipeline"
	"github.com/grovetools/promptgen/pkg/writer"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var flags runFlags
	var format string
	var outputDir string
	var writeManifest bool

	cmd := &cobra.Command{
		Use:   "generate <template.yaml>",
		Short: "Resolve a template and print or write its prompt records",
		Long: `Loads the template (or prompt document), resolves its inheritance chain,
imports, chunks and optional theme, and enumerates the prompt records.

Examples:
  promptgen generate portrait.template.yaml                  # JSON to stdout
  promptgen generate portrait.template.yaml -n 20 --mode random --seed 7
  promptgen generate portrait.template.yaml -t noir -s sexy -o out --manifest
  promptgen generate prompts/rainy-street.prompt.yaml --format table`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") && appSettings != nil && appSettings.Output.Format != "" {
				format = appSettings.Output.Format
			}
			if outputDir == "" && appSettings != nil {
				outputDir = appSettings.Output.Dir
			}
			w, err := writer.New(writer.Format(format))
			if err != nil {
				return err
			}

			opts := flags.options(cmd)
			result, err := newPipeline().Run(args[0], opts)
			if err != nil {
				return err
			}

			if outputDir == "" {
				return w.WriteRecords(cmd.OutOrStdout(), result.Records)
			}
			return writeOutputs(outputDir, w, result, opts, writeManifest)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, jsonl, yaml or table")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Write records into this directory instead of stdout")
	cmd.Flags().BoolVar(&writeManifest, "manifest", false, "Also write a run manifest next to the records")

	return cmd
}

func writeOutputs(dir string, w writer.Writer, result *pipeline.Result, opts pipeline.RunOptions, withManifest bool) error {
	name := result.Config.Name
	if opts.Theme != "" {
		name += "." + opts.Theme
	}
	if opts.Style != "" {
		name += "." + opts.Style
	}

	path, err := writer.NewDir(dir, w).Write(name, result.Records)
	if err != nil {
		return err
	}
	log.Infof("Wrote %d record(s) to %s", len(result.Records), path)

	if !withManifest {
		return nil
	}
	m := manifest.New(result.Config, result.Context, len(result.Records))
	m.Theme, m.Style = opts.Theme, opts.Style
	m.Outputs = []string{filepath.Base(path)}
	manifestPath := filepath.Join(dir, name+".manifest.json")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := m.Save(manifestPath); err != nil {
		return err
	}
	log.Infof("Wrote manifest to %s", manifestPath)
	return nil
}
