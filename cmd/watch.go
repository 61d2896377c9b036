package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/grovetools/promptgen/pkg/pipeline"
	"github.com/grovetools/promptgen/pkg/watcher"
	"github.com/grovetools/promptgen/pkg/writer"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var flags runFlags
	var format string
	var outputDir string
	var dirs []string
	var debounceMs int

	cmd := &cobra.Command{
		Use:   "watch <template.yaml>",
		Short: "Regenerate records whenever a YAML file changes",
		Long: `Watches the template's directory (and any --dir) recursively and regenerates
the records into --output whenever a YAML file changes. Changed documents are
dropped from the cache before each run; a failing run is reported and the
watch continues.

Example:
  promptgen watch portrait.template.yaml -o out --dir ../shared-variations`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir == "" {
				return errors.New("--output is required")
			}
			w, err := writer.New(writer.Format(format))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			template, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			return runWatch(ctx, template, append([]string{filepath.Dir(template)}, dirs...), w, outputDir, flags.options(cmd), time.Duration(debounceMs)*time.Millisecond)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, jsonl or yaml")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to write records into")
	cmd.Flags().StringSliceVar(&dirs, "dir", nil, "Additional directory to watch (repeatable)")
	cmd.Flags().IntVar(&debounceMs, "debounce", 100, "Debounce interval in milliseconds")
	return cmd
}

func runWatch(ctx context.Context, template string, dirs []string, w writer.Writer, outputDir string, opts pipeline.RunOptions, debounce time.Duration) error {
	rw, err := watcher.New(getLogger())
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	defer rw.Close()

	for _, dir := range dirs {
		if err := rw.AddRecursive(dir); err != nil {
			return errors.Wrapf(err, "failed to watch %s", dir)
		}
	}

	p := newPipeline()
	rebuild := func() {
		result, err := p.Run(template, opts)
		if err != nil {
			reportError(err)
			return
		}
		if err := writeOutputs(outputDir, w, result, opts, true); err != nil {
			reportError(err)
		}
	}

	rebuild()
	log.Infof("Watching %d director(ies) for changes", len(dirs))

	return rw.Watch(ctx, debounce, func(paths []string) {
		for _, path := range paths {
			p.Loader().Invalidate(path)
			log.Debugf("Changed: %s", path)
		}
		rebuild()
	})
}
