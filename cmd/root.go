package cmd

import (
	"github.com/grovetools/promptgen/pkg/pipeline"
	"github.com/grovetools/promptgen/pkg/settings"
	"github.com/spf13/cobra"
)

var (
	rootCmd     *cobra.Command
	appSettings *settings.Settings

	settingsFile string
	logLevel     string
	logFormat    string
	verbose      bool
)

func init() {
	rootCmd = &cobra.Command{
		Use:           "promptgen",
		Short:         "Resolve YAML prompt templates into seeded prompt records.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if settingsFile != "" {
				appSettings, err = settings.LoadFile(settingsFile)
			} else {
				appSettings, err = settings.Load()
			}
			if err != nil {
				return err
			}

			level, format := appSettings.Log.Level, appSettings.Log.Format
			if cmd.Flags().Changed("log-level") {
				level = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				format = logFormat
			}
			if verbose {
				level = "debug"
			}
			return configureLogger(log, level, format)
		},
	}

	rootCmd.PersistentFlags().StringVar(&settingsFile, "config", "", "Settings file (default: nearest promptgen.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add commands
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newThemesCmd())
	rootCmd.AddCommand(newSchemaCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newInitCmd())
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		reportError(err)
	}
	return err
}

// newPipeline builds a pipeline configured from the loaded settings.
func newPipeline() *pipeline.Pipeline {
	var opts []pipeline.Option
	if appSettings != nil {
		opts = append(opts,
			pipeline.WithThemeRoots(appSettings.Themes.Roots...),
			pipeline.WithKnownStyles(appSettings.Themes.Styles...),
			pipeline.WithFallbackDirs(appSettings.Themes.FallbackDirs...),
		)
	}
	return pipeline.New(getLogger(), opts...)
}
