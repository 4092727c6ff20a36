package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"tsh/internal/config"
	"tsh/internal/shell"
)

var (
	cfgPath  string
	verbose  bool
	noPrompt bool
	showPath bool
)

var exitCode int

func loadConfig(fsys afero.Fs) (*config.Configuration, error) {
	cfg, err := config.Load(fsys, cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("couldn't load config", slog.String("path", cfgPath))
	}
	if err != nil {
		return nil, err
	}

	if verbose {
		cfg.Verbose = true
	}
	if noPrompt {
		cfg.EmitPrompt = false
	}
	if showPath {
		cfg.ShowPath = true
	}
	return cfg, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// rootCmd runs the interactive shell.
var rootCmd = &cobra.Command{
	Use:   "tsh",
	Short: "A tiny job-control shell",
	Long: `tsh reads command lines, runs each pipeline as its own process group
and lets you move jobs between the foreground and the background.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fsys := afero.NewOsFs()
		cfg, err := loadConfig(fsys)
		if err != nil {
			return err
		}

		logger := newLogger(cfg.Verbose)
		slog.SetDefault(logger)

		sh, err := shell.New(shell.Options{
			Config:      cfg,
			Fs:          fsys,
			Logger:      logger,
			Stdin:       os.Stdin,
			Stdout:      os.Stdout,
			Stderr:      os.Stderr,
			Interactive: true,
		})
		if err != nil {
			return err
		}

		exitCode = sh.Run(cmd.Context())
		return nil
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&cfgPath, "config", "", "configuration file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "print additional diagnostic information")
	flags.BoolVarP(&noPrompt, "no-prompt", "p", false, "do not emit a command prompt")
	flags.BoolVarP(&showPath, "path", "a", false, "show the working directory in the prompt")
}
