// Package main provides the swcgen binary entry point.
// swcgen compiles natural-language automotive requirements into an
// AUTOSAR software architecture model and keeps that model consistent.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "swcgen"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	project    string
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "AUTOSAR requirement-to-model compiler",
		Long: `swcgen turns natural-language automotive requirements into an AUTOSAR
software architecture model.

It provides:
- Requirement extraction from text, markdown, HTML and CSV inputs
- Synthesis of components, interfaces, ports, runnables and compositions
- A persistent project graph with validation, cascading deletes and renames
- Export of the graph as JSON, YAML, Turtle or N-Triples`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVarP(&opts.project, "project", "p", "default", "Project name")

	cmd.AddCommand(
		parseCmd(opts),
		generateCmd(opts),
		compileCmd(opts),
		validateCmd(opts),
		deleteCmd(opts),
		renameCmd(opts),
		exportCmd(opts),
		listCmd(opts),
		watchCmd(opts),
		initCmd(opts),
	)

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// newLogger configures logging for one command run.
func newLogger(w io.Writer, logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// app builds the App for a command, logging to the command's stderr.
func (o *globalOptions) app(cmd *cobra.Command) (*App, error) {
	logger := newLogger(cmd.ErrOrStderr(), o.logLevel)
	slog.SetDefault(logger)
	return NewApp(o.configPath, logger)
}
