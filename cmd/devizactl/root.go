package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/deviza/internal/analysis"
	"github.com/opensource-finance/deviza/internal/corpus"
	"github.com/opensource-finance/deviza/internal/domain"
	"github.com/opensource-finance/deviza/internal/ingest"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	Lang     string
	JSON     bool
	Patterns string
	Verbose  bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "devizactl",
		Short:   "Offline clause analysis for foreign currency loan contracts",
		Long:    "devizactl runs language detection, clause extraction and precedent\nmatching on local files against the built-in CJEU corpus.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.Lang, "lang", "", "document language (hu, en, cs, pl); detected when empty")
	pf.BoolVar(&opts.JSON, "json", false, "print JSON instead of text")
	pf.StringVar(&opts.Patterns, "patterns", "", "YAML pattern pack merged into the built-in table")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(
		newDetectCmd(opts),
		newExtractCmd(opts),
		newAnalyzeCmd(opts),
		newCasesCmd(opts),
	)
	return cmd
}

// newService builds an offline service on the static seed corpus.
func newService(ctx context.Context, opts *rootOptions) (*analysis.Service, error) {
	cfg := domain.DefaultConfig()
	cfg.Extraction.PatternsFile = opts.Patterns
	return analysis.NewService(ctx, *cfg, analysis.Deps{
		Provider: corpus.NewStatic(nil),
	})
}

// loadDocument parses a file into a document with the --lang override.
func loadDocument(path string, opts *rootOptions) (*domain.Document, error) {
	parsed, err := ingest.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return &domain.Document{
		Title:    parsed.Title,
		Source:   parsed.SourcePath,
		Text:     parsed.Text,
		Language: domain.ParseLanguage(opts.Lang),
	}, nil
}
