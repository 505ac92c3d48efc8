package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/jward/treeguides"
	"github.com/jward/treeguides/internal/config"
	"github.com/jward/treeguides/internal/store"
	"github.com/jward/treeguides/scripts"
)

var (
	flagDB         string
	flagFormat     string
	flagConfig     string
	flagScriptsDir string
	flagVerbose    int
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "treeguides",
	Short:         "Widget tree indent guides for source files",
	Long:          "Treeguides outlines widget constructions with Risor scripts over tree-sitter and keeps guide lines in step with edits.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		// Logs go to stderr; serve needs stdout for the protocol.
		commonlog.Configure(flagVerbose, nil)
		return nil
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "outline cache path (default: cache_path from config, or no cache)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "JSON configuration file")
	rootCmd.PersistentFlags().StringVar(&flagScriptsDir, "scripts-dir", "", "load scripts from disk path instead of embedded")
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "log verbosity (repeat for more)")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(outlineCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replCmd)
}

// loadConfig reads --config, or returns the defaults.
func loadConfig() (config.Config, error) {
	if flagConfig == "" {
		return config.Default(), nil
	}
	f, err := os.Open(flagConfig)
	if err != nil {
		return config.Config{}, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()
	cfg, err := config.LoadFromJSON(f)
	if err != nil {
		return config.Config{}, fmt.Errorf("reading config %s: %w", flagConfig, err)
	}
	return cfg, nil
}

// resolveDBPath returns the cache path from the --db flag or the config.
func resolveDBPath(cfg config.Config) string {
	if flagDB != "" {
		return flagDB
	}
	return cfg.CachePath
}

// session is the analysis state shared by the one-shot commands.
type session struct {
	cfg      config.Config
	analyzer *treeguides.Analyzer
	store    *store.Store
}

func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	opts := []treeguides.AnalyzerOption{
		treeguides.WithLanguages(cfg.Languages),
		treeguides.WithWorkers(1),
	}
	// Script source: --scripts-dir overrides embedded FS.
	if flagScriptsDir == "" {
		opts = append(opts, treeguides.WithScriptsFS(scripts.FS))
	}

	s := &session{cfg: cfg}
	if dbPath := resolveDBPath(cfg); dbPath != "" {
		st, err := store.NewStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("opening cache: %w", err)
		}
		if err := st.Migrate(); err != nil {
			st.Close()
			return nil, fmt.Errorf("migrating cache: %w", err)
		}
		s.store = st
		opts = append(opts, treeguides.WithCache(st))
	}

	s.analyzer, err = treeguides.NewAnalyzer(nil, flagScriptsDir, opts...)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating analyzer: %w", err)
	}
	return s, nil
}

func (s *session) Close() {
	if s.analyzer != nil {
		s.analyzer.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
}
