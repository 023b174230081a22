package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docrag/config"
	"docrag/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	verbose bool
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "Document RAG - Ingest a markdown knowledge base and answer questions over it",
	Long: `docrag loads a directory of markdown documents, splits them at headings into
chunks that remember their source document, indexes the chunks and resolves search
hits back to whole documents for answer generation.

Example usage:
  docrag index ./docs                  # Load, chunk and index a knowledge base
  docrag stats                         # Show corpus statistics
  docrag query -q "redis persistence"  # Find the most relevant documents
  docrag ask -q "how does AOF work"    # Answer with a chat model`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}
		rootDir, err = filepath.Abs(rootDir)
		if err != nil {
			return fmt.Errorf("invalid root directory: %w", err)
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, err = logging.New(cfg.Logging.Level, os.Stderr)
		if err != nil {
			return err
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "workspace directory holding .docrag (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

func GetLogger() *slog.Logger {
	return logging.OrDiscard(logger)
}

// corpusPath returns the corpus directory, resolving relative paths against
// the workspace directory.
func corpusPath(arg string) string {
	path := arg
	if path == "" {
		path = GetConfig().Corpus.DataPath
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(GetRootDir(), path)
	}
	return filepath.Clean(path)
}
