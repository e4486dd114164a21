package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"doc-rater/internal/app"
	"doc-rater/internal/config"
	"doc-rater/internal/extract"
	"doc-rater/internal/logger"
)

var (
	cfg config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "ratingctl",
	Short:        "Rate documents against the content rating scale",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := app.LoadEnv()
		if err != nil {
			return err
		}
		cfg = loaded
		// Logs go to stderr so command output stays machine readable.
		log = logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel)
		return nil
	},
}

// readDocument loads a file and guesses its type from the extension.
func readDocument(path string) ([]byte, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	mimeType := extract.MimePlain
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		mimeType = extract.MimePDF
	}
	return content, mimeType, nil
}
