package main

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/cobra"

	"doc-rater/internal/app"
	"doc-rater/internal/pipeline"
	"doc-rater/internal/rating"
	"doc-rater/internal/store"
)

var rateDBPath string

var rateCmd = &cobra.Command{
	Use:   "rate [file]",
	Short: "Rate a document end to end against a local SQLite store",
	Long:  `Runs extraction, classification, rubric mapping and aggregation in-process. Needs OPENAI_API_KEY and a reasoning provider key.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRate,
}

func init() {
	rateCmd.Flags().StringVar(&rateDBPath, "db", "", "SQLite database path (defaults to SQLITE_PATH)")
	rootCmd.AddCommand(rateCmd)
}

func runRate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	content, mimeType, err := readDocument(args[0])
	if err != nil {
		return err
	}

	path := cfg.SQLitePath
	if rateDBPath != "" {
		path = rateDBPath
	}
	st, err := store.NewSQLite(ctx, path)
	if err != nil {
		return err
	}
	defer st.Close()

	orch, _, c, err := app.BuildPipeline(cfg, log, st)
	if err != nil {
		return err
	}
	defer c.Close()

	doc, err := st.CreateDocument(ctx, store.NewDocument{
		Filename: filepath.Base(args[0]),
		MimeType: mimeType,
		Content:  content,
	})
	if err != nil {
		return err
	}
	if err := orch.Process(ctx, pipeline.Request{DocumentID: doc.ID, Content: content, MimeType: mimeType}); err != nil {
		return err
	}

	res, err := st.GetDocumentResult(ctx, doc.ID)
	if err != nil {
		return err
	}
	cmd.Printf("%s: %d (%s), confidence %.2f\n", args[0], res.OverallRating, rating.Name(res.OverallRating), res.Confidence)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
