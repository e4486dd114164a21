package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"doc-rater/internal/app"
	"doc-rater/internal/chunker"
	"doc-rater/internal/extract"
	"doc-rater/internal/terms"
)

var scanTermsFile string

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Count flagged terms in a document",
	Long:  `Counts term matches per chunk and prints the document totals as JSON. Uses the built-in lists unless --terms names a YAML file.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanTermsFile, "terms", "t", "", "YAML term list file")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	content, mimeType, err := readDocument(args[0])
	if err != nil {
		return err
	}

	lists := terms.Defaults()
	if scanTermsFile != "" {
		if lists, err = terms.ParseFile(scanTermsFile); err != nil {
			return err
		}
	}
	scanner := terms.NewScanner(terms.Normalize(lists))

	opts := app.PipelineOptions(cfg)
	res, err := extract.Extract(content, mimeType, opts.Extract)
	if err != nil {
		return err
	}
	chunks := chunker.ChunkText(res.Text, opts.Chunking)
	counts := make([]terms.Result, len(chunks))
	for i, c := range chunks {
		page := c.PageStart
		counts[i] = scanner.Count(c.Text, &page)
	}
	log.Debug("scan finished", "chunks", len(chunks))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(terms.AggregateTermCounts(counts))
}
