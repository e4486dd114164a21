package main

import (
	"github.com/spf13/cobra"

	"doc-rater/internal/app"
	"doc-rater/internal/chunker"
	"doc-rater/internal/extract"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Extract a document and print its chunk boundaries",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunk,
}

func init() {
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	content, mimeType, err := readDocument(args[0])
	if err != nil {
		return err
	}
	opts := app.PipelineOptions(cfg)
	res, err := extract.Extract(content, mimeType, opts.Extract)
	if err != nil {
		return err
	}

	chunks := chunker.ChunkText(res.Text, opts.Chunking)
	cmd.Printf("%s: %d pages, %d chunks\n", args[0], res.PageCount, len(chunks))
	for _, c := range chunks {
		cmd.Printf("  #%-4d pages %d-%d  ~%d tokens  %d chars\n", c.Index, c.PageStart, c.PageEnd, c.TokenCount, len([]rune(c.Text)))
	}
	return nil
}
