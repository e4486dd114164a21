package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-rater/internal/terms"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		scanTermsFile = ""
	}()
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestChunkCmd(t *testing.T) {
	path := writeFile(t, "story.txt", "A quiet story about a garden.")

	out, err := execute(t, "chunk", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 pages, 1 chunks")
	assert.Contains(t, out, "pages 1-1")
}

func TestChunkCmdRejectsBlankDocument(t *testing.T) {
	path := writeFile(t, "blank.txt", "   \n\t ")

	_, err := execute(t, "chunk", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text content")
}

func TestScanCmdDefaults(t *testing.T) {
	path := writeFile(t, "story.txt", "Damn, he shot the gun. DAMN.")

	out, err := execute(t, "scan", path)
	require.NoError(t, err)

	var res terms.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 4, res.TotalCount)
	assert.Equal(t, 2, res.ByCategory["profanity"])
	assert.Equal(t, 2, res.ByCategory["violence"])
}

func TestScanCmdTermsFile(t *testing.T) {
	path := writeFile(t, "story.txt", "The dragon breathed fire on the dragon keeper.")
	list := writeFile(t, "terms.yaml", "lists:\n  - name: Fantasy\n    category: fantasy\n    terms: [dragon]\n")

	out, err := execute(t, "scan", "--terms", list, path)
	require.NoError(t, err)

	var res terms.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.TotalCount)
	assert.Equal(t, map[string]int{"fantasy": 2}, res.ByCategory)
}

func TestCachePurgeNeedsRedis(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")

	_, err := execute(t, "cache", "purge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_ADDR")
}

func TestReadDocumentDetectsPDF(t *testing.T) {
	path := writeFile(t, "report.PDF", "%PDF-1.4")

	_, mimeType, err := readDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mimeType)
}
