package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jadenj13/caseai/internals/analysis"
	"github.com/jadenj13/caseai/internals/chat"
	"github.com/jadenj13/caseai/internals/extract"
)

var analyzeMime string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Summarize one document and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeMime, "mime", "", "media type of the file (default: from extension)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	path := args[0]
	mimeType := analyzeMime
	if mimeType == "" {
		mimeType = mimeFromExt(filepath.Ext(path))
	}
	if !extract.Supported(mimeType) {
		return fmt.Errorf("%s: unsupported media type %q", path, mimeType)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if int64(len(data)) > cfg.MaxUploadBytes() {
		return fmt.Errorf("%s is larger than %d MB", path, cfg.MaxUploadSizeMB)
	}

	doc := extract.Extract(data, mimeType)
	log.Info("extracted", "file", path, "mime", doc.SourceMimeType, "chars", len(doc.Text))

	analyzer := analysis.NewAnalyzer(newAgent(cfg, log), chat.SystemPrompt, cfg.AnalysisMaxTokens, log)
	res, err := analyzer.Analyze(ctx, doc.Text)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func mimeFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extract.MimePDF
	case ".txt":
		return extract.MimeText
	case ".docx":
		return extract.MimeDOCX
	case ".doc":
		return extract.MimeDOC
	}
	return mime.TypeByExtension(ext)
}
