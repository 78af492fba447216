package extract

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	mainDocumentPart = "word/document.xml"
	maxPartBytes     = 64 << 20
)

var (
	reTag   = regexp.MustCompile(`<[^>]+>`)
	reSpace = regexp.MustCompile(`\s+`)
)

// wordText opens the file as an OOXML package and strips the markup from the
// main document part. Legacy binary .doc files are not zip containers and
// yield "".
func wordText(data []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	f, err := zr.Open(mainDocumentPart)
	if err != nil {
		return ""
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxPartBytes))
	if err != nil || !utf8.Valid(raw) {
		return ""
	}

	text := reTag.ReplaceAllString(string(raw), " ")
	text = reSpace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
