// Package extract turns uploaded file bytes into plain text for the model.
//
// Extraction is best effort: every failure degrades to an empty string and
// nothing in this package returns an error or panics to the caller.
package extract

import (
	"mime"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

const (
	MimePDF  = "application/pdf"
	MimeText = "text/plain"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC  = "application/msword"
)

var supported = map[string]bool{
	MimePDF:  true,
	MimeText: true,
	MimeDOCX: true,
	MimeDOC:  true,
}

type Document struct {
	Text           string
	SourceMimeType string
}

// Supported reports whether mimeType has an extraction strategy.
func Supported(mimeType string) bool {
	return supported[normalize(mimeType)]
}

func Extract(data []byte, mimeType string) Document {
	return Document{Text: Text(data, mimeType), SourceMimeType: mimeType}
}

func Text(data []byte, mimeType string) string {
	switch normalize(mimeType) {
	case MimePDF:
		return pdfText(data)
	case MimeText:
		return plainText(data)
	case MimeDOCX, MimeDOC:
		return wordText(data)
	default:
		return ""
	}
}

// normalize drops media type parameters such as "; charset=utf-8".
func normalize(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// plainText decodes UTF-8, replacing invalid sequences with U+FFFD.
func plainText(data []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(out)
}
