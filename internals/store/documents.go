package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	StatusUploaded  DocumentStatus = "uploaded"
	StatusAnalyzing DocumentStatus = "analyzing"
	StatusAnalyzed  DocumentStatus = "analyzed"
	StatusFailed    DocumentStatus = "failed"
)

type Document struct {
	ID               string
	CaseID           string
	Filename         string
	OriginalFilename string
	MimeType         string
	FileSize         int64
	FilePath         string
	Status           DocumentStatus
	ExtractedText    string
	Summary          string
	KeyPoints        []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const documentColumns = `id, case_id, filename, original_filename, mime_type, file_size, file_path,
  status, extracted_text, summary, key_points, created_at, updated_at`

// CreateDocument inserts doc with status uploaded, assigning an ID when empty.
func (s *Store) CreateDocument(ctx context.Context, doc Document) (Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := s.now().UTC()
	doc.Status = StatusUploaded
	doc.CreatedAt, doc.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents(`+documentColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.CaseID, doc.Filename, doc.OriginalFilename, doc.MimeType, doc.FileSize, doc.FilePath,
		string(doc.Status), doc.ExtractedText, doc.Summary, joinKeyPoints(doc.KeyPoints),
		now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return doc, err
}

func (s *Store) ListDocuments(ctx context.Context, caseID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE case_id = ? ORDER BY created_at DESC`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *Store) SetDocumentStatus(ctx context.Context, id string, status DocumentStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), s.now().UTC().UnixNano(), id,
	)
	if err != nil {
		return fmt.Errorf("set document status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveAnalysis stores the extraction and analysis output and marks the
// document analyzed.
func (s *Store) SaveAnalysis(ctx context.Context, id, extractedText, summary string, keyPoints []string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET extracted_text = ?, summary = ?, key_points = ?, status = ?, updated_at = ? WHERE id = ?`,
		extractedText, summary, joinKeyPoints(keyPoints), string(StatusAnalyzed), s.now().UTC().UnixNano(), id,
	)
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(r rowScanner) (Document, error) {
	var (
		doc              Document
		status, points   string
		created, updated int64
	)
	err := r.Scan(&doc.ID, &doc.CaseID, &doc.Filename, &doc.OriginalFilename, &doc.MimeType, &doc.FileSize,
		&doc.FilePath, &status, &doc.ExtractedText, &doc.Summary, &points, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, err
		}
		return Document{}, fmt.Errorf("scan document: %w", err)
	}
	doc.Status = DocumentStatus(status)
	doc.KeyPoints = splitKeyPoints(points)
	doc.CreatedAt = time.Unix(0, created).UTC()
	doc.UpdatedAt = time.Unix(0, updated).UTC()
	return doc, nil
}

// Key points are stored newline-joined.
func joinKeyPoints(points []string) string {
	return strings.Join(points, "\n")
}

func splitKeyPoints(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
