// Package casework runs the two case workflows: answering a chat message
// with the tool-using agent and analyzing an uploaded document.
package casework

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jadenj13/caseai/internals/analysis"
	"github.com/jadenj13/caseai/internals/chat"
	"github.com/jadenj13/caseai/internals/extract"
	"github.com/jadenj13/caseai/internals/store"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

const (
	DefaultWorkers        = 4
	DefaultTimeout        = 2 * time.Minute
	DefaultMaxUploadBytes = 50 << 20
)

type Store interface {
	AppendMessage(ctx context.Context, caseID string, role chat.Role, content string) (store.Message, error)
	RecentTurns(ctx context.Context, caseID string, limit int) ([]chat.Turn, error)
	CreateDocument(ctx context.Context, doc store.Document) (store.Document, error)
	GetDocument(ctx context.Context, id string) (store.Document, error)
	SetDocumentStatus(ctx context.Context, id string, status store.DocumentStatus) error
	SaveAnalysis(ctx context.Context, id, extractedText, summary string, keyPoints []string) error
}

type Files interface {
	Save(caseID string, data []byte, ext string) (name, path string, err error)
	Read(path string) ([]byte, error)
	Remove(path string) error
}

type Conversation interface {
	Run(ctx context.Context, turns []chat.Turn) (string, error)
}

type DocumentAnalyzer interface {
	Analyze(ctx context.Context, text string) (analysis.Result, error)
}

type Upload struct {
	Filename string
	MimeType string
	Data     []byte
}

type Worker struct {
	store    Store
	files    Files
	agent    Conversation
	analyzer DocumentAnalyzer
	log      *slog.Logger

	pool           *semaphore.Weighted
	timeout        time.Duration
	historyLimit   int
	maxUploadBytes int64
}

type Option func(*Worker)

// WithWorkers bounds how many model-backed workflows run at once.
func WithWorkers(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.pool = semaphore.NewWeighted(int64(n))
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.timeout = d
		}
	}
}

func WithHistoryLimit(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.historyLimit = n
		}
	}
}

func WithMaxUploadBytes(n int64) Option {
	return func(w *Worker) {
		if n > 0 {
			w.maxUploadBytes = n
		}
	}
}

func NewWorker(st Store, files Files, agent Conversation, analyzer DocumentAnalyzer, log *slog.Logger, opts ...Option) *Worker {
	if log == nil {
		log = slog.Default()
	}
	w := &Worker{
		store:          st,
		files:          files,
		agent:          agent,
		analyzer:       analyzer,
		log:            log,
		pool:           semaphore.NewWeighted(DefaultWorkers),
		timeout:        DefaultTimeout,
		historyLimit:   store.DefaultHistoryLimit,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// HandleMessage records text as the user's turn in caseID, runs the agent
// over the recent history and records its answer.
func (w *Worker) HandleMessage(ctx context.Context, caseID, text string) (string, error) {
	w.log.Info("handling message", "case", caseID, "chars", len(text))

	if _, err := w.store.AppendMessage(ctx, caseID, chat.RoleUser, text); err != nil {
		return "", err
	}

	turns, err := w.store.RecentTurns(ctx, caseID, w.historyLimit)
	if err != nil {
		return "", err
	}

	var answer string
	err = w.withSlot(ctx, func(ctx context.Context) error {
		var err error
		answer, err = w.agent.Run(ctx, turns)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("agent run: %w", err)
	}

	if _, err := w.store.AppendMessage(ctx, caseID, chat.RoleAssistant, answer); err != nil {
		return "", err
	}
	return answer, nil
}

// HandleDocument stores an upload for caseID and analyzes it. The returned
// document is valid whenever it has an ID, even if analysis failed.
func (w *Worker) HandleDocument(ctx context.Context, caseID string, up Upload) (store.Document, error) {
	if !extract.Supported(up.MimeType) {
		return store.Document{}, fmt.Errorf("%s (%s): %w", up.Filename, up.MimeType, ErrUnsupportedType)
	}
	if int64(len(up.Data)) > w.maxUploadBytes {
		return store.Document{}, fmt.Errorf("%s is %d bytes, limit %d: %w", up.Filename, len(up.Data), w.maxUploadBytes, ErrTooLarge)
	}

	name, path, err := w.files.Save(caseID, up.Data, filepath.Ext(up.Filename))
	if err != nil {
		return store.Document{}, fmt.Errorf("save upload: %w", err)
	}

	doc, err := w.store.CreateDocument(ctx, store.Document{
		CaseID:           caseID,
		Filename:         name,
		OriginalFilename: up.Filename,
		MimeType:         up.MimeType,
		FileSize:         int64(len(up.Data)),
		FilePath:         path,
	})
	if err != nil {
		if rerr := w.files.Remove(path); rerr != nil {
			w.log.Error("failed to remove orphaned upload", "path", path, "err", rerr)
		}
		return store.Document{}, err
	}
	w.log.Info("document uploaded", "case", caseID, "doc", doc.ID, "file", up.Filename, "bytes", doc.FileSize)

	analyzed, err := w.AnalyzeDocument(ctx, doc.ID)
	if err != nil {
		doc.Status = store.StatusFailed
		return doc, err
	}
	return analyzed, nil
}

// AnalyzeDocument extracts and summarizes a stored document. Any hard
// failure leaves the record in status failed.
func (w *Worker) AnalyzeDocument(ctx context.Context, docID string) (store.Document, error) {
	doc, err := w.store.GetDocument(ctx, docID)
	if err != nil {
		return store.Document{}, err
	}

	if err := w.store.SetDocumentStatus(ctx, docID, store.StatusAnalyzing); err != nil {
		return store.Document{}, err
	}

	if err := w.analyze(ctx, doc); err != nil {
		w.log.Error("document analysis failed", "doc", docID, "err", err)
		// The caller's context may already be gone; the status still has to land.
		if serr := w.store.SetDocumentStatus(context.WithoutCancel(ctx), docID, store.StatusFailed); serr != nil {
			w.log.Error("failed to mark document failed", "doc", docID, "err", serr)
		}
		return store.Document{}, err
	}

	return w.store.GetDocument(ctx, docID)
}

func (w *Worker) analyze(ctx context.Context, doc store.Document) error {
	data, err := w.files.Read(doc.FilePath)
	if err != nil {
		return err
	}

	extracted := extract.Extract(data, doc.MimeType)
	if extracted.Text == "" {
		w.log.Warn("no text extracted", "doc", doc.ID, "mime", doc.MimeType)
	}

	var res analysis.Result
	err = w.withSlot(ctx, func(ctx context.Context) error {
		var err error
		res, err = w.analyzer.Analyze(ctx, extracted.Text)
		return err
	})
	if err != nil {
		return err
	}

	if err := w.store.SaveAnalysis(ctx, doc.ID, extracted.Text, res.Summary, res.KeyPoints); err != nil {
		return err
	}
	w.log.Info("document analyzed", "doc", doc.ID, "key_points", len(res.KeyPoints))
	return nil
}

// withSlot runs fn on a pool slot under the per-call timeout.
func (w *Worker) withSlot(ctx context.Context, fn func(context.Context) error) error {
	if err := w.pool.Acquire(ctx, 1); err != nil {
		return err
	}
	defer w.pool.Release(1)

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	return fn(ctx)
}
