package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jadenj13/caseai/internals/chat"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecentTurnsReturnsWindowOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := range 25 {
		role := chat.RoleUser
		if i%2 == 1 {
			role = chat.RoleAssistant
		}
		_, err := s.AppendMessage(ctx, "case-1", role, fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}
	_, err := s.AppendMessage(ctx, "case-2", chat.RoleUser, "other case")
	require.NoError(t, err)

	turns, err := s.RecentTurns(ctx, "case-1", 20)
	require.NoError(t, err)

	// m5 is an assistant message, so the window starts at m6.
	require.Len(t, turns, 19)
	require.Equal(t, chat.UserText("m6"), turns[0])
	require.Equal(t, chat.UserText("m24"), turns[len(turns)-1])
	require.NoError(t, chat.ValidatePairing(turns))
}

func TestRecentTurnsEmptyCase(t *testing.T) {
	turns, err := openTestStore(t).RecentTurns(context.Background(), "nobody", 20)
	require.NoError(t, err)
	require.Empty(t, turns)
}

func TestListAndDeleteMessages(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := s.AppendMessage(ctx, "c", chat.RoleUser, "hello")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, "c", chat.RoleAssistant, "hi")
	require.NoError(t, err)

	msgs, err := s.ListMessages(ctx, "c")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "hello", msgs[0].Content)
	require.Equal(t, chat.RoleAssistant, msgs[1].Role)

	require.NoError(t, s.DeleteMessage(ctx, "c", first.ID))
	require.ErrorIs(t, s.DeleteMessage(ctx, "c", first.ID), ErrNotFound)

	msgs, err = s.ListMessages(ctx, "c")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestAppendMessageRejectsUnknownRole(t *testing.T) {
	_, err := openTestStore(t).AppendMessage(context.Background(), "c", "system", "x")
	require.Error(t, err)
}

func TestDocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	doc, err := s.CreateDocument(ctx, Document{
		CaseID:           "case-1",
		Filename:         "abc.pdf",
		OriginalFilename: "contract.pdf",
		MimeType:         "application/pdf",
		FileSize:         42,
		FilePath:         "/uploads/case-1/abc.pdf",
	})
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID)
	require.Equal(t, StatusUploaded, doc.Status)

	require.NoError(t, s.SetDocumentStatus(ctx, doc.ID, StatusAnalyzing))
	got, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, StatusAnalyzing, got.Status)

	require.NoError(t, s.SaveAnalysis(ctx, doc.ID, "full text", "A contract.", []string{"term", "price"}))
	got, err = s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, StatusAnalyzed, got.Status)
	require.Equal(t, "full text", got.ExtractedText)
	require.Equal(t, "A contract.", got.Summary)
	require.Equal(t, []string{"term", "price"}, got.KeyPoints)
	require.Equal(t, "contract.pdf", got.OriginalFilename)
	require.Equal(t, int64(42), got.FileSize)

	docs, err := s.ListDocuments(ctx, "case-1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestDocumentNotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.GetDocument(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.SetDocumentStatus(ctx, "missing", StatusFailed), ErrNotFound)
	require.ErrorIs(t, s.SaveAnalysis(ctx, "missing", "", "", nil), ErrNotFound)
}
