package slack

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/stretchr/testify/require"

	"github.com/jadenj13/caseai/internals/casework"
	"github.com/jadenj13/caseai/internals/store"
)

type fakeWorker struct {
	mu       sync.Mutex
	messages []string // caseID + "|" + text
	uploads  []casework.Upload
	cases    []string
	reply    string
	msgErr   error
	doc      store.Document
	docErr   error
}

func (f *fakeWorker) HandleMessage(_ context.Context, caseID, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, caseID+"|"+text)
	return f.reply, f.msgErr
}

func (f *fakeWorker) HandleDocument(_ context.Context, caseID string, up casework.Upload) (store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cases = append(f.cases, caseID)
	f.uploads = append(f.uploads, up)
	return f.doc, f.docErr
}

type fakeSlack struct {
	mu    sync.Mutex
	posts []url.Values
	srv   *httptest.Server
}

func newFakeSlack(t *testing.T) *fakeSlack {
	t.Helper()
	fs := &fakeSlack{}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/chat.postMessage":
			require.NoError(t, r.ParseForm())
			fs.mu.Lock()
			fs.posts = append(fs.posts, r.Form)
			fs.mu.Unlock()
			_, _ = io.WriteString(w, `{"ok":true,"channel":"C1","ts":"2.0"}`)
		case r.URL.Path == "/files.info":
			_, _ = io.WriteString(w, `{"ok":true,"file":{"id":"F1","name":"lease.txt","mimetype":"text/plain","size":11,`+
				`"url_private_download":"`+fs.srv.URL+`/download/F1"}}`)
		case r.URL.Path == "/download/F1":
			require.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "text/plain")
			_, _ = io.WriteString(w, "lease terms")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(fs.srv.Close)
	return fs
}

func newTestHandler(t *testing.T, fs *fakeSlack, w CaseWorker) *Handler {
	t.Helper()
	api := slack.New("xoxb-test", slack.OptionAPIURL(fs.srv.URL+"/"))
	return &Handler{
		client:       api,
		botID:        "UBOT",
		worker:       w,
		notifier:     NewNotifier(api),
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxFileBytes: 1 << 20,
	}
}

func deliver(h *Handler, data any) {
	h.handleCallback(context.Background(), slackevents.EventsAPIInnerEvent{Data: data})
	h.wg.Wait()
}

func TestDirectMessageRepliesInThread(t *testing.T) {
	fs := newFakeSlack(t)
	w := &fakeWorker{reply: "File within 21 days."}
	h := newTestHandler(t, fs, w)

	deliver(h, &slackevents.MessageEvent{
		Channel: "D1", ChannelType: "im", User: "U1", Text: "When do I answer?", TimeStamp: "100.1",
	})

	require.Equal(t, []string{"100.1|When do I answer?"}, w.messages)
	require.Len(t, fs.posts, 1)
	require.Equal(t, "D1", fs.posts[0].Get("channel"))
	require.Equal(t, "100.1", fs.posts[0].Get("thread_ts"))
	require.Equal(t, "File within 21 days.", fs.posts[0].Get("text"))
}

func TestAppMentionUsesThreadAsCase(t *testing.T) {
	fs := newFakeSlack(t)
	w := &fakeWorker{reply: "ok"}
	h := newTestHandler(t, fs, w)

	deliver(h, &slackevents.AppMentionEvent{
		Channel: "C1", User: "U1", Text: "<@UBOT> summarize the case", TimeStamp: "200.2", ThreadTimeStamp: "150.0",
	})

	require.Equal(t, []string{"150.0|summarize the case"}, w.messages)
	require.Equal(t, "150.0", fs.posts[0].Get("thread_ts"))
}

func TestBotAndChannelMessagesIgnored(t *testing.T) {
	fs := newFakeSlack(t)
	w := &fakeWorker{}
	h := newTestHandler(t, fs, w)

	deliver(h, &slackevents.MessageEvent{Channel: "D1", ChannelType: "im", BotID: "B1", Text: "loop", TimeStamp: "1.0"})
	deliver(h, &slackevents.MessageEvent{Channel: "D1", ChannelType: "im", User: "UBOT", Text: "self", TimeStamp: "1.1"})
	deliver(h, &slackevents.MessageEvent{Channel: "C1", ChannelType: "channel", User: "U1", Text: "chatter", TimeStamp: "1.2"})

	require.Empty(t, w.messages)
	require.Empty(t, fs.posts)
}

func TestWorkerErrorPostsApology(t *testing.T) {
	fs := newFakeSlack(t)
	w := &fakeWorker{msgErr: errors.New("provider unavailable")}
	h := newTestHandler(t, fs, w)

	deliver(h, &slackevents.MessageEvent{Channel: "D1", ChannelType: "im", User: "U1", Text: "hi", TimeStamp: "1.0"})

	require.Len(t, fs.posts, 1)
	require.Equal(t, replyOnError, fs.posts[0].Get("text"))
}

const fileShareEvent = `{
  "token": "tok",
  "team_id": "T1",
  "api_app_id": "A1",
  "type": "event_callback",
  "event_id": "Ev1",
  "event_time": 1700000000,
  "event": {
    "type": "message",
    "subtype": "file_share",
    "channel": "C1",
    "channel_type": "channel",
    "user": "U1",
    "text": "",
    "ts": "300.0",
    "thread_ts": "250.0",
    "upload": false,
    "files": [{"id": "F1", "name": "lease.txt", "mimetype": "text/plain", "size": 11}]
  }
}`

func TestSharedFileIsAnalyzed(t *testing.T) {
	fs := newFakeSlack(t)
	w := &fakeWorker{doc: store.Document{
		OriginalFilename: "lease.txt",
		Summary:          "Twelve month lease.",
		KeyPoints:        []string{"Deposit refundable"},
		Status:           store.StatusAnalyzed,
	}}
	h := newTestHandler(t, fs, w)

	ev, err := slackevents.ParseEvent(json.RawMessage(fileShareEvent), slackevents.OptionNoVerifyToken())
	require.NoError(t, err)
	h.handleCallback(context.Background(), ev.InnerEvent)
	h.wg.Wait()

	require.Equal(t, []string{"250.0"}, w.cases)
	require.Len(t, w.uploads, 1)
	require.Equal(t, "lease.txt", w.uploads[0].Filename)
	require.Equal(t, "text/plain", w.uploads[0].MimeType)
	require.Equal(t, "lease terms", string(w.uploads[0].Data))

	require.Len(t, fs.posts, 1)
	text := fs.posts[0].Get("text")
	require.Contains(t, text, "Twelve month lease.")
	require.Contains(t, text, "• Deposit refundable")
	require.Equal(t, "250.0", fs.posts[0].Get("thread_ts"))
}

func TestSharedFileFailureIsReported(t *testing.T) {
	fs := newFakeSlack(t)
	w := &fakeWorker{docErr: casework.ErrUnsupportedType}
	h := newTestHandler(t, fs, w)

	deliver(h, &slackevents.MessageEvent{
		Channel: "C1", User: "U1", TimeStamp: "300.0", Message: &slack.Msg{Files: []slack.File{{ID: "F1"}}},
	})

	require.Len(t, fs.posts, 1)
	require.True(t, strings.Contains(fs.posts[0].Get("text"), "Only PDF, Word and plain text files are supported"))
}

func TestSharedFileTooLargeSkipsDownload(t *testing.T) {
	fs := newFakeSlack(t)
	w := &fakeWorker{}
	h := newTestHandler(t, fs, w)
	h.maxFileBytes = 4

	deliver(h, &slackevents.MessageEvent{
		Channel: "C1", User: "U1", TimeStamp: "300.0", Message: &slack.Msg{Files: []slack.File{{ID: "F1"}}},
	})

	require.Empty(t, w.uploads)
	require.Contains(t, fs.posts[0].Get("text"), "too large")
}

func TestMessageWithoutEmbeddedMessageIsSafe(t *testing.T) {
	fs := newFakeSlack(t)
	w := &fakeWorker{}
	h := newTestHandler(t, fs, w)

	deliver(h, &slackevents.MessageEvent{Channel: "C1", ChannelType: "channel", User: "U1", TimeStamp: "1.0"})

	require.Empty(t, w.uploads)
	require.Empty(t, fs.posts)
}

func TestFormatAnalysisWithoutKeyPoints(t *testing.T) {
	got := formatAnalysis(store.Document{OriginalFilename: "memo.pdf", Summary: "Short memo."})
	require.Equal(t, ":page_facing_up: *Analysis of memo.pdf*\n\nShort memo.", got)
}
