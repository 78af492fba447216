package slack

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/jadenj13/caseai/internals/casework"
	"github.com/jadenj13/caseai/internals/store"
)

const replyOnError = "Sorry, something went wrong. Please try again."

// CaseWorker is the part of casework.Worker the handler drives. A Slack
// thread is one case; its root timestamp is the case ID.
type CaseWorker interface {
	HandleMessage(ctx context.Context, caseID, text string) (string, error)
	HandleDocument(ctx context.Context, caseID string, up casework.Upload) (store.Document, error)
}

type Handler struct {
	client   *slack.Client
	socket   *socketmode.Client
	botID    string
	worker   CaseWorker
	notifier *Notifier
	log      *slog.Logger

	maxFileBytes int64
	wg           sync.WaitGroup
}

type IncomingMessage struct {
	ThreadTS  string // case ID
	ChannelID string
	UserID    string
	Text      string
	IsDM      bool
}

type HandlerOption func(*Handler)

// WithMaxFileBytes skips downloading shared files larger than n.
func WithMaxFileBytes(n int64) HandlerOption {
	return func(h *Handler) { h.maxFileBytes = n }
}

func NewHandler(ctx context.Context, botToken, appToken string, worker CaseWorker, log *slog.Logger, opts ...HandlerOption) (*Handler, error) {
	api := slack.New(
		botToken,
		slack.OptionAppLevelToken(appToken),
	)

	socket := socketmode.New(
		api,
		socketmode.OptionLog(slog.NewLogLogger(log.Handler(), slog.LevelDebug)),
	)

	// Resolve the bot's own user ID so we can strip mentions from message text.
	authResp, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, err
	}

	h := &Handler{
		client:       api,
		socket:       socket,
		botID:        authResp.UserID,
		worker:       worker,
		notifier:     NewNotifier(api),
		log:          log,
		maxFileBytes: casework.DefaultMaxUploadBytes,
	}
	for _, o := range opts {
		o(h)
	}
	return h, nil
}

// Run serves socket-mode events until ctx is done, then waits for in-flight
// cases to finish.
func (h *Handler) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- h.socket.RunContext(ctx) }()
	defer h.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case evt, ok := <-h.socket.Events:
			if !ok {
				return nil
			}
			switch evt.Type {
			case socketmode.EventTypeEventsAPI:
				h.socket.Ack(*evt.Request)
				h.handleEventsAPI(ctx, evt)
			case socketmode.EventTypeConnecting:
				h.log.Info("Connecting to slack")
			case socketmode.EventTypeConnected:
				h.log.Info("Connected to slack")
			case socketmode.EventTypeConnectionError:
				h.log.Error("Slack connection error")
			}
		}
	}
}

func (h *Handler) handleEventsAPI(ctx context.Context, evt socketmode.Event) {
	payload, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		return
	}

	switch payload.Type {
	case slackevents.CallbackEvent:
		h.handleCallback(ctx, payload.InnerEvent)
	}
}

func (h *Handler) handleCallback(ctx context.Context, inner slackevents.EventsAPIInnerEvent) {
	switch ev := inner.Data.(type) {
	case *slackevents.AppMentionEvent:
		h.goDispatch(ctx, IncomingMessage{
			ThreadTS:  threadTS(ev.ThreadTimeStamp, ev.TimeStamp),
			ChannelID: ev.Channel,
			UserID:    ev.User,
			Text:      h.stripMention(ev.Text),
		})

	case *slackevents.MessageEvent:
		// Ignore bot messages to avoid feedback loops.
		if ev.BotID != "" || ev.SubType == "bot_message" || ev.User == h.botID {
			return
		}
		thread := threadTS(ev.ThreadTimeStamp, ev.TimeStamp)
		if ev.Message != nil {
			for _, f := range ev.Message.Files {
				h.goFile(ctx, ev.Channel, thread, f.ID)
			}
		}
		// Channel text arrives as an app mention as well.
		if ev.ChannelType != "im" || strings.TrimSpace(ev.Text) == "" {
			return
		}
		h.goDispatch(ctx, IncomingMessage{
			ThreadTS:  thread,
			ChannelID: ev.Channel,
			UserID:    ev.User,
			Text:      ev.Text,
			IsDM:      true,
		})
	}
}

func (h *Handler) goDispatch(ctx context.Context, msg IncomingMessage) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.dispatch(ctx, msg)
	}()
}

func (h *Handler) goFile(ctx context.Context, channelID, thread, fileID string) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.handleFile(ctx, channelID, thread, fileID)
	}()
}

func (h *Handler) dispatch(ctx context.Context, msg IncomingMessage) {
	h.log.Info("incoming message",
		"channel", msg.ChannelID,
		"thread", msg.ThreadTS,
		"user", msg.UserID,
		"dm", msg.IsDM,
	)

	reply, err := h.worker.HandleMessage(ctx, msg.ThreadTS, msg.Text)
	if err != nil {
		h.log.Error("case worker error", "thread", msg.ThreadTS, "err", err)
		reply = replyOnError
	}

	h.postReply(ctx, msg.ChannelID, msg.ThreadTS, reply)
}

func (h *Handler) handleFile(ctx context.Context, channelID, thread, fileID string) {
	info, _, _, err := h.client.GetFileInfoContext(ctx, fileID, 0, 0)
	if err != nil {
		h.log.Error("file info", "file", fileID, "err", err)
		h.notify(h.notifier.NotifyFailure(ctx, channelID, thread, fileID, err))
		return
	}
	h.log.Info("file shared", "file", info.Name, "mime", info.Mimetype, "bytes", info.Size, "thread", thread)

	if h.maxFileBytes > 0 && int64(info.Size) > h.maxFileBytes {
		h.notify(h.notifier.NotifyFailure(ctx, channelID, thread, info.Name, casework.ErrTooLarge))
		return
	}

	var buf bytes.Buffer
	if err := h.client.GetFileContext(ctx, info.URLPrivateDownload, &buf); err != nil {
		h.log.Error("file download", "file", info.Name, "err", err)
		h.notify(h.notifier.NotifyFailure(ctx, channelID, thread, info.Name, err))
		return
	}

	doc, err := h.worker.HandleDocument(ctx, thread, casework.Upload{
		Filename: info.Name,
		MimeType: info.Mimetype,
		Data:     buf.Bytes(),
	})
	if err != nil {
		h.log.Error("document handling failed", "file", info.Name, "err", err)
		h.notify(h.notifier.NotifyFailure(ctx, channelID, thread, info.Name, err))
		return
	}
	h.notify(h.notifier.NotifyAnalysis(ctx, channelID, thread, doc))
}

func (h *Handler) notify(err error) {
	if err != nil {
		h.log.Error("failed to post notification", "err", err)
	}
}

func (h *Handler) postReply(ctx context.Context, channelID, threadTS, text string) {
	_, _, err := h.client.PostMessageContext(ctx,
		channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(threadTS), // reply in thread
	)
	if err != nil {
		h.log.Error("failed to post message", "err", err)
	}
}

func (h *Handler) stripMention(text string) string {
	mention := "<@" + h.botID + ">"
	return strings.TrimSpace(strings.ReplaceAll(text, mention, ""))
}

func threadTS(threadTS, msgTS string) string {
	if threadTS != "" {
		return threadTS
	}
	return msgTS
}

// userFacing maps a document failure to the text shown in the thread.
func userFacing(filename string, err error) string {
	switch {
	case errors.Is(err, casework.ErrUnsupportedType):
		return ":warning: I can't read *" + filename + "*. Only PDF, Word and plain text files are supported."
	case errors.Is(err, casework.ErrTooLarge):
		return ":warning: *" + filename + "* is too large to analyze."
	default:
		return ":x: Document analysis failed for *" + filename + "*. Please try again."
	}
}
