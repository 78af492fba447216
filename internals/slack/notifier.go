package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/jadenj13/caseai/internals/store"
)

// Notifier posts document analysis outcomes into the case thread.
type Notifier struct {
	client *slack.Client
}

func NewNotifier(client *slack.Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) NotifyAnalysis(ctx context.Context, channelID, threadTS string, doc store.Document) error {
	return n.post(ctx, channelID, threadTS, formatAnalysis(doc))
}

func (n *Notifier) NotifyFailure(ctx context.Context, channelID, threadTS, filename string, err error) error {
	return n.post(ctx, channelID, threadTS, userFacing(filename, err))
}

func (n *Notifier) post(ctx context.Context, channelID, threadTS, text string) error {
	_, _, err := n.client.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(threadTS),
	)
	if err != nil {
		return fmt.Errorf("slack notify: %w", err)
	}
	return nil
}

func formatAnalysis(doc store.Document) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, ":page_facing_up: *Analysis of %s*\n\n", doc.OriginalFilename)
	sb.WriteString(doc.Summary)
	if len(doc.KeyPoints) > 0 {
		sb.WriteString("\n\n*Key points*")
		for _, p := range doc.KeyPoints {
			sb.WriteString("\n• ")
			sb.WriteString(p)
		}
	}
	return sb.String()
}
