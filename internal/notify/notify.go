// Package notify delivers run summaries to a webhook. Delivery is best
// effort: callers log a returned error and carry on.
package notify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/slack-go/slack"

	"github.com/tdh8316/mailcheck/internal/results"
)

const DefaultTimeout = 4 * time.Second

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Slack posts to an incoming webhook as a single code-formatted section.
type Slack struct {
	webhookURL string
	client     *http.Client
	timeout    time.Duration
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		client:     &http.Client{},
		timeout:    DefaultTimeout,
	}
}

func (s *Slack) Notify(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	block := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, "```\n"+text+"\n```", false, false),
		nil, nil,
	)
	msg := &slack.WebhookMessage{
		Blocks: &slack.Blocks{BlockSet: []slack.Block{block}},
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.client, msg); err != nil {
		return errors.Wrap(err, "could not send notification to slack")
	}
	return nil
}

// Report is what a finished run has to say.
type Report struct {
	Compared bool
	Diff     results.Diff
	Valid    []string
	OnlyNew  bool
}

// Message builds the notification text and reports whether there is anything
// worth sending. OnlyNew filters removals here the same way it does for the
// comparison file.
func Message(r Report) (string, bool) {
	switch {
	case r.Compared && !r.Diff.Empty(r.OnlyNew):
		return "Found differences! o.o\n\n" + strings.Join(r.Diff.Lines(r.OnlyNew), "\n"), true
	case !r.Compared && len(r.Valid) > 0:
		return "Found valid users! (-.^)\n\n" + strings.Join(r.Valid, "\n"), true
	}
	return "", false
}
