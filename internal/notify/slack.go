package notify

import (
	"fmt"

	"github.com/slack-go/slack"

	"github.com/opscheck/internal/errs"
	"github.com/opscheck/internal/models"
)

// SlackNotifier announces failed checks to a channel when a submission
// contains NOT OK records.
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(token),
		channel: channel,
	}
}

// Enabled reports whether a token and channel were configured.
func (n *SlackNotifier) Enabled() bool {
	return n != nil && n.channel != ""
}

// NotifyFailures posts one message listing every NOT OK record in the
// submission. Records that are OK are ignored.
func (n *SlackNotifier) NotifyFailures(key string, records []models.CheckRecord) error {
	var fields []slack.AttachmentField
	for _, rec := range records {
		if rec.Status != models.StatusNotOK {
			continue
		}
		fields = append(fields, slack.AttachmentField{
			Title: rec.CheckName,
			Value: rec.Reason,
			Short: false,
		})
	}
	if len(fields) == 0 {
		return nil
	}

	attachment := slack.Attachment{
		Color:  "#ff0000",
		Title:  fmt.Sprintf("Health check failures for %s", key),
		Fields: fields,
		Footer: "opscheck",
	}

	_, _, err := n.client.PostMessage(
		n.channel,
		slack.MsgOptionAttachments(attachment),
	)
	if err != nil {
		return errs.External("slack", err)
	}
	return nil
}
