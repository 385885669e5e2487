// Package slack posts run summaries and uploads the report to a channel.
package slack

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/slack-go/slack"
)

// Notifier posts pipeline results to a single Slack channel. A Notifier
// with an empty token or channel is a no-op.
type Notifier struct {
	api       *slack.Client
	channelID string
}

func NewNotifier(botToken, channelID string) *Notifier {
	n := &Notifier{channelID: channelID}
	if botToken != "" && channelID != "" {
		n.api = slack.New(botToken)
	}
	return n
}

// Enabled reports whether the notifier has a usable token and channel.
func (n *Notifier) Enabled() bool {
	return n.api != nil
}

// PostSummary posts a plain-text run summary to the channel.
func (n *Notifier) PostSummary(summary string) error {
	if !n.Enabled() {
		return nil
	}
	_, _, err := n.api.PostMessage(n.channelID, slack.MsgOptionText(summary, false))
	if err != nil {
		return fmt.Errorf("posting summary: %w", err)
	}
	return nil
}

// UploadReport uploads the report file to the channel with a short comment.
func (n *Notifier) UploadReport(filePath string, ticketCount int) error {
	if !n.Enabled() {
		return nil
	}

	fi, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("stat report file: %w", err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("report file %s is empty", filePath)
	}

	_, err = n.api.UploadFileV2(slack.UploadFileV2Parameters{
		File:           filePath,
		FileSize:       int(fi.Size()),
		Filename:       filepath.Base(filePath),
		Channel:        n.channelID,
		Title:          "Classified Tickets Report",
		InitialComment: fmt.Sprintf("Classification report: %d tickets processed", ticketCount),
	})
	if err != nil {
		return fmt.Errorf("uploading report: %w", err)
	}
	log.Printf("slack report uploaded channel=%s file=%s", n.channelID, filepath.Base(filePath))
	return nil
}
