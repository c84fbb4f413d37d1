package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Notifier raises the user-visible notification when a focus session ends.
type Notifier interface {
	NotifySessionFinished() error
}

// webhookNotifier posts the session-finished notification to a webhook.
// Presentation beyond delivering the payload is the receiver's business.
type webhookNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookNotifier creates a Notifier that posts to the given webhook URL.
func NewWebhookNotifier(webhookURL string) Notifier {
	return &webhookNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookMessage struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	SentAt  string `json:"sent_at"`
}

// NotifySessionFinished posts a single notification message.
func (n *webhookNotifier) NotifySessionFinished() error {
	msg := webhookMessage{
		Title:   "Focus session complete",
		Message: "Time is up. Write down what you accomplished.",
		SentAt:  time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting notification webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}
	return nil
}
