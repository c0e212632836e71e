// Package notify delivers share links by email.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/sparkdrive/internal/logging"
)

type Notifier interface {
	SendShareLink(ctx context.Context, to, link string, ttl time.Duration) error
}

const mailgunBaseURL = "https://api.mailgun.net/v3"

// MailgunNotifier sends mail through the Mailgun messages API.
type MailgunNotifier struct {
	baseURL string
	domain  string
	apiKey  string
	from    string
	client  *http.Client
}

func NewMailgunNotifier(domain, apiKey, from string) *MailgunNotifier {
	return &MailgunNotifier{
		baseURL: mailgunBaseURL,
		domain:  domain,
		apiKey:  apiKey,
		from:    from,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func shareBody(link string, ttl time.Duration) string {
	return fmt.Sprintf("A file was shared with you on SparkDrive.\n\nDownload it here: %s\n\nThe link expires in %s.\n", link, ttl)
}

func (m *MailgunNotifier) SendShareLink(ctx context.Context, to, link string, ttl time.Duration) error {
	form := url.Values{
		"from":    {m.from},
		"to":      {to},
		"subject": {"A file was shared with you"},
		"text":    {shareBody(link, ttl)},
	}

	endpoint := fmt.Sprintf("%s/%s/messages", m.baseURL, m.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create mailgun request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mailgun request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mailgun responded with status: %s", resp.Status)
	}
	return nil
}

// LogNotifier only logs the link. Used when no mail provider is configured.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log.With("module", "notify")}
}

func (l *LogNotifier) SendShareLink(ctx context.Context, to, link string, ttl time.Duration) error {
	l.log.Info(ctx, "share link", "to", to, "link", link, "ttl", ttl.String())
	return nil
}
