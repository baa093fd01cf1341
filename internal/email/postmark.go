// Package email sends reminder email through the Postmark API.
package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultAPIURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIURL overrides the Postmark endpoint. Tests point it at a local server.
func WithAPIURL(url string) Option {
	return func(cl *Client) {
		cl.apiURL = url
	}
}

// NewClient builds a Postmark client. baseURL is the public address of
// this instance, used for links in the email body.
func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     baseURL,
		apiURL:      defaultAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set. Reminders silently
// skip the email channel when it is not.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendReminder emails one reminder to one address.
func (c *Client) SendReminder(toEmail, title, message string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	link := c.baseURL + "/calendar"
	textBody := fmt.Sprintf("%s\n\nOpen the calendar: %s", message, link)
	htmlBody := fmt.Sprintf(
		`<p>%s</p><p><a href="%s">Open the calendar</a></p>`,
		message, link,
	)

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  title,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
