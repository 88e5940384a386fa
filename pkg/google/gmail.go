package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"ai-assistant-be/pkg/tools"
)

const gmailSendURL = "https://gmail.googleapis.com/gmail/v1/users/me/messages/send"

// GmailClient sends mail through the Gmail REST API as the authenticated user.
type GmailClient struct {
	conf    *oauth2.Config
	creds   CredentialSource
	SendURL string
}

var _ tools.EmailSender = &GmailClient{}

func NewGmailClient(conf *oauth2.Config, creds CredentialSource) *GmailClient {
	return &GmailClient{
		conf:    conf,
		creds:   creds,
		SendURL: gmailSendURL,
	}
}

func (g *GmailClient) Send(ctx context.Context, to, subject, body string) error {
	client, err := httpClient(ctx, g.conf, g.creds)
	if err != nil {
		return err
	}

	// RFC 2822 message, base64url-encoded per the Gmail API contract.
	raw := strings.Join([]string{
		"From: me",
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\n")
	encoded := base64.RawURLEncoding.EncodeToString([]byte(raw))

	payloadBytes, err := json.Marshal(map[string]string{"raw": encoded})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.SendURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("gmail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gmail error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}
