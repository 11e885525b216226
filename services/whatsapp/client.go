package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bookline/config"
	"bookline/models"
	"bookline/utils"

	"go.uber.org/zap"
)

const graphBaseURL = "https://graph.facebook.com"

// Client talks to the Meta WhatsApp Cloud API. Credentials are per
// tenant, so every call takes the tenant's channel settings.
type Client struct {
	httpClient *http.Client
}

// NewClient builds the client with a bounded request timeout.
func NewClient() *Client {
	return &Client{httpClient: &http.Client{Timeout: 15 * time.Second}}
}

func apiVersion(ch models.WhatsAppChannel) string {
	if ch.APIVersion != "" {
		return ch.APIVersion
	}
	return config.AppConfig.WhatsAppAPIVersion
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText delivers a text message and returns the provider message id.
func (c *Client) SendText(ctx context.Context, ch models.WhatsAppChannel, to, body string) (string, error) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"body": body},
	}
	var resp sendResponse
	if err := c.post(ctx, ch, "messages", payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Messages) == 0 {
		return "", fmt.Errorf("send accepted but no message id returned")
	}
	return resp.Messages[0].ID, nil
}

// MarkRead flags an inbound message as read and shows a typing
// indicator while the reply is being produced.
func (c *Client) MarkRead(ctx context.Context, ch models.WhatsAppChannel, messageID string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
		"typing_indicator":  map[string]any{"type": "text"},
	}
	return c.post(ctx, ch, "messages", payload, nil)
}

type mediaInfo struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// MediaURL resolves a media id to its short-lived download URL.
func (c *Client) MediaURL(ctx context.Context, ch models.WhatsAppChannel, mediaID string) (string, string, error) {
	url := fmt.Sprintf("%s/%s/%s", graphBaseURL, apiVersion(ch), mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+ch.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("media lookup failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", graphError(resp)
	}
	var info mediaInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", fmt.Errorf("media lookup decode failed: %w", err)
	}
	return info.URL, info.MimeType, nil
}

// DownloadMedia fetches the media bytes from a URL returned by MediaURL.
func (c *Client) DownloadMedia(ctx context.Context, ch models.WhatsAppChannel, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+ch.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, graphError(resp)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 25<<20))
}

func (c *Client) post(ctx context.Context, ch models.WhatsAppChannel, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/%s/%s/%s", graphBaseURL, apiVersion(ch), ch.PhoneNumberID, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+ch.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph api request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return graphError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("graph api decode failed: %w", err)
		}
	}
	return nil
}

func graphError(resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	utils.GetLogger().Warn("graph api error",
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", detail))
	return fmt.Errorf("graph api returned status %d", resp.StatusCode)
}
