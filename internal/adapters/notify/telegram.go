package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phenrril/storefront/internal/domain"
)

// TelegramSink posts the message to every configured chat through the Bot API.
type TelegramSink struct {
	Token   string
	ChatIDs []string
	APIBase string
	Client  *http.Client
}

func NewTelegramSink(token string, chatIDs []string, apiBase string) *TelegramSink {
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	return &TelegramSink{
		Token:   token,
		ChatIDs: chatIDs,
		APIBase: strings.TrimRight(apiBase, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Send tries every chat and returns the last failure, if any.
func (s *TelegramSink) Send(ctx context.Context, n domain.Notification) error {
	if s.Token == "" || len(s.ChatIDs) == 0 {
		return fmt.Errorf("telegram not configured")
	}
	apiURL := s.APIBase + "/bot" + s.Token + "/sendMessage"
	var lastErr error
	for _, id := range s.ChatIDs {
		form := url.Values{}
		form.Set("chat_id", id)
		form.Set("text", n.Message)
		form.Set("disable_web_page_preview", "1")
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := s.Client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		func() {
			defer resp.Body.Close()
			if resp.StatusCode >= 300 {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
				lastErr = fmt.Errorf("telegram status %d: %s", resp.StatusCode, string(body))
			}
		}()
	}
	return lastErr
}
