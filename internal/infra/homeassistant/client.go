package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client sends notifications through the Home Assistant REST API, calling the
// configured notify service (e.g. notify/mobile_app_phone).
type Client struct {
	baseURL       string
	token         string
	notifyService string
	client        *http.Client
	logger        *zap.Logger
}

type notifyPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func NewClient(baseURL, token, notifyService string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		token:         token,
		notifyService: notifyService,
		client:        &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

// IsConfigured reports whether enough settings are present to deliver.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.token != "" && c.notifyService != ""
}

func (c *Client) Notify(ctx context.Context, title, message string) error {
	if !c.IsConfigured() {
		return fmt.Errorf("home assistant client is not fully configured")
	}

	serviceDomain, service, err := splitService(c.notifyService)
	if err != nil {
		return err
	}

	body, err := json.Marshal(notifyPayload{Title: title, Message: message})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/api/services/%s/%s", c.baseURL, serviceDomain, service)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Authorization", "Bearer "+c.token)
	request.Header.Set("Content-Type", "application/json")

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Warn("home assistant notify failed", zap.String("url", endpoint), zap.Error(err))
		return err
	}
	defer response.Body.Close()

	c.logger.Info("home assistant notify complete",
		zap.String("service", c.notifyService),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("home assistant notify error: status %d", response.StatusCode)
	}
	return nil
}

// splitService accepts either notify/mobile_app_phone or
// notify.mobile_app_phone.
func splitService(service string) (string, string, error) {
	for _, separator := range []string{"/", "."} {
		if parts := strings.SplitN(service, separator, 2); len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			return parts[0], parts[1], nil
		}
	}
	return "", "", fmt.Errorf("notify service must look like 'notify/mobile_app_phone' or 'notify.mobile_app_phone', got %q", service)
}
