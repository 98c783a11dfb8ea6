package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/termfolio/pkg/errors"
	"github.com/charlesng35/termfolio/pkg/logger"
	"github.com/charlesng35/termfolio/pkg/metrics"
	"github.com/charlesng35/termfolio/pkg/response"
)

const (
	aiRequestTimeout = 120 * time.Second
	aiMaxMessages    = 32
)

// AIConfig carries the settings for the chat proxy. The endpoint speaks the
// OpenAI chat-completions wire format, so any compatible server works.
type AIConfig struct {
	Enabled      bool
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
}

// AIHandler proxies chat requests to an upstream model API and re-emits the
// streamed deltas to the browser as server-sent events.
type AIHandler struct {
	cfg  AIConfig
	http *http.Client
}

func NewAIHandler(cfg AIConfig, opts ...AIOption) *AIHandler {
	h := &AIHandler{
		cfg:  cfg,
		http: &http.Client{Timeout: aiRequestTimeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type AIOption func(*AIHandler)

func WithAIHTTPClient(client *http.Client) AIOption {
	return func(h *AIHandler) {
		if client != nil {
			h.http = client
		}
	}
}

type chatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required,max=8192"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages" validate:"required,min=1,dive"`
}

// POST /api/ai/chat
func (h *AIHandler) Chat(c *gin.Context) {
	if !h.cfg.Enabled || h.cfg.BaseURL == "" {
		response.Error(c, errors.ErrFeatureDisabled)
		return
	}

	var req chatRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if len(req.Messages) > aiMaxMessages {
		response.Error(c, errors.NewBadRequest("too many messages"))
		return
	}

	messages := make([]chatMessage, 0, len(req.Messages)+1)
	if h.cfg.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: h.cfg.SystemPrompt})
	}
	messages = append(messages, req.Messages...)

	body, err := json.Marshal(map[string]any{
		"model":    h.cfg.Model,
		"messages": messages,
		"stream":   true,
	})
	if err != nil {
		response.Error(c, errors.Wrap(err, "failed to encode chat request"))
		return
	}

	endpoint := strings.TrimRight(h.cfg.BaseURL, "/") + "/chat/completions"
	upstream, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		response.Error(c, errors.Wrap(err, "failed to build chat request"))
		return
	}
	upstream.Header.Set("Content-Type", "application/json")
	upstream.Header.Set("Accept", "text/event-stream")
	if h.cfg.APIKey != "" {
		upstream.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	}

	resp, err := h.http.Do(upstream)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("ai", "error").Inc()
		response.Error(c, errors.NewExternalService("chat service unavailable").WithInternal(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequests.WithLabelValues("ai", "error").Inc()
		logger.WithModule("ai").Warn("upstream chat request failed",
			zap.Int("status", resp.StatusCode))
		response.Error(c, errors.NewExternalService("chat service returned an error"))
		return
	}
	metrics.UpstreamRequests.WithLabelValues("ai", "ok").Inc()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), 256*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		if _, err := c.Writer.WriteString("data: " + payload + "\n\n"); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		if payload == "[DONE]" {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.WithModule("ai").Warn("chat stream interrupted", zap.Error(err))
	}
}
