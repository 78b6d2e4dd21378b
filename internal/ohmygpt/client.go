// Package ohmygpt is the HTTP client for the OhMyGPT chat-completions API,
// which produces the tarot interpretations.
package ohmygpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mrosiy/tarot-miniapp/internal/config"
	"github.com/mrosiy/tarot-miniapp/internal/tarot"
)

type Client struct {
	apiKey       string
	baseURL      string
	model        string
	premiumModel string
	httpClient   *http.Client
	log          *slog.Logger
}

// Request carries everything the prompt needs for one interpretation.
type Request struct {
	Question       string
	Cards          []string
	ReadingType    string
	IsPremium      bool
	HistoryContext string
	UserID         int64
	Username       string
}

func NewClient(cfg config.Config, log *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	return &Client{
		apiKey:       cfg.OhMyGPTAPIKey,
		baseURL:      strings.TrimRight(cfg.OhMyGPTBaseURL, "/"),
		model:        cfg.OhMyGPTModel,
		premiumModel: cfg.OhMyGPTPremium,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Interpret asks the model for a reading and returns the completion text.
// Premium requests run on the premium model.
func (c *Client) Interpret(ctx context.Context, req Request) (string, error) {
	model := c.model
	if req.IsPremium && c.premiumModel != "" {
		model = c.premiumModel
	}

	payload := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt(req.IsPremium)},
			{"role": "user", "content": userPrompt(req)},
		},
		"temperature": 0.8,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	fullURL := c.baseURL + "/v1/chat/completions"

	if c.log != nil {
		c.log.Info("requesting interpretation", "user_id", req.UserID, "model", model, "cards", len(req.Cards))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("post chat completions: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		if c.log != nil {
			c.log.Error("chat completions failed", "status", resp.StatusCode, "body", truncateBody(rawBody))
		}
		return "", fmt.Errorf("ohmygpt error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rawBody, &completion); err != nil {
		return "", fmt.Errorf("decode completion: %w (body=%s)", err, truncateBody(rawBody))
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty completion content")
	}
	return content, nil
}

func systemPrompt(premium bool) string {
	var b strings.Builder
	b.WriteString("Ты — опытный таролог с многолетней практикой. ")
	b.WriteString("Трактуй расклад тепло и уважительно, обращайся к спрашивающему на «вы». ")
	b.WriteString("Опирайся только на выпавшие карты, их порядок и сочетания. ")
	b.WriteString("Не давай медицинских, юридических и финансовых советов. ")
	if premium {
		b.WriteString("Это премиум-расклад: разбери каждую карту отдельно — её значение, позицию и связь с вопросом, — затем дай общий вывод и практический совет. ")
	} else {
		b.WriteString("Дай целостную трактовку в несколько абзацев и заверши кратким советом. ")
	}
	b.WriteString("Отвечай на русском языке.")
	return b.String()
}

func userPrompt(req Request) string {
	var b strings.Builder
	if req.HistoryContext != "" {
		b.WriteString("Предыдущие расклады спрашивающего:\n")
		b.WriteString(req.HistoryContext)
		b.WriteString("\n")
	}
	if req.Username != "" {
		fmt.Fprintf(&b, "Спрашивающий: %s\n", req.Username)
	}
	fmt.Fprintf(&b, "Тип расклада: %s.\n", tarot.TypeLabel(req.ReadingType))
	fmt.Fprintf(&b, "Выпавшие карты: %s.\n", strings.Join(req.Cards, ", "))
	fmt.Fprintf(&b, "Вопрос: %s", req.Question)
	return b.String()
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
