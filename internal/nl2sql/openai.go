package nl2sql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration

	// SchemaPrompt describes the allowed tables and columns. It is the only
	// schema the model is told about.
	SchemaPrompt string
}

// OpenAIClient speaks the OpenAI-compatible chat completion API and
// implements both Translator and Summarizer.
type OpenAIClient struct {
	baseURL      string
	apiKey       string
	model        string
	temperature  float64
	schemaPrompt string
	client       *http.Client
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &OpenAIClient{
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:       strings.TrimSpace(cfg.APIKey),
		model:        model,
		temperature:  cfg.Temperature,
		schemaPrompt: cfg.SchemaPrompt,
		client:       &http.Client{Timeout: timeout},
	}, nil
}

func (c *OpenAIClient) Translate(ctx context.Context, question string) (Result, error) {
	systemPrompt := "You convert operational questions about golf facility monitoring into a single " +
		"PostgreSQL-compatible SELECT statement. Return ONLY SQL. No markdown, no explanation."
	userPrompt := fmt.Sprintf(
		"Available tables:\n%s\nQuestion:\n%s\n\nRules:\n- SELECT statements only.\n- Use only the listed tables and columns.\n- Output a single SQL query only.",
		c.schemaPrompt,
		strings.TrimSpace(question),
	)

	content, err := c.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return Result{}, err
	}

	sqlText := stripMarkdownSQL(content)
	if strings.TrimSpace(sqlText) == "" {
		return Result{}, fmt.Errorf("model returned empty SQL")
	}
	return Result{
		SQL:      sqlText,
		Provider: "openai-compatible",
		Model:    c.model,
	}, nil
}

func (c *OpenAIClient) Summarize(ctx context.Context, question string, columns []string, rows [][]any) (string, error) {
	resultJSON, err := json.Marshal(map[string]any{"columns": columns, "rows": rows})
	if err != nil {
		return "", fmt.Errorf("marshal result context: %w", err)
	}
	systemPrompt := "You summarize query results for facility operations staff in two or three plain sentences. " +
		"State the key numbers. Do not speculate beyond the data."
	userPrompt := fmt.Sprintf("Question:\n%s\n\nResults (JSON):\n%s", strings.TrimSpace(question), string(resultJSON))

	summary, err := c.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("model returned empty summary")
	}
	return strings.TrimSpace(summary), nil
}

func (c *OpenAIClient) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"temperature": c.temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request chat completion: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("chat completion failed status=%d body=%s", resp.StatusCode, string(rawRespBody))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return "", fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
