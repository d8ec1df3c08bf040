package search

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

var _ Reranker = (*ChatReranker)(nil)

// ChatReranker asks an OpenAI-compatible chat completions endpoint to
// pick the most relevant candidates. Any provider problem surfaces as
// an error; the engine degrades to recency order on its own.
type ChatReranker struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewChatReranker(baseURL, apiKey, model string) *ChatReranker {
	return &ChatReranker{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *ChatReranker) Rank(ctx context.Context, query string, candidates []Candidate) ([]string, error) {
	req := chatRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: buildPrompt(query, candidates)}},
		MaxTokens: 50,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("completion error (status %d): %s", resp.StatusCode, string(msg))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	return parseAnswer(chatResp.Choices[0].Message.Content), nil
}

func buildPrompt(query string, candidates []Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Given this query: %q\n\nAnd these data sources:\n", query)
	for _, c := range candidates {
		fmt.Fprintf(&b, "\nID: %s\nTitle: %s\nType: %s\nContent: %s\n---", c.URL, c.Title, c.Type, c.Content)
	}
	b.WriteString("\n\nReturn ONLY the IDs of the 3 most relevant data sources for the query, separated by commas.\n")
	b.WriteString("If none are relevant, return \"none\".\n\nResponse format: id1,id2,id3 or \"none\"\n")
	return b.String()
}

func parseAnswer(answer string) []string {
	answer = strings.Trim(strings.TrimSpace(answer), `"`)
	if answer == "" || strings.EqualFold(answer, "none") {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(answer, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
		if len(ids) == fallbackResultCount {
			break
		}
	}
	return ids
}
