// Package gateway is the client for the OpenAI-compatible chat
// completions service that powers voice conversations.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voxai/apiserver/config"
)

const (
	completionsPath  = "/v1/chat/completions"
	defaultMaxTokens = 300
	requestTimeout   = 30 * time.Second

	// DefaultSystemPrompt is used when a chat request carries no prompt.
	DefaultSystemPrompt = "You are a helpful voice assistant. Keep responses concise and conversational."

	// fallbackReply is returned when the gateway answers with no choices.
	fallbackReply = "I'm sorry, I couldn't generate a response."
)

// ErrRateLimited is returned when the gateway rejects a call with 429.
var ErrRateLimited = errors.New("gateway rate limited")

// Message is one turn of a conversation transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client calls the chat-completions endpoint of the configured gateway.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(cfg config.GatewayConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Configured reports whether an API key is set. Unconfigured clients
// must not be called; the proxy answers with an echo reply instead.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat sends the transcript to the gateway and returns the reply text.
func (c *Client) Chat(ctx context.Context, messages []Message, temperature float64) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		errorText, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("AI gateway error: %d - %s", resp.StatusCode, string(errorText))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("AI gateway error: invalid response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return fallbackReply, nil
	}
	return parsed.Choices[0].Message.Content, nil
}

// BuildTranscript assembles the message list sent to the gateway:
// system prompt, prior history, then the new user message.
func BuildTranscript(systemPrompt string, history []Message, userMessage string) []Message {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userMessage})
	return messages
}
