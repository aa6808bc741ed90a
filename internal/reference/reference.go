// Package reference answers NEC quick guide questions with a generative
// text model: a free-form installation scenario goes in, a summary of the
// relevant code guidelines comes out.
package reference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"
)

var (
	ErrNotConfigured = errors.New("reference lookup needs an API key")
	ErrEmptyScenario = errors.New("scenario is empty")
)

const DefaultModel = "gemini-2.5-flash"

const promptTemplate = `You are an expert electrician with deep knowledge of the NEC (National Electrical Code).

A user will provide a description of an electrical installation scenario. Your task is to provide a summary of the relevant NEC guidelines and best practices to ensure code compliance.

Scenario: %s`

// Prompt builds the model prompt for scenario.
func Prompt(scenario string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(scenario))
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Guide struct {
	Guidelines string `json:"guidelines"`
}

// Client runs quick guide lookups.
type Client struct {
	gen    Generator
	logger *log.Logger
}

// NewClient wraps gen. A nil logger discards output.
func NewClient(gen Generator, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{gen: gen, logger: logger}
}

// QuickGuide returns the guidelines for an installation scenario.
func (c *Client) QuickGuide(ctx context.Context, scenario string) (*Guide, error) {
	if strings.TrimSpace(scenario) == "" {
		return nil, ErrEmptyScenario
	}
	c.logger.Debug("reference lookup", "chars", len(scenario))
	text, err := c.gen.Generate(ctx, Prompt(scenario))
	if err != nil {
		return nil, fmt.Errorf("reference lookup: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("reference lookup: empty response")
	}
	return &Guide{Guidelines: text}, nil
}

// GenAI generates text with the Google Gemini API.
type GenAI struct {
	client *genai.Client
	model  string
}

// NewGenAI creates a Gemini client. It returns ErrNotConfigured without an
// API key.
func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAI{client: client, model: model}, nil
}

func (g *GenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

// Model is the model name requests are sent to.
func (g *GenAI) Model() string { return g.model }
