package engine

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type geminiModel struct {
	client *genai.Client
	name   string
}

func newGeminiModel(ctx context.Context, apiKey, name string) (*geminiModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &geminiModel{client: client, name: name}, nil
}

func (g *geminiModel) Close() error {
	return g.client.Close()
}

func (g *geminiModel) GenerateText(ctx context.Context, systemInstruction, prompt string) (string, error) {
	// A fresh handle per call keeps the system instruction local to it.
	model := g.client.GenerativeModel(g.name)
	if systemInstruction != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		text, ok := part.(genai.Text)
		if !ok {
			return "", fmt.Errorf("unexpected response type from Gemini: %T", part)
		}
		out += string(text)
	}
	return out, nil
}
