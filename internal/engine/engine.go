package engine

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
)

//go:embed prompts/*.txt
var promptFS embed.FS

var prompts = template.Must(template.New("prompts").ParseFS(promptFS, "prompts/*.txt"))

var (
	ErrEmptyResponse = errors.New("engine: no content returned from model")
	ErrSchema        = errors.New("engine: response does not match schema")
)

// TextModel produces text for a prompt. An empty system instruction means
// none.
type TextModel interface {
	GenerateText(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// Engine generates learning content. Callers only act on the numeric and
// boolean facts of its results.
type Engine struct {
	model  TextModel
	closer func() error
	logger *slog.Logger
}

// NewEngine returns an Engine backed by the Gemini API.
func NewEngine(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*Engine, error) {
	gm, err := newGeminiModel(ctx, apiKey, modelName)
	if err != nil {
		return nil, err
	}
	e := New(gm, logger)
	e.closer = gm.Close
	return e, nil
}

// New returns an Engine over any TextModel.
func New(model TextModel, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{model: model, logger: logger}
}

func (e *Engine) Close() {
	if e.closer != nil {
		if err := e.closer(); err != nil {
			e.logger.Warn("closing model client", "error", err)
		}
	}
}

// Generate returns free text for a prompt.
func (e *Engine) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	text, err := e.model.GenerateText(ctx, systemInstruction, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// text renders a prompt template and returns the model's prose.
func (e *Engine) text(ctx context.Context, name, system string, data any) (string, error) {
	prompt, err := render(name, data)
	if err != nil {
		return "", err
	}
	out, err := e.Generate(ctx, prompt, system)
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.TrimSuffix(name, ".txt"), err)
	}
	return out, nil
}

// structured renders a prompt template, expects a YAML answer, validates
// it against the named schema and decodes it into out.
func (e *Engine) structured(ctx context.Context, name, system, schema string, data, out any) error {
	prompt, err := render(name, data)
	if err != nil {
		return err
	}
	text, err := e.Generate(ctx, prompt, system)
	if err != nil {
		return fmt.Errorf("%s: %w", strings.TrimSuffix(name, ".txt"), err)
	}
	if err := decode(schema, text, out); err != nil {
		e.logger.Debug("rejected model output", "prompt", name, "output", text)
		return err
	}
	return nil
}
