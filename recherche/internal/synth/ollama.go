package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/hazyhaar/recherche/horosafe"
	"github.com/hazyhaar/recherche/recherche/internal/store"
)

// Local-model API flavours.
const (
	APINative = "native"
	APIOpenAI = "openai"
)

// generator sends one prompt and returns the completion text.
type generator func(ctx context.Context, prompt string) (string, error)

// Ollama is the local-model backend.
type Ollama struct {
	generate generator
	budget   int
	config   OllamaConfig
	logger   *slog.Logger
}

func newOllama(cfg Config) (*Ollama, error) {
	o := &Ollama{
		budget: cfg.CharBudget,
		config: cfg.Ollama,
		logger: cfg.Logger,
	}
	client := &http.Client{Timeout: cfg.Timeout}
	endpoint := strings.TrimRight(cfg.Ollama.Endpoint, "/")
	switch cfg.Ollama.API {
	case APINative:
		o.generate = nativeGenerator(client, endpoint, cfg.Ollama.Model)
	case APIOpenAI:
		o.generate = openAIGenerator(client, endpoint, cfg.Ollama.Model, cfg.Ollama.APIKey)
	default:
		return nil, fmt.Errorf("synth: unknown ollama api %q", cfg.Ollama.API)
	}
	return o, nil
}

func (o *Ollama) Backend() store.Backend { return store.BackendOllama }

// Summarize sends a single prompt built from the usable sources. Any failure
// is logged and yields nil.
func (o *Ollama) Summarize(ctx context.Context, query string, sources []store.ScrapedSource) *store.AnalysisResult {
	src := usable(sources)
	if len(src) == 0 {
		o.logger.Info("synth: no usable sources, skipping analysis", "backend", store.BackendOllama)
		return nil
	}
	prompt := Prompt(query, src, o.budget)
	o.logger.Debug("synth: prompt built", "model", o.config.Model, "chars", len(prompt), "sources", len(src))

	text, err := o.generate(ctx, prompt)
	if err != nil {
		o.logger.Warn("synth: local model unavailable", "endpoint", o.config.Endpoint, "model", o.config.Model, "error", err)
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		o.logger.Warn("synth: empty completion", "model", o.config.Model)
		return nil
	}
	return &store.AnalysisResult{Backend: store.BackendOllama, Summary: text, SourceCount: len(src)}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// nativeGenerator calls POST /api/generate without streaming.
func nativeGenerator(client *http.Client, endpoint, model string) generator {
	return func(ctx context.Context, prompt string) (string, error) {
		body, err := json.Marshal(generateRequest{Model: model, Prompt: prompt})
		if err != nil {
			return "", fmt.Errorf("synth: marshal: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/api/generate", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("synth: new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("synth: generate: %w", err)
		}
		defer resp.Body.Close()

		data, err := horosafe.LimitedReadAll(resp.Body, horosafe.MaxResponseBody)
		if err != nil {
			return "", fmt.Errorf("synth: read response: %w", err)
		}
		var out generateResponse
		if err := json.Unmarshal(data, &out); err != nil && resp.StatusCode == http.StatusOK {
			return "", fmt.Errorf("synth: decode response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			// 404 means the model is not pulled.
			return "", fmt.Errorf("synth: generate: http %d: %s", resp.StatusCode, out.Error)
		}
		return out.Response, nil
	}
}

// openAIGenerator calls an OpenAI-compatible chat completions endpoint
// (Ollama serves one under /v1, as do llama.cpp and vLLM).
func openAIGenerator(client *http.Client, endpoint, model, apiKey string) generator {
	if apiKey == "" {
		apiKey = "ollama" // required by the client, ignored by local servers
	}
	base := endpoint
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	c := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(base+"/"),
		option.WithHTTPClient(client),
		option.WithMaxRetries(0),
	)
	return func(ctx context.Context, prompt string) (string, error) {
		resp, err := c.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    model,
			Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		})
		if err != nil {
			return "", fmt.Errorf("synth: chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	}
}
