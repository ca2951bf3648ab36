package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// maxPromptText caps how much document text is sent to the model.
const maxPromptText = 3000

const systemPrompt = `You are a document classification assistant for a ` +
	`business document archive. You answer with a single JSON object and ` +
	`nothing else.`

const promptTemplate = `Classify the following business document.

Answer with exactly one JSON object of this shape:
{"tags": ["..."], "category": "...", "confidence": 0.0}

Rules:
- "tags": 1 to 5 short lowercase keywords describing the document.
- "category": exactly one of: invoice, order, contract, quotation, receipt, notification, internal, other.
- "confidence": your confidence in the category, between 0 and 1.

Document text:
%s`

var jsonObjectRE = regexp.MustCompile(`\{[\s\S]*\}`)

// fallbackResult is used when the model answers with something that is
// not parseable JSON.
func fallbackResult() *Result {
	return &Result{Tags: []string{"other"}, Category: "other", Confidence: 0.5}
}

// LLMClassifier implements Classifier against a langchaingo chat model.
type LLMClassifier struct {
	model  llms.Model
	logger zerolog.Logger
}

// LLMOptions selects and configures the backing model.
type LLMOptions struct {
	// Provider is "ollama" or "openai".
	Provider string
	Model    string
	BaseURL  string
}

// NewLLM builds a classifier for the configured provider.
func NewLLM(opts LLMOptions, logger zerolog.Logger) (*LLMClassifier, error) {
	var model llms.Model
	var err error
	switch opts.Provider {
	case "", "ollama":
		llmOpts := []ollama.Option{ollama.WithModel(opts.Model)}
		if opts.BaseURL != "" {
			llmOpts = append(llmOpts, ollama.WithServerURL(opts.BaseURL))
		}
		model, err = ollama.New(llmOpts...)
	case "openai":
		llmOpts := []openai.Option{openai.WithModel(opts.Model)}
		if opts.BaseURL != "" {
			llmOpts = append(llmOpts, openai.WithBaseURL(opts.BaseURL))
		}
		model, err = openai.New(llmOpts...)
	default:
		return nil, errors.Errorf("unknown llm provider %q", opts.Provider)
	}
	if err != nil {
		return nil, errors.Wrap(err, "initialize llm")
	}
	return &LLMClassifier{model: model, logger: logger}, nil
}

func (c *LLMClassifier) Classify(ctx context.Context, text string) (*Result, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, BuildPrompt(text)),
	}
	resp, err := c.model.GenerateContent(ctx, content)
	if err != nil {
		return nil, errors.Wrap(err, "llm generate")
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.New("llm returned no choices")
	}
	result := ParseAnswer(resp.Choices[0].Content)
	if result.Category == "other" && result.Confidence == 0.5 {
		c.logger.Debug().Str("answer", resp.Choices[0].Content).Msg("classification fell back to default")
	}
	return result, nil
}

// BuildPrompt renders the user prompt, truncating the document text so
// the request stays within a predictable size.
func BuildPrompt(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > maxPromptText {
		text = text[:maxPromptText]
	}
	return fmt.Sprintf(promptTemplate, text)
}

// ParseAnswer extracts the JSON object from a model answer. Models often
// wrap the object in prose or code fences, so the first balanced-looking
// object substring is parsed. Unparseable answers degrade to the
// low-confidence default instead of failing the job.
func ParseAnswer(answer string) *Result {
	match := jsonObjectRE.FindString(answer)
	if match == "" {
		return fallbackResult()
	}
	var result Result
	if err := json.Unmarshal([]byte(match), &result); err != nil {
		return fallbackResult()
	}
	if result.Category == "" {
		result.Category = "other"
	}
	if len(result.Tags) == 0 {
		result.Tags = []string{"other"}
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		result.Confidence = 0.5
	}
	return &result
}
