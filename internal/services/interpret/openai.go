package interpret

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/oppajeom/oppajeom/internal/core/interpretation"
	apperrors "github.com/oppajeom/oppajeom/internal/platform/errors"
	"github.com/oppajeom/oppajeom/internal/platform/otel"
	"github.com/oppajeom/oppajeom/internal/platform/timeouts"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// OpenAIConfig configures the chat completions client.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	// Limiter paces upstream calls; nil means unlimited.
	Limiter *rate.Limiter
}

// OpenAI interprets through the OpenAI chat completions API.
type OpenAI struct {
	client  openai.Client
	model   string
	limiter *rate.Limiter
}

// NewOpenAI builds a client. An API key is required.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &OpenAI{
		client:  openai.NewClient(opts...),
		model:   model,
		limiter: cfg.Limiter,
	}, nil
}

// Interpret asks for a full reading.
func (o *OpenAI) Interpret(ctx context.Context, req interpretation.Request) (Reading, error) {
	user, err := payload(readingInstruction, req)
	if err != nil {
		return Reading{}, err
	}
	text, err := o.complete(ctx, "interpret.reading", companionPersona, user)
	if err != nil {
		return Reading{}, err
	}
	doc, err := jsonReply(text)
	if err != nil {
		return Reading{}, err
	}

	reading := Reading{
		StatementTranslation: doc.Get("statement_translation").String(),
		Explanation:          doc.Get("explanation").String(),
		Advice:               doc.Get("advice").String(),
		CoreSummary:          []string{},
	}
	for _, item := range doc.Get("core_summary").Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			reading.CoreSummary = append(reading.CoreSummary, s)
		}
	}
	if reading.Advice == "" {
		return Reading{}, unavailable("reply is missing advice", nil)
	}
	return reading, nil
}

// Premium asks for answers to the two follow-up questions.
func (o *OpenAI) Premium(ctx context.Context, req interpretation.Request, q1, q2 string) (string, error) {
	user, err := payloadWith(premiumInstruction, premiumPayload{Request: req, Questions: []string{q1, q2}})
	if err != nil {
		return "", err
	}
	text, err := o.complete(ctx, "interpret.premium", companionPersona, user)
	if err != nil {
		return "", err
	}
	doc, err := jsonReply(text)
	if err != nil {
		return "", err
	}
	advice := strings.TrimSpace(doc.Get("advice").String())
	if advice == "" {
		return "", unavailable("reply is missing advice", nil)
	}
	return advice, nil
}

// Reflect asks for feedback on a journal entry about the reading.
func (o *OpenAI) Reflect(ctx context.Context, req interpretation.Request, entry string) (Reflection, error) {
	user, err := payloadWith(reflectInstruction, reflectPayload{Request: req, Entry: entry})
	if err != nil {
		return Reflection{}, err
	}
	text, err := o.complete(ctx, "interpret.reflect", sagePersona, user)
	if err != nil {
		return Reflection{}, err
	}
	doc, err := jsonReply(text)
	if err != nil {
		return Reflection{}, err
	}
	out := Reflection{
		Title:      doc.Get("title").String(),
		Quote:      doc.Get("quote").String(),
		Reflection: doc.Get("reflection").String(),
		ActionItem: doc.Get("action_item").String(),
	}
	if out.Title == "" || out.Reflection == "" || out.ActionItem == "" {
		return Reflection{}, unavailable("reply is missing reflection fields", nil)
	}
	return out, nil
}

// WeeklyContent asks for one week's koan, reflection, and practice.
func (o *OpenAI) WeeklyContent(ctx context.Context, req interpretation.Request) (WeeklyContent, error) {
	user, err := payload(weeklyInstruction, req)
	if err != nil {
		return WeeklyContent{}, err
	}
	text, err := o.complete(ctx, "interpret.weekly", companionPersona, user)
	if err != nil {
		return WeeklyContent{}, err
	}
	doc, err := jsonReply(text)
	if err != nil {
		return WeeklyContent{}, err
	}
	content := WeeklyContent{
		Week:       req.Week,
		Koan:       doc.Get("koan").String(),
		Reflection: doc.Get("deep_insight").String(),
		ActionItem: doc.Get("weekly_ritual").String(),
	}
	if content.Koan == "" || content.Reflection == "" || content.ActionItem == "" {
		return WeeklyContent{}, unavailable("reply is missing weekly fields", nil)
	}
	return content, nil
}

// LineCommentary asks for a short scholarly note on one line.
func (o *OpenAI) LineCommentary(ctx context.Context, hexagramName, lineText string) (string, error) {
	text, err := o.complete(ctx, "interpret.line", "", linePrompt(hexagramName, lineText))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (o *OpenAI) complete(ctx context.Context, op, system, user string) (string, error) {
	ctx, span := otel.Tracer().Start(ctx, op, trace.WithAttributes(
		attribute.String("llm.model", o.model),
	))
	defer span.End()

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			return "", unavailable("rate limit wait", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Interpretation)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(user))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: messages,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		return "", unavailable("chat completion failed", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		span.SetStatus(codes.Error, "empty completion")
		return "", unavailable("chat completion returned no content", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

func jsonReply(text string) (gjson.Result, error) {
	body := stripFences(text)
	if !gjson.Valid(body) {
		return gjson.Result{}, unavailable("reply is not valid JSON", nil)
	}
	return gjson.Parse(body), nil
}

func unavailable(message string, cause error) error {
	if cause == nil {
		return apperrors.New(apperrors.CodeInterpretationUnavailable, message)
	}
	return apperrors.Wrap(apperrors.CodeInterpretationUnavailable, message, cause)
}
