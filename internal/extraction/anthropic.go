package extraction

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/logger"
	"github.com/tphakala/releasewatch/internal/model"
	"github.com/tphakala/releasewatch/internal/ratelimit"
)

// limiterKey is the bucket used for every call to the messages endpoint.
const limiterKey = "anthropic"

// AnthropicExtractor calls the Anthropic Messages API.
type AnthropicExtractor struct {
	client  anthropic.Client
	config  Config
	limiter ratelimit.Limiter
	log     logger.Logger
}

// NewAnthropicExtractor creates an extractor. The API key is required; limiter
// may be nil for unlimited calls. Retries are left to the orchestrator.
func NewAnthropicExtractor(cfg Config, httpClient *http.Client, limiter ratelimit.Limiter, log logger.Logger) (*AnthropicExtractor, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.Newf("extraction API key is required").
			Component("extraction").
			Category(errors.CategoryConfiguration).
			Build()
	}
	cfg = cfg.withDefaults()
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &AnthropicExtractor{
		client:  anthropic.NewClient(opts...),
		config:  cfg,
		limiter: limiter,
		log:     log.Module("extraction"),
	}, nil
}

// Extract sends the page to the model and parses its answer.
func (e *AnthropicExtractor) Extract(ctx context.Context, productName, content string) (*model.ExtractionResult, error) {
	if err := e.limiter.Wait(ctx, limiterKey); err != nil {
		return nil, errors.New(err).
			Component("extraction").
			Category(errors.CategoryExtraction).
			Context("product", productName).
			Context("stage", "rate_limit").
			Build()
	}

	callCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	start := time.Now()
	msg, err := e.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model:       anthropic.Model(e.config.Model),
		MaxTokens:   e.config.MaxTokens,
		Temperature: anthropic.Float(0),
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(productName, content, e.config.MaxContentChars))),
		},
	})
	elapsed := time.Since(start)
	if err != nil {
		builder := errors.New(err).
			Component("extraction").
			Category(errors.CategoryExtraction).
			Context("product", productName).
			Context("model", e.config.Model).
			Timing("extraction_call", elapsed)
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			builder = builder.Context("status_code", apiErr.StatusCode)
		}
		return nil, builder.Build()
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	e.log.Debug("extraction response received",
		logger.String("product", productName),
		logger.String("stop_reason", string(msg.StopReason)),
		logger.Int64("input_tokens", msg.Usage.InputTokens),
		logger.Int64("output_tokens", msg.Usage.OutputTokens),
		logger.Duration("elapsed", elapsed))

	if msg.StopReason == anthropic.StopReasonMaxTokens {
		e.log.Warn("extraction response hit the token limit",
			logger.String("product", productName),
			logger.Int64("max_tokens", e.config.MaxTokens))
	}

	result, err := ParseResponse(text.String())
	if err != nil {
		return nil, err
	}
	return result, nil
}
