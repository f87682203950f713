package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/jackzampolin/easel/internal/book"
)

const (
	openAIDefaultPlanModel    = "gpt-4o"
	openAIDefaultImageModel   = "gpt-image-1"
	openAIDefaultVisionModel  = "gpt-4o-mini"
	openAIDefaultHTTPTimeout  = 300 * time.Second
	maxSummarizerOutputTokens = 200
)

// OpenAIConfig holds configuration for the OpenAI-backed providers.
type OpenAIConfig struct {
	APIKey      string
	PlanModel   string       // chat model for planning (default gpt-4o)
	VisionModel string       // chat model for reference-image summaries
	ImageModel  string       // image model (default gpt-image-1)
	Timeout     time.Duration
	BaseURL     string       // optional (tests)
	HTTPClient  *http.Client // optional (tests)
}

// OpenAIClient implements Planner, Summarizer and ImageGenerator against the
// OpenAI API.
type OpenAIClient struct {
	planModel   string
	visionModel string
	imageModel  string
	client      openai.Client
}

// NewOpenAIClient creates the OpenAI-backed provider set.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.PlanModel == "" {
		cfg.PlanModel = openAIDefaultPlanModel
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = openAIDefaultVisionModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = openAIDefaultImageModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = openAIDefaultHTTPTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	// No transport retries: a failed generation stays failed until the
	// caller asks again.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		planModel:   cfg.PlanModel,
		visionModel: cfg.VisionModel,
		imageModel:  cfg.ImageModel,
		client:      openai.NewClient(opts...),
	}
}

// planSchema is the schema plan output must satisfy. The exact item count is
// checked separately so the failure carries the expected/actual counts.
const planSchema = `{
	"type": "object",
	"required": ["cover_prompt", "items"],
	"properties": {
		"cover_prompt": {"type": "string", "minLength": 1},
		"items": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["index", "prompt"],
				"properties": {
					"index": {"type": "integer", "minimum": 1},
					"prompt": {"type": "string", "minLength": 1},
					"text": {"type": "string"}
				}
			}
		}
	}
}`

// Plan asks the chat model for a cover prompt plus exactly PageCount interior
// prompts and validates the shape of what comes back.
func (c *OpenAIClient) Plan(ctx context.Context, req *PlanRequest) (*book.Plan, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.planModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(planSystemPrompt),
			openai.UserMessage(buildPlanPrompt(req)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("planning call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrPlanShape)
	}

	raw, err := parseStructuredJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanShape, err)
	}
	if err := validateStructuredJSON(json.RawMessage(planSchema), raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanShape, err)
	}

	var plan book.Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanShape, err)
	}
	if err := CheckPlanShape(&plan, req.PageCount); err != nil {
		return nil, err
	}
	return &plan, nil
}

// CheckPlanShape verifies a plan holds a cover prompt and exactly pageCount
// items indexed 1..pageCount in order.
func CheckPlanShape(plan *book.Plan, pageCount int) error {
	if strings.TrimSpace(plan.CoverPrompt) == "" {
		return fmt.Errorf("%w: missing cover prompt", ErrPlanShape)
	}
	if len(plan.Items) != pageCount {
		return fmt.Errorf("%w: got %d items, want %d", ErrPlanShape, len(plan.Items), pageCount)
	}
	for i, item := range plan.Items {
		if item.Index != i+1 {
			return fmt.Errorf("%w: item %d has index %d, want %d", ErrPlanShape, i, item.Index, i+1)
		}
		if strings.TrimSpace(item.Prompt) == "" {
			return fmt.Errorf("%w: item %d has empty prompt", ErrPlanShape, item.Index)
		}
	}
	return nil
}

// Describe summarizes up to two reference images. Best-effort: failures
// yield an empty summary, never an error.
func (c *OpenAIClient) Describe(ctx context.Context, images []book.ContextImage) (string, error) {
	if len(images) == 0 {
		return "", nil
	}

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart("Describe the subjects, characters, and visual style of these reference images in 2-3 sentences, so an illustrator could keep them consistent across a book."),
	}
	for _, img := range images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: dataURL(img),
		}))
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.visionModel),
		MaxCompletionTokens: openai.Int(maxSummarizerOutputTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(parts),
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func dataURL(img book.ContextImage) string {
	mediaType := img.MediaType
	if mediaType == "" {
		mediaType = "image/png"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

var (
	_ Planner    = (*OpenAIClient)(nil)
	_ Summarizer = (*OpenAIClient)(nil)
)
