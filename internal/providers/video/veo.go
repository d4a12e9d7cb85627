package video

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"motiongen/internal/domain"
	"motiongen/internal/infra"
	"motiongen/internal/videogen"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("veo: api key is required")

// Options configures the Veo client.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

type videoModels interface {
	GenerateVideos(ctx context.Context, model string, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
}

type videoOperations interface {
	GetVideosOperation(ctx context.Context, operation *genai.GenerateVideosOperation, config *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error)
}

// VEO submits and refreshes Veo video generations through the Gemini API.
type VEO struct {
	models     videoModels
	operations videoOperations
	logger     *infra.Logger
}

// NewVEO constructs a Veo client backed by the Gemini API. Each VEO owns its
// own genai client and credential.
func NewVEO(ctx context.Context, opts Options) (*VEO, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("veo: create genai client: %w", err)
	}
	return newVEO(client.Models, client.Operations, opts.Logger), nil
}

func newVEO(models videoModels, operations videoOperations, logger *infra.Logger) *VEO {
	return &VEO{
		models:     models,
		operations: operations,
		logger:     infra.LoggerOrDiscard(logger),
	}
}

// Submit starts a generation and returns its operation handle.
func (v *VEO) Submit(ctx context.Context, req videogen.SubmitRequest) (*domain.Operation, error) {
	count := req.NumberOfVideos
	if count <= 0 {
		count = 1
	}
	op, err := v.models.GenerateVideos(ctx, req.Model, req.Prompt,
		&genai.Image{ImageBytes: req.Image.Data, MIMEType: req.Image.MIMEType},
		&genai.GenerateVideosConfig{NumberOfVideos: int32(count)},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}
	if op == nil {
		return nil, errors.New("gemini api error: empty operation")
	}
	v.logger.Debug().
		Str("operation", op.Name).
		Str("model", req.Model).
		Msg("veo: operation created")
	return toOperation(op), nil
}

// Refresh fetches the current state of op.
func (v *VEO) Refresh(ctx context.Context, op *domain.Operation) (*domain.Operation, error) {
	if op == nil || op.Name == "" {
		return nil, errors.New("veo: operation name is required")
	}
	latest, err := v.operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: op.Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}
	if latest == nil {
		return nil, errors.New("gemini api error: empty operation")
	}
	return toOperation(latest), nil
}

func toOperation(op *genai.GenerateVideosOperation) *domain.Operation {
	out := &domain.Operation{
		Name:  op.Name,
		Done:  op.Done,
		Error: operationError(op.Error),
	}
	if op.Response == nil {
		return out
	}
	for _, generated := range op.Response.GeneratedVideos {
		if generated == nil || generated.Video == nil {
			out.Videos = append(out.Videos, domain.GeneratedVideo{})
			continue
		}
		out.Videos = append(out.Videos, domain.GeneratedVideo{
			URI:      generated.Video.URI,
			Data:     generated.Video.VideoBytes,
			MIMEType: generated.Video.MIMEType,
		})
	}
	return out
}

func operationError(detail map[string]any) string {
	if len(detail) == 0 {
		return ""
	}
	if msg, ok := detail["message"].(string); ok && strings.TrimSpace(msg) != "" {
		return msg
	}
	return fmt.Sprintf("%v", detail)
}

var _ videogen.Service = (*VEO)(nil)
