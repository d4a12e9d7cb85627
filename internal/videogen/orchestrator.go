package videogen

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"motiongen/internal/domain"
	"motiongen/internal/infra"
)

// DefaultPollInterval is the fixed delay between status refreshes.
const DefaultPollInterval = 10 * time.Second

// DefaultModel is the video model used when none is configured.
const DefaultModel = "veo-2.0-generate-001"

// SubmitRequest is everything the remote service needs to start a job.
type SubmitRequest struct {
	Model          string
	Prompt         string
	Image          domain.ImagePayload
	NumberOfVideos int
}

// Service is the remote long-running video generation capability.
type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*domain.Operation, error)
	Refresh(ctx context.Context, op *domain.Operation) (*domain.Operation, error)
}

// Fetcher retrieves a generated asset from its locator.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (*domain.Reference, error)
}

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Options configures an Orchestrator.
type Options struct {
	APIKey       string
	Model        string
	PollInterval time.Duration
	// Timeout bounds a whole generation. Zero means no deadline beyond the
	// caller's context.
	Timeout    time.Duration
	Service    Service
	Fetcher    Fetcher
	HTTPClient *http.Client
	Logger     *infra.Logger
	Wait       WaitFunc
}

// Orchestrator runs the submit, poll and fetch workflow. It holds no
// per-request state, so one instance serves concurrent calls.
type Orchestrator struct {
	model        string
	pollInterval time.Duration
	timeout      time.Duration
	service      Service
	fetcher      Fetcher
	logger       *infra.Logger
	wait         WaitFunc
}

// New validates opts and builds an Orchestrator. A blank credential is a
// configuration error.
func New(opts Options) (*Orchestrator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, domain.NewGenerationError(domain.KindConfig, domain.ErrMissingCredential, "videogen: api key is required")
	}
	if opts.Service == nil {
		return nil, errors.New("videogen: service is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = NewDownloader(apiKey, opts.HTTPClient)
	}
	wait := opts.Wait
	if wait == nil {
		wait = sleep
	}
	return &Orchestrator{
		model:        model,
		pollInterval: interval,
		timeout:      opts.Timeout,
		service:      opts.Service,
		fetcher:      fetcher,
		logger:       infra.LoggerOrDiscard(opts.Logger),
		wait:         wait,
	}, nil
}

// Model returns the configured model identifier.
func (o *Orchestrator) Model() string {
	return o.model
}

// Generate turns settings and a source image into a playable video. Every
// failure is logged and returned as a *domain.GenerationError.
func (o *Orchestrator) Generate(ctx context.Context, settings domain.GenerationSettings, image domain.ImagePayload) (*domain.Reference, error) {
	ref, err := o.generate(ctx, settings, image)
	if err != nil {
		err = o.normalize(err)
		o.logger.Error().
			Err(err).
			Str("model", o.model).
			Msg("videogen: generation failed")
		return nil, err
	}
	return ref, nil
}

func (o *Orchestrator) generate(ctx context.Context, settings domain.GenerationSettings, image domain.ImagePayload) (*domain.Reference, error) {
	if err := settings.Validate(); err != nil {
		return nil, domain.NewGenerationError(domain.KindInvalidInput, err, "%v", err)
	}
	if len(image.Data) == 0 {
		return nil, domain.NewGenerationError(domain.KindInvalidInput, domain.ErrInvalidImage, "image data is required")
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(settings)
	started := time.Now()

	op, err := o.service.Submit(ctx, SubmitRequest{
		Model:          o.model,
		Prompt:         prompt,
		Image:          image,
		NumberOfVideos: 1,
	})
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, domain.NewGenerationError(domain.KindRemote, domain.ErrProviderFailure, "remote service returned no operation")
	}
	o.logger.Info().
		Str("operation", op.Name).
		Str("model", o.model).
		Msg("videogen: generation submitted")

	polls := 0
	for !op.Done {
		if err := o.wait(ctx, o.pollInterval); err != nil {
			return nil, err
		}
		next, err := o.service.Refresh(ctx, op)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, domain.NewGenerationError(domain.KindRemote, domain.ErrProviderFailure, "remote service returned no operation")
		}
		op = next
		polls++
		o.logger.Debug().
			Str("operation", op.Name).
			Int("polls", polls).
			Bool("done", op.Done).
			Msg("videogen: operation refreshed")
	}

	if op.Failed() {
		return nil, domain.NewGenerationError(domain.KindRemote, domain.ErrProviderFailure, "video generation failed: %s", op.Error)
	}

	video, ok := op.FirstVideo()
	if !ok || !video.Downloadable() {
		return nil, domain.NewGenerationError(domain.KindEmptyResult, nil, "video generation completed but returned no downloadable link")
	}

	var ref *domain.Reference
	if video.URI != "" {
		ref, err = o.fetcher.Fetch(ctx, video.URI)
		if err != nil {
			return nil, err
		}
	} else {
		mimeType := video.MIMEType
		if mimeType == "" {
			mimeType = domain.DefaultVideoMIME
		}
		ref = &domain.Reference{Data: video.Data, MIMEType: mimeType}
	}

	o.logger.Info().
		Str("operation", op.Name).
		Int("polls", polls).
		Int("bytes", len(ref.Data)).
		Dur("elapsed", time.Since(started)).
		Msg("videogen: generation completed")

	return ref, nil
}

// normalize maps any error into a GenerationError. Only errors that carry a
// context error become the timeout or canceled kinds; a terminal remote
// failure keeps its kind even if the caller has gone away since.
func (o *Orchestrator) normalize(err error) error {
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) && genErr.Kind != domain.KindFetch && genErr.Kind != domain.KindRemote {
		return genErr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewGenerationError(domain.KindTimeout, err, "video generation timed out")
	case errors.Is(err, context.Canceled):
		return domain.NewGenerationError(domain.KindCanceled, err, "video generation canceled")
	}
	if genErr != nil {
		return genErr
	}
	return domain.NewGenerationError(domain.KindRemote, err, "%v", err)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
