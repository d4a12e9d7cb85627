package videogen

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motiongen/internal/domain"
)

type fakeService struct {
	mu          sync.Mutex
	pollsToDone int
	refreshes   int
	videos      []domain.GeneratedVideo
	remoteError string
	submitErr   error
	submitted   []SubmitRequest
}

func (f *fakeService) Submit(ctx context.Context, req SubmitRequest) (*domain.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, req)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.operation(), nil
}

func (f *fakeService) Refresh(ctx context.Context, op *domain.Operation) (*domain.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.refreshes++
	return f.operation(), nil
}

func (f *fakeService) operation() *domain.Operation {
	op := &domain.Operation{Name: "operations/test-1", Done: f.refreshes >= f.pollsToDone}
	if op.Done {
		op.Videos = f.videos
		op.Error = f.remoteError
	}
	return op
}

type waitRecorder struct {
	calls []time.Duration
}

func (w *waitRecorder) wait(ctx context.Context, d time.Duration) error {
	w.calls = append(w.calls, d)
	return ctx.Err()
}

type countingFetcher struct {
	mu    sync.Mutex
	calls int
	ref   *domain.Reference
	err   error
}

func (c *countingFetcher) Fetch(ctx context.Context, uri string) (*domain.Reference, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.ref, c.err
}

func testImage() domain.ImagePayload {
	return domain.ImagePayload{Data: []byte("\x89PNG\r\n\x1a\nimage"), MIMEType: "image/png"}
}

func scenarioSettings(t *testing.T) domain.GenerationSettings {
	t.Helper()
	duration := 10
	settings, err := domain.SettingsInput{
		Text:        "",
		Style:       "Minimalist Fade",
		Pacing:      "Moderate and Smooth",
		Duration:    &duration,
		Palette:     "Vibrant & Punchy",
		AspectRatio: "16:9 (Landscape)",
	}.Settings()
	require.NoError(t, err)
	return settings
}

func TestNewRequiresCredential(t *testing.T) {
	_, err := New(Options{APIKey: "  ", Service: &fakeService{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)

	kind, ok := domain.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, domain.KindConfig, kind)
}

func TestGenerateEndToEnd(t *testing.T) {
	payload := []byte("\x00\x00\x00\x18ftypmp42 binary video payload")
	var gotKey, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	service := &fakeService{videos: []domain.GeneratedVideo{{URI: server.URL + "/v1beta/files/abc:download?alt=media"}}}
	waits := &waitRecorder{}
	orch, err := New(Options{
		APIKey:     "secret-key",
		Service:    service,
		HTTPClient: server.Client(),
		Wait:       waits.wait,
	})
	require.NoError(t, err)

	ref, err := orch.Generate(context.Background(), scenarioSettings(t), testImage())
	require.NoError(t, err)

	assert.Equal(t, payload, ref.Data)
	assert.Equal(t, "video/mp4", ref.MIMEType)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "/v1beta/files/abc:download", gotPath)
	assert.Empty(t, waits.calls, "an already completed operation must not be polled")

	require.Len(t, service.submitted, 1)
	submitted := service.submitted[0]
	assert.Equal(t, DefaultModel, submitted.Model)
	assert.Equal(t, 1, submitted.NumberOfVideos)
	assert.Equal(t, "image/png", submitted.Image.MIMEType)
	assert.Equal(t, BuildPrompt(scenarioSettings(t)), submitted.Prompt)
	assert.Contains(t, submitted.Prompt, "16:9 aspect ratio")
	assert.NotContains(t, submitted.Prompt, editClause)
}

func TestGeneratePollsUntilDone(t *testing.T) {
	for _, n := range []int{1, 3, 7} {
		service := &fakeService{pollsToDone: n, videos: []domain.GeneratedVideo{{URI: "https://files.example.com/video.mp4"}}}
		fetcher := &countingFetcher{ref: &domain.Reference{Data: []byte("video"), MIMEType: "video/mp4"}}
		waits := &waitRecorder{}
		orch, err := New(Options{APIKey: "k", Service: service, Fetcher: fetcher, Wait: waits.wait})
		require.NoError(t, err)

		_, err = orch.Generate(context.Background(), domain.DefaultSettings(), testImage())
		require.NoError(t, err)

		assert.Equal(t, n, service.refreshes, "refresh calls")
		require.Len(t, waits.calls, n, "waits")
		for _, d := range waits.calls {
			assert.Equal(t, DefaultPollInterval, d)
		}
		assert.Equal(t, 1, fetcher.calls)
	}
}

func TestGenerateNeverCompletesUntilCanceled(t *testing.T) {
	service := &fakeService{pollsToDone: 1 << 30}
	fetcher := &countingFetcher{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	polls := 0
	wait := func(ctx context.Context, d time.Duration) error {
		polls++
		if polls == 25 {
			cancel()
		}
		return ctx.Err()
	}
	orch, err := New(Options{APIKey: "k", Service: service, Fetcher: fetcher, Wait: wait})
	require.NoError(t, err)

	ref, err := orch.Generate(ctx, domain.DefaultSettings(), testImage())
	assert.Nil(t, ref)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCanceled)
	assert.Equal(t, 24, service.refreshes)
	assert.Zero(t, fetcher.calls)
}

func TestGenerateTimesOut(t *testing.T) {
	service := &fakeService{pollsToDone: 1 << 30}
	orch, err := New(Options{
		APIKey:       "k",
		Service:      service,
		Fetcher:      &countingFetcher{},
		PollInterval: time.Millisecond,
		Timeout:      20 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = orch.Generate(context.Background(), domain.DefaultSettings(), testImage())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimedOut)
	assert.Equal(t, "video generation timed out", err.Error())
}

func TestGenerateEmptyResultSkipsFetch(t *testing.T) {
	tests := []struct {
		name   string
		videos []domain.GeneratedVideo
	}{
		{name: "no videos"},
		{name: "video without locator", videos: []domain.GeneratedVideo{{MIMEType: "video/mp4"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := &countingFetcher{}
			orch, err := New(Options{APIKey: "k", Service: &fakeService{pollsToDone: 2, videos: tc.videos}, Fetcher: fetcher, Wait: (&waitRecorder{}).wait})
			require.NoError(t, err)

			_, err = orch.Generate(context.Background(), domain.DefaultSettings(), testImage())
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrEmptyResult)
			assert.Contains(t, err.Error(), "no downloadable link")
			assert.Zero(t, fetcher.calls)
		})
	}
}

func TestGenerateFetchFailureCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Forbidden"))
	}))
	defer server.Close()

	orch, err := New(Options{
		APIKey:     "k",
		Service:    &fakeService{videos: []domain.GeneratedVideo{{URI: server.URL + "/video"}}},
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)

	_, err = orch.Generate(context.Background(), domain.DefaultSettings(), testImage())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "Body: Forbidden")
}

func TestGenerateInlineVideoBytes(t *testing.T) {
	fetcher := &countingFetcher{}
	service := &fakeService{videos: []domain.GeneratedVideo{{Data: []byte("inline"), MIMEType: "video/webm"}}}
	orch, err := New(Options{APIKey: "k", Service: service, Fetcher: fetcher})
	require.NoError(t, err)

	ref, err := orch.Generate(context.Background(), domain.DefaultSettings(), testImage())
	require.NoError(t, err)
	assert.Equal(t, []byte("inline"), ref.Data)
	assert.Equal(t, "video/webm", ref.MIMEType)
	assert.Zero(t, fetcher.calls)
}

func TestGenerateRemoteFailures(t *testing.T) {
	t.Run("submit rejected", func(t *testing.T) {
		orch, err := New(Options{APIKey: "k", Service: &fakeService{submitErr: errors.New("gemini: invalid argument")}, Fetcher: &countingFetcher{}})
		require.NoError(t, err)

		_, err = orch.Generate(context.Background(), domain.DefaultSettings(), testImage())
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrProviderFailure)
		assert.Contains(t, err.Error(), "invalid argument")
	})

	t.Run("operation failed", func(t *testing.T) {
		fetcher := &countingFetcher{}
		orch, err := New(Options{APIKey: "k", Service: &fakeService{remoteError: "quota exhausted"}, Fetcher: fetcher})
		require.NoError(t, err)

		_, err = orch.Generate(context.Background(), domain.DefaultSettings(), testImage())
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrProviderFailure)
		assert.Contains(t, err.Error(), "quota exhausted")
		assert.Zero(t, fetcher.calls)
	})
}

// cancelingService reports a terminal remote failure and cancels the caller
// in the same call.
type cancelingService struct {
	cancel context.CancelFunc
}

func (c cancelingService) Submit(ctx context.Context, req SubmitRequest) (*domain.Operation, error) {
	c.cancel()
	return &domain.Operation{Name: "operations/test-1", Done: true, Error: "quota exhausted"}, nil
}

func (c cancelingService) Refresh(ctx context.Context, op *domain.Operation) (*domain.Operation, error) {
	return op, nil
}

func TestGenerateRemoteFailureSurvivesCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fetcher := &countingFetcher{}
	orch, err := New(Options{APIKey: "k", Service: cancelingService{cancel: cancel}, Fetcher: fetcher})
	require.NoError(t, err)

	_, err = orch.Generate(ctx, domain.DefaultSettings(), testImage())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.NotErrorIs(t, err, domain.ErrCanceled)
	assert.Contains(t, err.Error(), "quota exhausted")
	assert.Zero(t, fetcher.calls)
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	service := &fakeService{}
	orch, err := New(Options{APIKey: "k", Service: service, Fetcher: &countingFetcher{}})
	require.NoError(t, err)

	settings := domain.DefaultSettings()
	settings.Duration = 45
	_, err = orch.Generate(context.Background(), settings, testImage())
	kind, _ := domain.KindOf(err)
	assert.Equal(t, domain.KindInvalidInput, kind)

	_, err = orch.Generate(context.Background(), domain.DefaultSettings(), domain.ImagePayload{})
	kind, _ = domain.KindOf(err)
	assert.Equal(t, domain.KindInvalidInput, kind)

	assert.Empty(t, service.submitted, "invalid input must not reach the remote service")
}

func TestGenerateConcurrentCallsAreIndependent(t *testing.T) {
	fetcher := &countingFetcher{ref: &domain.Reference{Data: []byte("v")}}
	orch, err := New(Options{APIKey: "k", Service: &fakeService{videos: []domain.GeneratedVideo{{URI: "https://x.example/v"}}}, Fetcher: fetcher})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = orch.Generate(context.Background(), domain.DefaultSettings(), testImage())
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
}
