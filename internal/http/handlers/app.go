package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"motiongen/internal/domain"
	"motiongen/internal/infra"
)

// Generator produces a video from settings and a source image.
type Generator interface {
	Generate(ctx context.Context, settings domain.GenerationSettings, image domain.ImagePayload) (*domain.Reference, error)
}

// BlobStore holds generated videos behind revocable ids.
type BlobStore interface {
	Put(ctx context.Context, ref *domain.Reference) (string, error)
	Get(ctx context.Context, id string) (*domain.Reference, error)
	Release(ctx context.Context, id string) error
}

type App struct {
	Generator      Generator
	Blobs          BlobStore
	ReferenceMode  string
	MaxUploadBytes int64
	Logger         *infra.Logger
}

func NewApp(cfg *infra.Config, gen Generator, blobs BlobStore, logger *infra.Logger) *App {
	return &App{
		Generator:      gen,
		Blobs:          blobs,
		ReferenceMode:  cfg.ReferenceMode,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         infra.LoggerOrDiscard(logger),
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}

// log prefers the request scoped logger installed by the access log middleware.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return a.Logger
}

// MethodNotAllowed answers with a JSON body in the same shape as other errors.
func (a *App) MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	a.error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func (a *App) NotFound(w http.ResponseWriter, _ *http.Request) {
	a.error(w, http.StatusNotFound, "Not Found")
}
