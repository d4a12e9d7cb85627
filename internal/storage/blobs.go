package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"motiongen/internal/domain"
	"motiongen/internal/infra"
)

var videoExtensions = map[string]string{
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/quicktime": ".mov",
}

// Blobs hands out revocable ids for generated videos, the server-side
// equivalent of a browser object URL. Ids expire after the configured TTL.
type Blobs struct {
	store  Store
	ttl    time.Duration
	logger *infra.Logger
}

// NewBlobs wraps store. A non-positive ttl disables expiry.
func NewBlobs(store Store, ttl time.Duration, logger *infra.Logger) *Blobs {
	return &Blobs{store: store, ttl: ttl, logger: infra.LoggerOrDiscard(logger)}
}

// Put stores ref and returns its id.
func (b *Blobs) Put(ctx context.Context, ref *domain.Reference) (string, error) {
	if ref == nil {
		return "", errors.New("storage: reference is required")
	}
	id := uuid.NewString() + extensionFor(ref.MIMEType)
	if _, err := b.store.Write(ctx, id, ref.Data); err != nil {
		return "", err
	}
	return id, nil
}

// Get loads the reference stored under id.
func (b *Blobs) Get(ctx context.Context, id string) (*domain.Reference, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	data, err := b.store.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	mimeType, _ := mimeFor(path.Ext(id))
	return &domain.Reference{Data: data, MIMEType: mimeType}, nil
}

// Release revokes id.
func (b *Blobs) Release(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	return b.store.Delete(ctx, id)
}

// Sweep drops expired blobs.
func (b *Blobs) Sweep(ctx context.Context, now time.Time) (int, error) {
	if b.ttl <= 0 {
		return 0, nil
	}
	return b.store.Sweep(ctx, now.Add(-b.ttl))
}

// RunJanitor sweeps every interval until ctx is done.
func (b *Blobs) RunJanitor(ctx context.Context, interval time.Duration) {
	if b.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := b.Sweep(ctx, now)
			if err != nil {
				b.logger.Warn().Err(err).Msg("storage: blob sweep failed")
				continue
			}
			if removed > 0 {
				b.logger.Debug().Int("removed", removed).Msg("storage: expired blobs released")
			}
		}
	}
}

func extensionFor(mimeType string) string {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	if ext, ok := videoExtensions[base]; ok {
		return ext
	}
	return ".mp4"
}

func mimeFor(ext string) (string, bool) {
	for mimeType, e := range videoExtensions {
		if e == ext {
			return mimeType, true
		}
	}
	return domain.DefaultVideoMIME, false
}

// validID accepts only ids minted by Put: a UUID plus a known extension.
func validID(id string) bool {
	ext := path.Ext(id)
	if _, ok := mimeFor(ext); !ok {
		return false
	}
	raw := strings.TrimSuffix(id, ext)
	parsed, err := uuid.Parse(raw)
	return err == nil && parsed.String() == raw
}
