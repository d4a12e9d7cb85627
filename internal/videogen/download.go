package videogen

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"motiongen/internal/domain"
)

// Downloader fetches generated assets from the remote file store. Result
// locators need the service credential appended as the "key" query parameter.
type Downloader struct {
	apiKey     string
	httpClient *http.Client
}

// NewDownloader builds a Downloader. A nil client gets a default with a
// generous timeout, since generated videos can be tens of megabytes.
func NewDownloader(apiKey string, client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Downloader{apiKey: strings.TrimSpace(apiKey), httpClient: client}
}

// Fetch downloads uri and returns the bytes as a Reference. A non-2xx
// response becomes a fetch error carrying the status and the response body.
func (d *Downloader) Fetch(ctx context.Context, uri string) (*domain.Reference, error) {
	target, err := url.Parse(strings.TrimSpace(uri))
	if err != nil || target.Scheme == "" {
		return nil, domain.NewGenerationError(domain.KindFetch, err, "invalid video uri: %s", uri)
	}
	if d.apiKey != "" {
		q := target.Query()
		q.Set("key", d.apiKey)
		target.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, domain.NewGenerationError(domain.KindFetch, err, "create download request: %v", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewGenerationError(domain.KindFetch, err, "failed to fetch video from storage URI: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, domain.NewGenerationError(domain.KindFetch, nil,
			"failed to fetch video from storage URI: %s. Body: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewGenerationError(domain.KindFetch, err, "read video: %v", err)
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
		mimeType = domain.DefaultVideoMIME
	}
	return &domain.Reference{Data: data, MIMEType: mimeType}, nil
}
