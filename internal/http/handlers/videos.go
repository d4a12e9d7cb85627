package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"motiongen/internal/domain"
	"motiongen/internal/infra"
)

const missingInputMessage = "Missing settings or image data."

type imageInput struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

type videoGenerateRequest struct {
	Settings *domain.SettingsInput `json:"settings"`
	Image    *imageInput           `json:"image"`
}

type videoResponse struct {
	VideoURL string `json:"videoUrl"`
	ID       string `json:"id,omitempty"`
}

// errMissingInput marks a request without settings or an image.
var errMissingInput = errors.New(missingInputMessage)

// VideosGenerate runs one generation synchronously and answers with a
// playable reference to the result.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	settings, image, err := a.decodeGenerateRequest(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			a.error(w, http.StatusRequestEntityTooLarge, "Uploaded image is too large.")
		case errors.Is(err, errMissingInput):
			a.error(w, http.StatusBadRequest, missingInputMessage)
		default:
			a.error(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	started := time.Now()
	ref, err := a.Generator.Generate(r.Context(), settings, image)
	if err != nil {
		a.generationFailed(w, r, err)
		return
	}

	resp := videoResponse{}
	if a.ReferenceMode == infra.ReferenceModeBlob && a.Blobs != nil {
		id, err := a.Blobs.Put(r.Context(), ref)
		if err != nil {
			a.log(r).Error().Err(err).Msg("failed to store generated video")
			a.error(w, http.StatusInternalServerError, "Failed to generate video: could not store the result")
			return
		}
		resp.ID = id
		resp.VideoURL = "/v1/videos/" + id
	} else {
		resp.VideoURL = ref.DataURI()
	}

	a.log(r).Info().
		Int("bytes", len(ref.Data)).
		Str("mime", ref.MIMEType).
		Str("aspect_ratio", settings.AspectRatio.Token()).
		Int("duration_s", settings.Duration).
		Dur("elapsed", time.Since(started)).
		Msg("video generated")
	a.json(w, http.StatusOK, resp)
}

func (a *App) generationFailed(w http.ResponseWriter, r *http.Request, err error) {
	message := "Failed to generate video: " + err.Error()
	kind, _ := domain.KindOf(err)
	switch kind {
	case domain.KindInvalidInput:
		a.error(w, http.StatusBadRequest, err.Error())
	case domain.KindTimeout:
		a.error(w, http.StatusGatewayTimeout, message)
	default:
		a.error(w, http.StatusInternalServerError, message)
	}
}

// envelopeBytes is headroom for the settings fields and framing around the
// image in either body form.
const envelopeBytes = 64 << 10

// jsonBodyLimit is the JSON body size that can carry an image of
// MaxUploadBytes once base64 encoded, so both upload forms accept the same
// image sizes.
func (a *App) jsonBodyLimit() int64 {
	return int64(base64.StdEncoding.EncodedLen(int(a.MaxUploadBytes))) + envelopeBytes
}

func (a *App) decodeGenerateRequest(w http.ResponseWriter, r *http.Request) (domain.GenerationSettings, domain.ImagePayload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if a.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes+envelopeBytes)
		}
		return a.decodeMultipart(r)
	}
	if a.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.jsonBodyLimit())
	}

	var req videoGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.GenerationSettings{}, domain.ImagePayload{}, err
		}
		return domain.GenerationSettings{}, domain.ImagePayload{}, errMissingInput
	}
	if req.Settings == nil || req.Image == nil || strings.TrimSpace(req.Image.Data) == "" {
		return domain.GenerationSettings{}, domain.ImagePayload{}, errMissingInput
	}
	settings, err := req.Settings.Settings()
	if err != nil {
		return domain.GenerationSettings{}, domain.ImagePayload{}, err
	}
	image, err := domain.DecodeImagePayload(req.Image.Data, req.Image.MIMEType)
	if err != nil {
		return domain.GenerationSettings{}, domain.ImagePayload{}, err
	}
	if a.MaxUploadBytes > 0 && int64(len(image.Data)) > a.MaxUploadBytes {
		return domain.GenerationSettings{}, domain.ImagePayload{}, &http.MaxBytesError{Limit: a.MaxUploadBytes}
	}
	return settings, image, nil
}

func (a *App) decodeMultipart(r *http.Request) (domain.GenerationSettings, domain.ImagePayload, error) {
	maxMemory := a.MaxUploadBytes
	if maxMemory <= 0 {
		maxMemory = 32 << 20
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.GenerationSettings{}, domain.ImagePayload{}, err
		}
		return domain.GenerationSettings{}, domain.ImagePayload{}, errMissingInput
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return domain.GenerationSettings{}, domain.ImagePayload{}, errMissingInput
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return domain.GenerationSettings{}, domain.ImagePayload{}, err
	}
	if len(data) == 0 {
		return domain.GenerationSettings{}, domain.ImagePayload{}, errMissingInput
	}
	if a.MaxUploadBytes > 0 && int64(len(data)) > a.MaxUploadBytes {
		return domain.GenerationSettings{}, domain.ImagePayload{}, &http.MaxBytesError{Limit: a.MaxUploadBytes}
	}

	in := domain.SettingsInput{
		Text:        r.FormValue("text"),
		Style:       r.FormValue("style"),
		Pacing:      r.FormValue("pacing"),
		Palette:     r.FormValue("palette"),
		AspectRatio: r.FormValue("aspectRatio"),
	}
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return domain.GenerationSettings{}, domain.ImagePayload{}, errors.New("duration must be a whole number of seconds")
		}
		in.Duration = &n
	}
	settings, err := in.Settings()
	if err != nil {
		return domain.GenerationSettings{}, domain.ImagePayload{}, err
	}
	image, err := domain.NewImagePayload(data, header.Header.Get("Content-Type"))
	if err != nil {
		return domain.GenerationSettings{}, domain.ImagePayload{}, err
	}
	return settings, image, nil
}

// VideoDownload streams a stored video. Range requests are honoured so
// players can seek.
func (a *App) VideoDownload(w http.ResponseWriter, r *http.Request) {
	if a.Blobs == nil {
		a.NotFound(w, r)
		return
	}
	id := chi.URLParam(r, "id")
	ref, err := a.Blobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "video not found")
			return
		}
		a.log(r).Error().Err(err).Str("id", id).Msg("failed to load video")
		a.error(w, http.StatusInternalServerError, "failed to load video")
		return
	}
	w.Header().Set("Content-Type", ref.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": domain.DownloadFilename}))
	w.Header().Set("Cache-Control", "private, no-store")
	http.ServeContent(w, r, domain.DownloadFilename, time.Time{}, bytes.NewReader(ref.Data))
}

// VideoRelease revokes a stored video.
func (a *App) VideoRelease(w http.ResponseWriter, r *http.Request) {
	if a.Blobs == nil {
		a.NotFound(w, r)
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.Blobs.Release(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "video not found")
			return
		}
		a.log(r).Error().Err(err).Str("id", id).Msg("failed to release video")
		a.error(w, http.StatusInternalServerError, "failed to release video")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
