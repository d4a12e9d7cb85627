package domain

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// DefaultVideoMIME is used when the remote store omits a content type.
const DefaultVideoMIME = "video/mp4"

// DownloadFilename is the suggested file name for a generated animation.
const DownloadFilename = "motion-graphics-animation.mp4"

// ImagePayload is the source image supplied with a generation request.
type ImagePayload struct {
	Data     []byte
	MIMEType string
}

// DecodeImagePayload decodes base64 image data as sent by the form. A data
// URI prefix is tolerated. When mimeType is blank it is sniffed.
func DecodeImagePayload(data, mimeType string) (ImagePayload, error) {
	data = strings.TrimSpace(data)
	if strings.HasPrefix(data, "data:") {
		if i := strings.IndexByte(data, ','); i >= 0 {
			if mimeType == "" {
				mimeType = strings.TrimSuffix(strings.TrimPrefix(data[:i], "data:"), ";base64")
			}
			data = data[i+1:]
		}
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return ImagePayload{}, fmt.Errorf("%w: decode base64: %v", ErrInvalidImage, err)
	}
	return NewImagePayload(raw, mimeType)
}

// NewImagePayload validates raw image bytes and their MIME type.
func NewImagePayload(data []byte, mimeType string) (ImagePayload, error) {
	if len(data) == 0 {
		return ImagePayload{}, fmt.Errorf("%w: image data is empty", ErrInvalidImage)
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
		if i := strings.IndexByte(mimeType, ';'); i >= 0 {
			mimeType = mimeType[:i]
		}
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return ImagePayload{}, fmt.Errorf("%w: unsupported content type %q", ErrInvalidImage, mimeType)
	}
	return ImagePayload{Data: data, MIMEType: mimeType}, nil
}

// Reference is a playable generated video held in process memory.
type Reference struct {
	Data     []byte
	MIMEType string
}

// DataURI encodes the video as a base64 data URI.
func (r *Reference) DataURI() string {
	mimeType := r.MIMEType
	if mimeType == "" {
		mimeType = DefaultVideoMIME
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}
