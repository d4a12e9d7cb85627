package domain

// Operation is the handle of an in-flight generation on the remote service.
// It lives only for the duration of one request.
type Operation struct {
	Name   string
	Done   bool
	Error  string
	Videos []GeneratedVideo
}

// GeneratedVideo describes one output of a completed operation. The remote
// service either returns a URI to download or the bytes inline.
type GeneratedVideo struct {
	URI      string
	Data     []byte
	MIMEType string
}

// Failed reports whether the remote service marked the operation as a
// terminal failure.
func (o *Operation) Failed() bool {
	return o != nil && o.Done && o.Error != ""
}

// FirstVideo returns the first generated video, if any.
func (o *Operation) FirstVideo() (GeneratedVideo, bool) {
	if o == nil || len(o.Videos) == 0 {
		return GeneratedVideo{}, false
	}
	return o.Videos[0], true
}

// Downloadable reports whether the video has a locator or inline bytes.
func (v GeneratedVideo) Downloadable() bool {
	return v.URI != "" || len(v.Data) > 0
}
