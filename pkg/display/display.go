// Package display publishes rendered artifacts as MIME-tagged
// payloads.
//
// A Payload pairs image bytes with their MIME type and optional
// metadata. SVG payloads are marked isolated so that glyph and ID
// declarations do not collide with other inline SVGs when the payload
// is embedded in a page. Publishers deliver payloads to files, raw
// byte streams, or a JSON display document (base64 data keyed by MIME
// type) for machine consumers.
package display

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"os"

	"github.com/tikzkit/tikzkit/pkg/errors"
)

// MIMETypes maps output formats to their MIME types.
var MIMETypes = map[string]string{
	"png":  "image/png",
	"svg":  "image/svg+xml",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
}

// MIMEType returns the MIME type for a format, falling back to
// image/<format> for unknown formats.
func MIMEType(format string) string {
	if mt, ok := MIMETypes[format]; ok {
		return mt
	}
	return "image/" + format
}

// Payload is a MIME-tagged artifact ready for publication.
type Payload struct {
	MIME     string
	Data     []byte
	Metadata map[string]string
}

// NewPayload builds a payload for the given format. SVG payloads get
// isolated=true metadata.
func NewPayload(format string, data []byte) *Payload {
	p := &Payload{
		MIME: MIMEType(format),
		Data: data,
	}
	if format == "svg" {
		p.Metadata = map[string]string{"isolated": "true"}
	}
	return p
}

// Publisher delivers a payload to its destination.
type Publisher interface {
	Publish(p *Payload) error
}

// FilePublisher writes payload bytes to a file path.
type FilePublisher struct {
	Path string
}

// Publish writes the payload data to the configured path.
func (f *FilePublisher) Publish(p *Payload) error {
	if err := os.WriteFile(f.Path, p.Data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", f.Path)
	}
	return nil
}

// StreamPublisher writes raw payload bytes to a writer.
type StreamPublisher struct {
	W io.Writer
}

// Publish writes the payload data to the stream.
func (s *StreamPublisher) Publish(p *Payload) error {
	if _, err := s.W.Write(p.Data); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write payload")
	}
	return nil
}

// displayDocument is the JSON shape emitted by DocumentPublisher.
// Data is keyed by MIME type with base64-encoded contents, mirroring
// the display payload convention of notebook frontends.
type displayDocument struct {
	Data     map[string]string `json:"data"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DocumentPublisher writes the payload as a JSON display document.
type DocumentPublisher struct {
	W io.Writer
}

// Publish encodes the payload as JSON on the writer.
func (d *DocumentPublisher) Publish(p *Payload) error {
	doc := displayDocument{
		Data:     map[string]string{p.MIME: base64.StdEncoding.EncodeToString(p.Data)},
		Metadata: p.Metadata,
	}
	enc := json.NewEncoder(d.W)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode display document")
	}
	return nil
}
