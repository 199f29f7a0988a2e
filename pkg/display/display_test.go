package display

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestMIMEType(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"png", "image/png"},
		{"svg", "image/svg+xml"},
		{"jpg", "image/jpeg"},
		{"jpeg", "image/jpeg"},
		{"webp", "image/webp"},
	}

	for _, tt := range tests {
		if got := MIMEType(tt.format); got != tt.want {
			t.Errorf("MIMEType(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestNewPayloadIsolatesSVG(t *testing.T) {
	p := NewPayload("svg", []byte("<svg/>"))
	if p.Metadata["isolated"] != "true" {
		t.Errorf("SVG payload metadata = %v, want isolated=true", p.Metadata)
	}

	p = NewPayload("png", []byte{1})
	if p.Metadata != nil {
		t.Errorf("PNG payload metadata = %v, want nil", p.Metadata)
	}
}

func TestFilePublisher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	p := NewPayload("png", []byte{0x89, 0x50})

	if err := (&FilePublisher{Path: path}).Publish(p); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(data, p.Data) {
		t.Errorf("data = %v, want %v", data, p.Data)
	}
}

func TestStreamPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewPayload("png", []byte("raw-bytes"))

	if err := (&StreamPublisher{W: &buf}).Publish(p); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if buf.String() != "raw-bytes" {
		t.Errorf("stream = %q", buf.String())
	}
}

func TestDocumentPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewPayload("svg", []byte("<svg/>"))

	if err := (&DocumentPublisher{W: &buf}).Publish(p); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	var doc struct {
		Data     map[string]string `json:"data"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := base64.StdEncoding.EncodeToString([]byte("<svg/>"))
	if doc.Data["image/svg+xml"] != want {
		t.Errorf("data = %v", doc.Data)
	}
	if doc.Metadata["isolated"] != "true" {
		t.Errorf("metadata = %v", doc.Metadata)
	}
}
