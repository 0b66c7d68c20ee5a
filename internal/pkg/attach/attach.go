// Package attach turns uploaded files into provider-ready attachments:
// size-capped read, content-based MIME detection, kind classification,
// and base64 data URI rendering.
package attach

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
	KindAudio    Kind = "audio"
)

var (
	// ErrTooLarge means the upload exceeded the configured cap.
	ErrTooLarge = errors.New("attachment exceeds size limit")
	// ErrUnsupportedType means the sniffed MIME type is not accepted
	// for the requested kind.
	ErrUnsupportedType = errors.New("unsupported media type")
)

// Attachment is one uploaded file, ready to hand to a provider.
type Attachment struct {
	Kind     Kind
	MIME     string
	Filename string
	Data     []byte
}

var allowedMIME = map[Kind][]string{
	KindImage:    {"image/png", "image/jpeg", "image/webp", "image/gif"},
	KindDocument: {"application/pdf", "text/plain", "text/csv", "text/markdown"},
	KindAudio:    {"audio/mpeg", "audio/wav", "audio/x-wav", "audio/ogg", "audio/flac"},
}

// Read consumes r up to maxBytes and classifies the content as kind.
// Classification uses the sniffed content, never the client filename.
func Read(r io.Reader, filename string, kind Kind, maxBytes int64) (Attachment, error) {
	if maxBytes <= 0 {
		return Attachment{}, fmt.Errorf("attachment size limit must be > 0")
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return Attachment{}, fmt.Errorf("reading attachment: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return Attachment{}, fmt.Errorf("%w (limit %d bytes)", ErrTooLarge, maxBytes)
	}
	if len(data) == 0 {
		return Attachment{}, fmt.Errorf("attachment is empty")
	}
	mime := detect(data)
	if !mimeAllowed(kind, mime) {
		return Attachment{}, fmt.Errorf("%w: %s is not accepted as %s", ErrUnsupportedType, mime, kind)
	}
	return Attachment{Kind: kind, MIME: mime, Filename: filename, Data: data}, nil
}

func detect(data []byte) string {
	m := mimetype.Detect(data)
	// Strip parameters such as "; charset=utf-8" for text types.
	s := m.String()
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func mimeAllowed(kind Kind, mime string) bool {
	for _, a := range allowedMIME[kind] {
		if strings.EqualFold(a, mime) {
			return true
		}
	}
	return false
}

// DataURI renders the attachment as a base64 data: URI, the inline form
// OpenAI-compatible vision endpoints expect.
func (a Attachment) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MIME, base64.StdEncoding.EncodeToString(a.Data))
}

// IsText reports whether the attachment body can be inlined as plain text.
func (a Attachment) IsText() bool {
	return strings.HasPrefix(a.MIME, "text/")
}
