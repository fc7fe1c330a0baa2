package domain

import (
	"fmt"
	"strings"

	"bluecollar-chat/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

type PayloadKind string

const (
	PayloadText     PayloadKind = "text"
	PayloadLocation PayloadKind = "location"
	PayloadImage    PayloadKind = "image"
)

// MaxTextLength bounds the content of a single text message.
const MaxTextLength = 4096

var validate = validator.New()

// Location is a shared position, e.g. a provider pinning a job site.
type Location struct {
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
	Label     string  `json:"label,omitempty" validate:"max=140"`
}

// Image references a stored attachment, or carries inline bytes
// when the client uploads through the relay.
type Image struct {
	Ref  string `json:"ref,omitempty" validate:"omitempty,uri"`
	Data []byte `json:"data,omitempty"`
}

// Payload is the content of a message: exactly one of the
// kind-specific fields must be set, matching Kind.
type Payload struct {
	Kind     PayloadKind `json:"kind"`
	Text     string      `json:"text,omitempty"`
	Location *Location   `json:"location,omitempty"`
	Image    *Image      `json:"image,omitempty"`
}

func TextPayload(content string) Payload {
	return Payload{Kind: PayloadText, Text: content}
}

// Validate applies type-specific rules and wraps every failure
// in ErrInvalidPayload so callers can match on the taxonomy.
func (p Payload) Validate() error {
	switch p.Kind {
	case PayloadText:
		trimmed := strings.TrimSpace(p.Text)
		if trimmed == "" {
			return fmt.Errorf("%w: empty text", errors.ErrInvalidPayload)
		}
		if len(p.Text) > MaxTextLength {
			return fmt.Errorf("%w: text exceeds %d bytes", errors.ErrInvalidPayload, MaxTextLength)
		}
	case PayloadLocation:
		if p.Location == nil {
			return fmt.Errorf("%w: location payload missing coordinates", errors.ErrInvalidPayload)
		}
		if err := validate.Struct(p.Location); err != nil {
			return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
		}
	case PayloadImage:
		if p.Image == nil || (p.Image.Ref == "" && len(p.Image.Data) == 0) {
			return fmt.Errorf("%w: image payload missing reference and data", errors.ErrInvalidPayload)
		}
		if err := validate.Struct(p.Image); err != nil {
			return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
		}
		if len(p.Image.Data) > 0 {
			// Inline uploads are sniffed, never trusted from headers.
			kind := mimetype.Detect(p.Image.Data)
			if !strings.HasPrefix(kind.String(), "image/") {
				return fmt.Errorf("%w: inline data is %s, not an image", errors.ErrInvalidPayload, kind.String())
			}
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", errors.ErrInvalidPayload, p.Kind)
	}
	return nil
}
