package domain

import (
	"strings"
	"testing"

	"bluecollar-chat/errors"

	"github.com/stretchr/testify/require"
)

func TestPayload_ValidateText(t *testing.T) {
	t.Run("should accept plain text", func(t *testing.T) {
		req := require.New(t)
		req.NoError(TextPayload("hello, when can you come by?").Validate())
	})

	t.Run("should reject empty and whitespace-only text", func(t *testing.T) {
		req := require.New(t)
		req.ErrorIs(TextPayload("").Validate(), errors.ErrInvalidPayload)
		req.ErrorIs(TextPayload("   \n\t").Validate(), errors.ErrInvalidPayload)
	})

	t.Run("should reject text above the length cap", func(t *testing.T) {
		req := require.New(t)
		err := TextPayload(strings.Repeat("a", MaxTextLength+1)).Validate()
		req.ErrorIs(err, errors.ErrInvalidPayload)
	})

	t.Run("should accept text exactly at the cap", func(t *testing.T) {
		req := require.New(t)
		req.NoError(TextPayload(strings.Repeat("a", MaxTextLength)).Validate())
	})
}

func TestPayload_ValidateLocation(t *testing.T) {
	t.Run("should accept valid coordinates", func(t *testing.T) {
		req := require.New(t)
		p := Payload{Kind: PayloadLocation, Location: &Location{Latitude: 48.85, Longitude: 2.35, Label: "Job site"}}
		req.NoError(p.Validate())
	})

	t.Run("should reject out-of-range coordinates", func(t *testing.T) {
		req := require.New(t)
		p := Payload{Kind: PayloadLocation, Location: &Location{Latitude: 91, Longitude: 0}}
		req.ErrorIs(p.Validate(), errors.ErrInvalidPayload)

		p = Payload{Kind: PayloadLocation, Location: &Location{Latitude: 0, Longitude: -181}}
		req.ErrorIs(p.Validate(), errors.ErrInvalidPayload)
	})

	t.Run("should reject missing coordinates", func(t *testing.T) {
		req := require.New(t)
		p := Payload{Kind: PayloadLocation}
		req.ErrorIs(p.Validate(), errors.ErrInvalidPayload)
	})
}

func TestPayload_ValidateImage(t *testing.T) {
	// Smallest valid PNG header, enough for content sniffing.
	pngBytes := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	t.Run("should accept a stored reference", func(t *testing.T) {
		req := require.New(t)
		p := Payload{Kind: PayloadImage, Image: &Image{Ref: "https://cdn.example.com/uploads/abc.png"}}
		req.NoError(p.Validate())
	})

	t.Run("should accept inline image bytes", func(t *testing.T) {
		req := require.New(t)
		p := Payload{Kind: PayloadImage, Image: &Image{Data: pngBytes}}
		req.NoError(p.Validate())
	})

	t.Run("should reject inline bytes that are not an image", func(t *testing.T) {
		req := require.New(t)
		p := Payload{Kind: PayloadImage, Image: &Image{Data: []byte("#!/bin/sh\nrm -rf /")}}
		req.ErrorIs(p.Validate(), errors.ErrInvalidPayload)
	})

	t.Run("should reject image without reference or data", func(t *testing.T) {
		req := require.New(t)
		p := Payload{Kind: PayloadImage, Image: &Image{}}
		req.ErrorIs(p.Validate(), errors.ErrInvalidPayload)
	})
}

func TestPayload_ValidateUnknownKind(t *testing.T) {
	req := require.New(t)
	p := Payload{Kind: "video"}
	req.ErrorIs(p.Validate(), errors.ErrInvalidPayload)
}
