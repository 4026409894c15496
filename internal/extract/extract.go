// Package extract turns uploaded documents into plain text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
)

// Media types accepted for upload.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	// ErrUnsupportedFormat is returned for media types no extractor handles.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrExtraction wraps parse failures on a recognized format.
	ErrExtraction = errors.New("document extraction failed")
)

// Document is an uploaded file with its declared media type.
type Document struct {
	Filename  string
	MediaType string
	Content   []byte
}

// Extractor produces plain text from documents it supports.
type Extractor interface {
	Supports(mediaType string) bool
	Extract(ctx context.Context, doc Document) (string, error)
}

// Registry dispatches to the first extractor supporting the declared media type.
type Registry struct {
	extractors []Extractor
}

// NewRegistry builds a registry over the given extractors, in priority order.
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// Default returns a registry handling PDF and Word documents.
func Default() *Registry {
	return NewRegistry(PDF{}, Word{})
}

func (r *Registry) Supports(mediaType string) bool {
	return r.lookup(mediaType) != nil
}

func (r *Registry) Extract(ctx context.Context, doc Document) (string, error) {
	ex := r.lookup(doc.MediaType)
	if ex == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, doc.MediaType)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return ex.Extract(ctx, doc)
}

func (r *Registry) lookup(mediaType string) Extractor {
	for _, ex := range r.extractors {
		if ex.Supports(mediaType) {
			return ex
		}
	}
	return nil
}

// NormalizeMediaType lowercases the type and strips parameters such as charset.
func NormalizeMediaType(mediaType string) string {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mediaType))
	}
	return mt
}

func extractionError(doc Document, err error) error {
	name := doc.Filename
	if name == "" {
		name = doc.MediaType
	}
	return fmt.Errorf("%w: %s: %w", ErrExtraction, name, err)
}
