package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF extracts text page by page. Pages are concatenated with no separator.
type PDF struct{}

func (PDF) Supports(mediaType string) bool {
	return NormalizeMediaType(mediaType) == MediaTypePDF
}

func (PDF) Extract(ctx context.Context, doc Document) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = extractionError(doc, fmt.Errorf("pdf parser panic: %v", rec))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	if err != nil {
		return "", extractionError(doc, err)
	}

	var textBuilder strings.Builder
	numPages := reader.NumPage()
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(pageNum)
		// A page without content has no text; it contributes nothing.
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", extractionError(doc, fmt.Errorf("page %d: %w", pageNum, err))
		}
		textBuilder.WriteString(pageText)
	}
	return textBuilder.String(), nil
}
