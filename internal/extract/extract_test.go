package extract

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claim-summarizer/internal/extract/extracttest"
)

func TestRegistryDispatch(t *testing.T) {
	reg := Default()

	tests := []struct {
		mediaType string
		supported bool
	}{
		{MediaTypePDF, true},
		{"APPLICATION/PDF", true},
		{"application/pdf; charset=binary", true},
		{MediaTypeDOCX, true},
		{"text/plain", false},
		{"application/msword", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			assert.Equal(t, tt.supported, reg.Supports(tt.mediaType))
		})
	}
}

func TestRegistryRejectsUnsupportedBeforeExtraction(t *testing.T) {
	inner := new(MockExtractor)
	inner.On("Supports", "text/plain").Return(false).Once()
	reg := NewRegistry(inner)

	_, err := reg.Extract(context.Background(), Document{MediaType: "text/plain", Content: []byte("claim")})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	inner.AssertNotCalled(t, "Extract")
	inner.AssertExpectations(t)
}

func TestPDFExtract(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  string
	}{
		{
			name:  "single page",
			pages: []string{"Insurance claim for water damage."},
			want:  "Insurance claim for water damage.",
		},
		{
			name:  "pages concatenated without separator",
			pages: []string{"Policy 42.", "Deductible applies."},
			want:  "Policy 42.Deductible applies.",
		},
		{
			name:  "page without content contributes nothing",
			pages: []string{"Before.", "", "After."},
			want:  "Before.After.",
		},
		{
			name:  "no text at all",
			pages: []string{""},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Document{Filename: "claim.pdf", MediaType: MediaTypePDF, Content: extracttest.PDF(t, tt.pages...)}
			got, err := Default().Extract(context.Background(), doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPDFExtractCorrupt(t *testing.T) {
	doc := Document{Filename: "broken.pdf", MediaType: MediaTypePDF, Content: []byte("definitely not a pdf")}

	_, err := Default().Extract(context.Background(), doc)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction), "expected ErrExtraction, got %v", err)
	assert.False(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestWordExtract(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "paragraphs joined with trailing newline",
			body: extracttest.Paragraph("Claim number 7.") + extracttest.Paragraph("Water damage in kitchen."),
			want: "Claim number 7.\nWater damage in kitchen.\n",
		},
		{
			name: "empty paragraph keeps its newline",
			body: extracttest.Paragraph("First.") + `<w:p/>` + extracttest.Paragraph("Third."),
			want: "First.\n\nThird.\n",
		},
		{
			name: "runs, tabs and breaks",
			body: `<w:p><w:r><w:t>Insured:</w:t></w:r><w:r><w:tab/><w:t>J. Doe</w:t><w:br/><w:t>Unit 4</w:t></w:r></w:p>`,
			want: "Insured:\tJ. Doe\nUnit 4\n",
		},
		{
			name: "table paragraphs are not body paragraphs",
			body: extracttest.Paragraph("Intro.") +
				`<w:tbl><w:tr><w:tc>` + extracttest.Paragraph("cell") + `</w:tc></w:tr></w:tbl>` +
				extracttest.Paragraph("Outro."),
			want: "Intro.\nOutro.\n",
		},
		{
			name: "escaped characters",
			body: extracttest.Paragraph(`Smith & Sons "Ltd"`),
			want: "Smith & Sons \"Ltd\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Document{Filename: "claim.docx", MediaType: MediaTypeDOCX, Content: extracttest.DOCX(t, tt.body)}
			got, err := Default().Extract(context.Background(), doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWordExtractCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"not a zip", []byte("plain bytes")},
		{"zip without document part", func() []byte {
			b := extracttest.DOCX(t, "")
			// Rename the main part so it can no longer be found.
			return bytes.ReplaceAll(b, []byte(wordMainPart), []byte("word/documenX.xml"))
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Default().Extract(context.Background(), Document{MediaType: MediaTypeDOCX, Content: tt.content})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrExtraction), "expected ErrExtraction, got %v", err)
		})
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	docs := []Document{
		{MediaType: MediaTypePDF, Content: extracttest.PDF(t, "Page one. ", "Page two.")},
		{MediaType: MediaTypeDOCX, Content: extracttest.DOCX(t, extracttest.Paragraph("A.")+extracttest.Paragraph("B."))},
	}
	reg := Default()
	for _, doc := range docs {
		first, err := reg.Extract(context.Background(), doc)
		require.NoError(t, err)
		second, err := reg.Extract(context.Background(), doc)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}
