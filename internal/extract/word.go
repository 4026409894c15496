package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const wordMainPart = "word/document.xml"

// Word extracts body paragraphs from an OOXML word-processing document. Every
// paragraph is followed by a newline, the last one included.
type Word struct{}

func (Word) Supports(mediaType string) bool {
	return NormalizeMediaType(mediaType) == MediaTypeDOCX
}

func (Word) Extract(ctx context.Context, doc Document) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	if err != nil {
		return "", extractionError(doc, err)
	}
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == wordMainPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", extractionError(doc, fmt.Errorf("missing %s", wordMainPart))
	}
	rc, err := part.Open()
	if err != nil {
		return "", extractionError(doc, err)
	}
	defer rc.Close()

	text, err := paragraphText(ctx, rc)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", extractionError(doc, err)
	}
	return text, nil
}

// paragraphText walks document.xml and collects paragraphs that are direct
// children of w:body. Table cells and text boxes are skipped.
func paragraphText(ctx context.Context, r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		out       strings.Builder
		para      strings.Builder
		stack     []string
		inPara    bool
		paraDepth int
		inText    bool
		skipDepth int // >0 while inside a nested text box
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			depth := len(stack)
			switch {
			case t.Name.Local == "p" && !inPara && depth == 3 && stack[0] == "document" && stack[1] == "body":
				inPara = true
				paraDepth = depth
				para.Reset()
			case !inPara:
			case t.Name.Local == "txbxContent":
				skipDepth++
			case skipDepth > 0:
			case stack[depth-2] != "r":
				// tab stops and other properties live outside runs
			case t.Name.Local == "t":
				inText = true
			case t.Name.Local == "tab":
				para.WriteByte('\t')
			case t.Name.Local == "br" || t.Name.Local == "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			depth := len(stack)
			if depth > 0 {
				stack = stack[:depth-1]
			}
			switch {
			case inPara && depth == paraDepth && t.Name.Local == "p":
				inPara = false
				out.WriteString(para.String())
				out.WriteByte('\n')
				if err := ctx.Err(); err != nil {
					return "", err
				}
			case t.Name.Local == "txbxContent" && skipDepth > 0:
				skipDepth--
			case t.Name.Local == "t":
				inText = false
			}
		case xml.CharData:
			if inPara && inText && skipDepth == 0 {
				para.Write(t)
			}
		}
	}
	if len(stack) != 0 {
		return "", fmt.Errorf("%s: unexpected end of document", wordMainPart)
	}
	return out.String(), nil
}
