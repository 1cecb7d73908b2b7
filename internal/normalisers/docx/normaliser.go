// Package docx extracts paragraph text from Word (.docx) files.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sage-cli/internal/normalisers/textutil"
)

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"

	// maxPartSize bounds how much of one zip entry is read.
	maxPartSize = 64 << 20
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".docx"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of every paragraph in the document body,
// including paragraphs inside tables, one paragraph per line.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %v", domain.ErrInvalidInput, err)
	}

	text, err := readPart(archive, documentPart, bodyText)
	if err != nil {
		return nil, err
	}

	title, err := readPart(archive, corePart, coreTitle)
	if err != nil || title == "" {
		title = textutil.TitleFromFilename(raw.Filename)
	}

	return &driven.NormaliseResult{
		Title:   title,
		Content: text,
		Format:  "docx",
	}, nil
}

// readPart decodes one archive entry with parse. A missing entry yields "".
func readPart(archive *zip.Reader, name string, parse func(*xml.Decoder) (string, error)) (string, error) {
	f, err := archive.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", domain.ErrInvalidInput, name, err)
	}
	defer f.Close()

	out, err := parse(xml.NewDecoder(io.LimitReader(f, maxPartSize)))
	if err != nil {
		return "", fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidInput, name, err)
	}
	return out, nil
}

// bodyText walks WordprocessingML tokens. Text lives in <w:t>, <w:tab/> and
// <w:br/> add whitespace, and each <w:p> ends a line.
func bodyText(dec *xml.Decoder) (string, error) {
	var (
		b      strings.Builder
		line   strings.Builder
		inText bool
	)
	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(s)
		}
		line.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			flush()
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteByte('\t')
			case "br", "cr":
				line.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
}

// coreTitle reads dc:title from the package core properties.
func coreTitle(dec *xml.Decoder) (string, error) {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == "title" {
			var title string
			if err := dec.DecodeElement(&title, &start); err != nil {
				return "", err
			}
			return strings.TrimSpace(title), nil
		}
	}
}
