// Package eml extracts headers and readable body text from RFC 822 email files.
package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
	"github.com/custodia-labs/sage-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sage-cli/internal/normalisers/textutil"
	"github.com/custodia-labs/sage-cli/internal/normalisers/html"
)

// maxDepth bounds multipart nesting.
const maxDepth = 8

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles email messages.
type Normaliser struct {
	html *html.Normaliser
}

// New creates a new EML normaliser.
func New() *Normaliser {
	return &Normaliser{html: html.New()}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"message/rfc822"}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".eml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise renders the address headers followed by the message body. The
// subject becomes the title. Plain text parts win over HTML alternatives and
// attachments are ignored.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: not an email message: %v", domain.ErrInvalidInput, err)
	}

	var dec mime.WordDecoder
	header := func(name string) string {
		v := msg.Header.Get(name)
		if decoded, err := dec.DecodeHeader(v); err == nil {
			return decoded
		}
		return v
	}

	body, err := n.body(ctx, msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body, 0)
	if err != nil {
		return nil, err
	}

	var out strings.Builder
	subject := header("Subject")
	for _, name := range []string{"From", "To", "Cc", "Date", "Subject"} {
		if v := header(name); v != "" {
			fmt.Fprintf(&out, "%s: %s\n", name, v)
		}
	}
	out.WriteString("\n")
	out.WriteString(body)

	title := subject
	if title == "" {
		title = textutil.TitleFromFilename(raw.Filename)
	}

	return &driven.NormaliseResult{
		Title:   title,
		Content: strings.TrimSpace(out.String()),
		Format:  "eml",
	}, nil
}

func (n *Normaliser) body(ctx context.Context, contentType, encoding string, r io.Reader, depth int) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || contentType == "" {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if depth >= maxDepth || params["boundary"] == "" {
			return "", nil
		}
		return n.multipart(ctx, multipart.NewReader(r, params["boundary"]), depth+1)
	}

	data, err := io.ReadAll(decodeTransfer(encoding, r))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", domain.ErrInvalidInput, err)
	}

	switch mediaType {
	case "text/html":
		res, err := n.html.Normalise(ctx, &domain.RawFile{Filename: "body.html", Content: data})
		if err != nil {
			return "", err
		}
		return res.Content, nil
	case "text/plain":
		return strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n")), nil
	default:
		return "", nil
	}
}

func (n *Normaliser) multipart(ctx context.Context, mr *multipart.Reader, depth int) (string, error) {
	var plain, rich []string
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		if isAttachment(part.Header.Get("Content-Disposition")) {
			part.Close()
			continue
		}

		ct := part.Header.Get("Content-Type")
		// multipart.Reader already undoes quoted-printable.
		enc := part.Header.Get("Content-Transfer-Encoding")
		text, err := n.body(ctx, ct, enc, part, depth)
		part.Close()
		if err != nil || text == "" {
			continue
		}

		if mt, _, _ := mime.ParseMediaType(ct); mt == "text/html" {
			rich = append(rich, text)
		} else {
			plain = append(plain, text)
		}
	}

	if len(plain) > 0 {
		return strings.Join(plain, "\n\n"), nil
	}
	return strings.Join(rich, "\n\n"), nil
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

func isAttachment(disposition string) bool {
	d, _, err := mime.ParseMediaType(disposition)
	return err == nil && d == "attachment"
}
