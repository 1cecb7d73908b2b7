package domain

// RawFile is an uploaded file before its text is extracted.
type RawFile struct {
	// Filename is the original file name, used to infer the format.
	Filename string

	// MIMEType is the declared content type. May be empty.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}
