package crudclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Attachment is a file selected for upload. Its content is read only when
// a payload is encoded, so the same attachment can be submitted again after
// a failed attempt.
type Attachment struct {
	Filename string
	open     func() (io.ReadCloser, error)
}

// FileAttachment references a file on disk.
func FileAttachment(path string) (*Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("attachment %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("attachment %q is a directory", path)
	}
	return &Attachment{
		Filename: filepath.Base(path),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// BytesAttachment wraps in-memory data as an attachment.
func BytesAttachment(filename string, data []byte) *Attachment {
	return &Attachment{
		Filename: filename,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Open returns a fresh reader over the attachment content.
func (a *Attachment) Open() (io.ReadCloser, error) {
	if a == nil || a.open == nil {
		return nil, fmt.Errorf("attachment has no content")
	}
	return a.open()
}

// Field is a single text part of a multipart payload.
type Field struct {
	Name  string
	Value string
}

// FilePart is a single file part of a multipart payload.
type FilePart struct {
	Field string
	File  *Attachment
}

// Payload is an ordered multipart form body. Repeating a name produces
// repeated parts; servers treat them as an array.
type Payload struct {
	Fields []Field
	Files  []FilePart
}

// AddField appends a text part.
func (p *Payload) AddField(name, value string) {
	p.Fields = append(p.Fields, Field{Name: name, Value: value})
}

// AddFile appends a file part.
func (p *Payload) AddFile(field string, file *Attachment) {
	p.Files = append(p.Files, FilePart{Field: field, File: file})
}

// Values returns the text values submitted under name, in order.
func (p Payload) Values(name string) []string {
	var out []string
	for _, f := range p.Fields {
		if f.Name == name {
			out = append(out, f.Value)
		}
	}
	return out
}

// FileCount returns how many file parts are submitted under field.
func (p Payload) FileCount(field string) int {
	n := 0
	for _, f := range p.Files {
		if f.Field == field {
			n++
		}
	}
	return n
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encode writes the payload as multipart/form-data and returns the body and
// its content type. Each file part is labelled with its sniffed MIME type.
func (p Payload) encode() (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, f := range p.Fields {
		if err := writer.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.Name, err)
		}
	}

	for _, f := range p.Files {
		data, err := readAttachment(f.File)
		if err != nil {
			return nil, "", fmt.Errorf("read %s attachment: %w", f.Field, err)
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.File.Filename)))
		header.Set("Content-Type", mimetype.Detect(data).String())

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &body, writer.FormDataContentType(), nil
}

func readAttachment(a *Attachment) ([]byte, error) {
	rc, err := a.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
