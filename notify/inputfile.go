package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MaxUploadSize is the maximum file size for Bot API uploads (50MB).
	// For larger files, use external storage and send URL.
	MaxUploadSize = 50 * 1024 * 1024

	// MaxPhotoSize is the maximum photo file size (10MB).
	MaxPhotoSize = 10 * 1024 * 1024
)

// InputFile is a tagged variant over the supported file sources.
// Use one of the constructors: FromPath, FromURL, FromBytes, FromReader,
// FromFileID. Exactly one source should be set; when several are set the
// first match in the order Path, URL, Data, Source, Reader wins.
type InputFile struct {
	// FileID references a file already stored on Telegram servers.
	FileID string

	// URL references a file by HTTP(S) URL (Telegram will download).
	URL string

	// Path references a local file. It is opened fresh for every request
	// attempt and closed when the attempt finishes, so retries never see
	// an exhausted reader.
	Path string

	// Data holds in-memory file content. Each attempt gets a fresh
	// bytes.Reader, making the upload retry-safe.
	Data []byte

	// Reader provides file content for upload.
	// Content is streamed directly - not buffered in memory.
	// WARNING: io.Reader can only be consumed once. If the request is retried
	// (e.g., on 429/5xx), the retry will send an empty file. Prefer FromPath
	// or FromBytes for retry-safe uploads, or set Source instead.
	Reader io.Reader

	// Source is a factory that returns a fresh io.Reader for each attempt.
	// When set, this takes priority over Reader for multipart uploads,
	// making the request retry-safe.
	Source func() io.Reader

	// FileName is used as the multipart filename for uploads.
	// Required when Reader or Source is set; derived from Path otherwise.
	FileName string
}

// FromPath creates an InputFile for a local file. The file is opened
// once per request attempt and closed after the attempt completes,
// regardless of outcome.
func FromPath(path string) InputFile {
	return InputFile{
		Path:     path,
		FileName: filepath.Base(path),
	}
}

// FromURL creates an InputFile from a URL (Telegram will download).
func FromURL(url string) InputFile {
	return InputFile{URL: url}
}

// FromBytes creates a retry-safe InputFile from in-memory bytes.
// Each request attempt gets a fresh reader, so retries work correctly.
func FromBytes(data []byte, filename string) InputFile {
	if data == nil {
		data = []byte{}
	}
	return InputFile{
		Data:     data,
		FileName: filename,
	}
}

// FromReader creates an InputFile from an io.Reader.
// The reader is streamed directly - not buffered in memory. The caller
// keeps ownership: the reader is never closed by the transport.
// WARNING: Not retry-safe. If the request is retried, the reader will be at EOF.
// Use FromPath or FromBytes for retry-safe uploads.
func FromReader(r io.Reader, filename string) InputFile {
	return InputFile{
		Reader:   r,
		FileName: filename,
	}
}

// FromFileID creates an InputFile referencing an existing Telegram file.
func FromFileID(fileID string) InputFile {
	return InputFile{FileID: fileID}
}

// ResolveSource maps a loosely-typed value to an InputFile, in priority
// order local path, URL, raw bytes, readable stream:
//
//   - InputFile: used as-is
//   - string starting with http:// or https://: remote URL
//   - any other string: local file path
//   - []byte: in-memory content
//   - io.Reader: single-use stream
func ResolveSource(v any) (InputFile, error) {
	switch src := v.(type) {
	case InputFile:
		return src, nil
	case string:
		if strings.HasPrefix(strings.ToLower(src), "http://") ||
			strings.HasPrefix(strings.ToLower(src), "https://") {
			return FromURL(src), nil
		}
		return FromPath(src), nil
	case []byte:
		return FromBytes(src, ""), nil
	case io.Reader:
		return FromReader(src, ""), nil
	default:
		return InputFile{}, fmt.Errorf("unsupported source type %T (use path, URL, []byte, or io.Reader)", v)
	}
}

// IsUpload returns true if this InputFile requires multipart upload.
func (f InputFile) IsUpload() bool {
	return f.Path != "" || f.Data != nil || f.Reader != nil || f.Source != nil
}

// IsEmpty returns true if the InputFile has no value set.
func (f InputFile) IsEmpty() bool {
	return f.FileID == "" && f.URL == "" && f.Path == "" &&
		f.Data == nil && f.Reader == nil && f.Source == nil
}

// ownedReader marks a reader the transport opened itself and therefore
// must close. Caller-provided readers (FromReader, Source factories)
// are never wrapped and never closed; their lifecycle belongs to the
// caller.
type ownedReader struct {
	io.ReadCloser
}

// open returns a reader for the file content. Path-based files are
// opened fresh and wrapped in ownedReader so the transport closes only
// handles it opened itself; Data and Source yield a fresh reader per
// call (retry-safe); Reader is returned directly (single-use,
// caller-owned).
func (f InputFile) open() (io.Reader, error) {
	switch {
	case f.Path != "":
		file, err := os.Open(f.Path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Path, err)
		}
		return ownedReader{file}, nil
	case f.Data != nil:
		return bytes.NewReader(f.Data), nil
	case f.Source != nil:
		return f.Source(), nil
	default:
		return f.Reader, nil
	}
}

// Value returns the string value for JSON serialization (FileID or URL).
// Returns empty string if this is an upload.
func (f InputFile) Value() string {
	if f.FileID != "" {
		return f.FileID
	}
	if f.URL != "" {
		return f.URL
	}
	return ""
}

// MarshalJSON returns the string value (FileID or URL) for JSON encoding.
// Uploads use multipart and never take this path.
func (f InputFile) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Value())
}
