package notify

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"reflect"
	"strconv"
	"strings"

	"github.com/prilive-com/notigo/tg"
)

// FilePart represents a file to be uploaded via multipart.
type FilePart struct {
	FieldName string    // e.g., "photo", "document"
	FileName  string    // e.g., "photo.jpg"
	Reader    io.Reader // File content; closed after encoding only if the transport opened it
}

// MultipartRequest represents a request with files and parameters.
type MultipartRequest struct {
	Files  []FilePart        // Explicit file parts
	Params map[string]string // String-encoded parameters
}

// HasUploads returns true if the request contains file uploads.
func (r MultipartRequest) HasUploads() bool {
	return len(r.Files) > 0
}

// Close releases file handles the transport opened itself (local
// paths). Caller-provided streams are never closed. Safe to call after
// Encode; already-closed files are ignored.
func (r MultipartRequest) Close() {
	for _, f := range r.Files {
		if oc, ok := f.Reader.(ownedReader); ok {
			_ = oc.Close()
		}
	}
}

// MultipartEncoder encodes requests as multipart/form-data.
type MultipartEncoder struct {
	w *multipart.Writer
}

// NewMultipartEncoder creates a new multipart encoder.
func NewMultipartEncoder(w io.Writer) *MultipartEncoder {
	return &MultipartEncoder{
		w: multipart.NewWriter(w),
	}
}

// ContentType returns the Content-Type header value including boundary.
func (e *MultipartEncoder) ContentType() string {
	return e.w.FormDataContentType()
}

// Close closes the multipart writer.
func (e *MultipartEncoder) Close() error {
	return e.w.Close()
}

// Encode writes the multipart request. File handles the transport
// opened itself are closed once their content has been copied, whether
// the copy succeeded or not; caller-provided streams stay open.
func (e *MultipartEncoder) Encode(req MultipartRequest) error {
	for _, file := range req.Files {
		if err := e.writeFile(file); err != nil {
			return fmt.Errorf("file %s: %w", file.FieldName, err)
		}
	}

	for name, value := range req.Params {
		if err := e.w.WriteField(name, value); err != nil {
			return fmt.Errorf("param %s: %w", name, err)
		}
	}

	return nil
}

func (e *MultipartEncoder) writeFile(file FilePart) error {
	if oc, ok := file.Reader.(ownedReader); ok {
		defer oc.Close()
	}

	part, err := e.w.CreateFormFile(file.FieldName, file.FileName)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}

	// Stream directly - no buffering
	_, err = io.Copy(part, file.Reader)
	return err
}

// BuildMultipartRequest creates a MultipartRequest from a typed request struct.
// Uses reflection for field iteration, but explicit handling for known types.
// Path-based InputFiles are opened here, once per call, so every retry
// attempt gets a fresh file handle.
func BuildMultipartRequest(req any) (MultipartRequest, error) {
	result := MultipartRequest{
		Files:  make([]FilePart, 0),
		Params: make(map[string]string),
	}

	rv := reflect.ValueOf(req)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}

	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		value := rv.Field(i)

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}

		// Skip zero values (omitempty behavior)
		if value.IsZero() {
			continue
		}

		// Get JSON field name
		fieldName := getJSONFieldName(field)
		if fieldName == "-" {
			continue
		}

		switch v := value.Interface().(type) {
		case InputFile:
			if err := handleInputFile(&result, fieldName, v); err != nil {
				result.Close()
				return result, fmt.Errorf("field %s: %w", fieldName, err)
			}

		case *InputFile:
			if v != nil {
				if err := handleInputFile(&result, fieldName, *v); err != nil {
					result.Close()
					return result, fmt.Errorf("field %s: %w", fieldName, err)
				}
			}

		case string:
			result.Params[fieldName] = v

		case tg.ParseMode:
			result.Params[fieldName] = string(v)

		case int:
			result.Params[fieldName] = strconv.Itoa(v)

		case int64:
			result.Params[fieldName] = strconv.FormatInt(v, 10)

		case float64:
			result.Params[fieldName] = strconv.FormatFloat(v, 'f', -1, 64)

		case bool:
			result.Params[fieldName] = strconv.FormatBool(v)

		default:
			// Complex types (structs, slices, maps) -> JSON encode
			data, err := json.Marshal(v)
			if err != nil {
				result.Close()
				return result, fmt.Errorf("field %s: JSON marshal: %w", fieldName, err)
			}
			result.Params[fieldName] = string(data)
		}
	}

	return result, nil
}

func handleInputFile(req *MultipartRequest, fieldName string, file InputFile) error {
	switch {
	case file.FileID != "":
		req.Params[fieldName] = file.FileID

	case file.URL != "":
		req.Params[fieldName] = file.URL

	case file.IsUpload():
		// For single file uploads (sendPhoto, sendDocument) the file goes
		// directly in the field with the method's own name.
		reader, err := file.open()
		if err != nil {
			return err
		}
		req.Files = append(req.Files, FilePart{
			FieldName: fieldName,
			FileName:  file.FileName,
			Reader:    reader,
		})
		// Don't add to Params - the file IS the value

	default:
		return fmt.Errorf("InputFile must have FileID, URL, Path, Data, or Reader set")
	}

	return nil
}

func getJSONFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return strings.ToLower(field.Name)
	}
	parts := strings.Split(tag, ",")
	return parts[0]
}
