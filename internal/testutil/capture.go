package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Capture represents a captured HTTP request with timestamp.
type Capture struct {
	Method      string
	Path        string
	Headers     http.Header
	Body        []byte
	ContentType string
	Timestamp   time.Time
}

// AssertPath verifies the request path.
func (c *Capture) AssertPath(t *testing.T, expected string) {
	t.Helper()
	assert.Equal(t, expected, c.Path, "unexpected path")
}

// AssertContentType verifies the Content-Type header contains expected value.
func (c *Capture) AssertContentType(t *testing.T, expected string) {
	t.Helper()
	assert.Contains(t, c.ContentType, expected, "unexpected content-type")
}

// AssertJSONField verifies a field in the JSON body.
func (c *Capture) AssertJSONField(t *testing.T, field string, expected any) {
	t.Helper()
	body := c.BodyMap(t)
	assert.Equal(t, expected, body[field], "unexpected value for field: "+field)
}

// AssertJSONFieldExists verifies a field exists in the JSON body.
func (c *Capture) AssertJSONFieldExists(t *testing.T, field string) {
	t.Helper()
	body := c.BodyMap(t)
	assert.Contains(t, body, field, "field should exist: "+field)
}

// AssertJSONFieldAbsent verifies a field does NOT exist in the JSON body.
func (c *Capture) AssertJSONFieldAbsent(t *testing.T, field string) {
	t.Helper()
	body := c.BodyMap(t)
	assert.NotContains(t, body, field, "field should be absent: "+field)
}

// BodyJSON decodes the body as JSON into target.
func (c *Capture) BodyJSON(t *testing.T, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(c.Body, target), "failed to decode JSON body")
}

// BodyMap returns the body as a map.
func (c *Capture) BodyMap(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(c.Body, &m), "failed to decode JSON body")
	return m
}

// BodyString returns the body as a string.
func (c *Capture) BodyString() string {
	return string(c.Body)
}

// MultipartForm parses the body as multipart/form-data and returns the
// text fields and the raw content of each file part keyed by field name.
func (c *Capture) MultipartForm(t *testing.T) (fields map[string]string, files map[string][]byte) {
	t.Helper()

	req, err := http.NewRequest(c.Method, "http://mock"+c.Path, bytes.NewReader(c.Body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", c.ContentType)

	require.NoError(t, req.ParseMultipartForm(32<<20), "failed to parse multipart body")

	fields = make(map[string]string)
	for k, v := range req.MultipartForm.Value {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}

	files = make(map[string][]byte)
	for k, headers := range req.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		f, err := headers[0].Open()
		require.NoError(t, err)
		data, err := io.ReadAll(f)
		f.Close()
		require.NoError(t, err)
		files[k] = data
	}

	return fields, files
}

// MultipartFileName returns the filename of a multipart file part.
func (c *Capture) MultipartFileName(t *testing.T, field string) string {
	t.Helper()

	req, err := http.NewRequest(c.Method, "http://mock"+c.Path, bytes.NewReader(c.Body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", c.ContentType)

	require.NoError(t, req.ParseMultipartForm(32<<20))
	headers := req.MultipartForm.File[field]
	require.NotEmpty(t, headers, "file part not found: "+field)
	return headers[0].Filename
}
