package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// MockAPIServer provides a mock Telegram Bot API server for testing.
type MockAPIServer struct {
	*httptest.Server
	t        *testing.T
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	captures []Capture
}

// NewMockServer creates a mock Telegram API server.
// The server is automatically closed when the test completes.
func NewMockServer(t *testing.T) *MockAPIServer {
	t.Helper()

	m := &MockAPIServer{
		t:        t,
		handlers: make(map[string]http.HandlerFunc),
		captures: make([]Capture, 0),
	}

	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.Server.Close)
	return m
}

func (m *MockAPIServer) handle(w http.ResponseWriter, r *http.Request) {
	// Read body once for capture
	body, _ := io.ReadAll(r.Body)
	r.Body.Close()

	// Restore body for downstream handler
	r.Body = io.NopCloser(bytes.NewReader(body))

	m.mu.Lock()
	m.captures = append(m.captures, Capture{
		Method:      r.Method,
		Path:        r.URL.Path,
		Headers:     r.Header.Clone(),
		Body:        body,
		ContentType: r.Header.Get("Content-Type"),
		Timestamp:   time.Now(),
	})

	key := r.Method + ":" + r.URL.Path
	handler, exists := m.handlers[key]
	m.mu.Unlock()

	if exists {
		handler(w, r)
		return
	}

	// Default success response
	ReplyOK(w, map[string]any{})
}

// OnMethod registers a handler for a specific HTTP method and path.
func (m *MockAPIServer) OnMethod(method, path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method+":"+path] = handler
}

// On registers a handler for a POST request (most common case).
func (m *MockAPIServer) On(path string, handler http.HandlerFunc) {
	m.OnMethod("POST", path, handler)
}

// Captures returns all captured requests.
func (m *MockAPIServer) Captures() []Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Capture{}, m.captures...)
}

// LastCapture returns the most recent captured request.
func (m *MockAPIServer) LastCapture() *Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.captures) == 0 {
		return nil
	}
	return &m.captures[len(m.captures)-1]
}

// CaptureAt returns the capture at the given index.
func (m *MockAPIServer) CaptureAt(index int) *Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.captures) {
		return nil
	}
	return &m.captures[index]
}

// CaptureCount returns the total number of captured requests.
func (m *MockAPIServer) CaptureCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.captures)
}

// Reset clears all captures and handlers.
func (m *MockAPIServer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captures = m.captures[:0]
	m.handlers = make(map[string]http.HandlerFunc)
}

// BaseURL returns the server's base URL.
// Use this as the API base URL when creating clients.
func (m *MockAPIServer) BaseURL() string {
	return m.Server.URL
}

// MethodPath returns the full request path for an API method with the
// given token. Example: MethodPath(TestToken, "sendMessage").
func (m *MockAPIServer) MethodPath(token, method string) string {
	return "/bot" + token + "/" + method
}
