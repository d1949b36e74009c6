package notify

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPath_DerivesFileName(t *testing.T) {
	f := FromPath("/var/reports/metrics.png")

	assert.Equal(t, "/var/reports/metrics.png", f.Path)
	assert.Equal(t, "metrics.png", f.FileName)
	assert.True(t, f.IsUpload())
	assert.False(t, f.IsEmpty())
}

func TestFromBytes_NilBecomesEmptySlice(t *testing.T) {
	f := FromBytes(nil, "a.bin")

	require.NotNil(t, f.Data, "nil input must still mark the variant as bytes")
	assert.Empty(t, f.Data)
	assert.True(t, f.IsUpload())
}

func TestFromURLAndFileID_AreNotUploads(t *testing.T) {
	u := FromURL("https://example.com/a.png")
	assert.False(t, u.IsUpload())
	assert.Equal(t, "https://example.com/a.png", u.Value())

	id := FromFileID("AgACAgIAAxkBAAI")
	assert.False(t, id.IsUpload())
	assert.Equal(t, "AgACAgIAAxkBAAI", id.Value())
}

func TestInputFile_OpenDataIsRetrySafe(t *testing.T) {
	f := FromBytes([]byte("payload"), "a.bin")

	for i := 0; i < 2; i++ {
		r, err := f.open()
		require.NoError(t, err)
		content, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(content), "attempt %d must see full content", i+1)
	}
}

func TestInputFile_OpenSourceYieldsFreshReader(t *testing.T) {
	calls := 0
	f := InputFile{
		Source:   func() io.Reader { calls++; return strings.NewReader("fresh") },
		FileName: "a.txt",
	}

	for i := 0; i < 3; i++ {
		r, err := f.open()
		require.NoError(t, err)
		content, _ := io.ReadAll(r)
		assert.Equal(t, "fresh", string(content))
	}
	assert.Equal(t, 3, calls)
}

func TestUploadSizeLimits(t *testing.T) {
	assert.Equal(t, 50*1024*1024, MaxUploadSize)
	assert.Equal(t, 10*1024*1024, MaxPhotoSize)
}

func TestInputFile_OpenOwnership(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(path, []byte{1}, 0o600))

	r, err := FromPath(path).open()
	require.NoError(t, err)
	owned, ok := r.(ownedReader)
	require.True(t, ok, "path handles are transport-owned")
	require.NoError(t, owned.Close())

	r, err = FromReader(strings.NewReader("x"), "a.txt").open()
	require.NoError(t, err)
	_, ok = r.(ownedReader)
	assert.False(t, ok, "caller readers are never transport-owned")
}

func TestResolveSource(t *testing.T) {
	tests := []struct {
		name  string
		input any
		check func(t *testing.T, f InputFile)
	}{
		{
			name:  "input file passthrough",
			input: FromFileID("abc"),
			check: func(t *testing.T, f InputFile) {
				assert.Equal(t, "abc", f.FileID)
			},
		},
		{
			name:  "https string is a URL",
			input: "https://example.com/a.png",
			check: func(t *testing.T, f InputFile) {
				assert.Equal(t, "https://example.com/a.png", f.URL)
				assert.Empty(t, f.Path)
			},
		},
		{
			name:  "http string is a URL",
			input: "HTTP://example.com/a.png",
			check: func(t *testing.T, f InputFile) {
				assert.Equal(t, "HTTP://example.com/a.png", f.URL)
			},
		},
		{
			name:  "plain string is a path",
			input: "/tmp/report.pdf",
			check: func(t *testing.T, f InputFile) {
				assert.Equal(t, "/tmp/report.pdf", f.Path)
				assert.Equal(t, "report.pdf", f.FileName)
			},
		},
		{
			name:  "bytes",
			input: []byte("raw"),
			check: func(t *testing.T, f InputFile) {
				assert.Equal(t, []byte("raw"), f.Data)
			},
		},
		{
			name:  "reader",
			input: strings.NewReader("stream"),
			check: func(t *testing.T, f InputFile) {
				assert.NotNil(t, f.Reader)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ResolveSource(tt.input)
			require.NoError(t, err)
			tt.check(t, f)
		})
	}
}

func TestResolveSource_UnsupportedType(t *testing.T) {
	_, err := ResolveSource(42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported source type int")
}

func TestInputFile_MarshalJSON(t *testing.T) {
	data, err := FromURL("https://example.com/a.png").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"https://example.com/a.png"`, string(data))
}
