package service

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want string
	}{
		{"empty", nil, "application/octet-stream"},
		{"xml prolog", []byte(`<?xml version="1.0"?><Project/>`), "text/xml; charset=utf-8"},
		{"pdf", []byte("%PDF-1.4\n"), "application/pdf"},
		{"7z falls back to mimetype", []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C, 0, 4}, "application/x-7z-compressed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectContentType(tt.head))
		})
	}
}

func TestMeteredReader(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefgh"), 200)
	m := newMeteredReader(bytes.NewReader(data))

	got, err := io.ReadAll(m)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, int64(len(data)), m.n)
	assert.Len(t, m.head, contentSniffSize)
	assert.Equal(t, data[:contentSniffSize], m.head)
}
