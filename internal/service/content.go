package service

import (
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
)

const contentSniffSize = 512

// detectContentType prefers the stdlib sniffer and falls back to mimetype
// when it can only say octet-stream.
func detectContentType(head []byte) string {
	if len(head) == 0 {
		return "application/octet-stream"
	}
	mt := http.DetectContentType(head)
	if mt != "application/octet-stream" {
		return mt
	}
	return mimetype.Detect(head).String()
}

// meteredReader counts bytes read and keeps the leading bytes for content
// type detection.
type meteredReader struct {
	r    io.Reader
	n    int64
	head []byte
}

func newMeteredReader(r io.Reader) *meteredReader {
	return &meteredReader{r: r, head: make([]byte, 0, contentSniffSize)}
}

func (m *meteredReader) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	if n > 0 {
		m.n += int64(n)
		if room := contentSniffSize - len(m.head); room > 0 {
			m.head = append(m.head, p[:min(n, room)]...)
		}
	}
	return n, err
}

func (m *meteredReader) ContentType() string {
	return detectContentType(m.head)
}
