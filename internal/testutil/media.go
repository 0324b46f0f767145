package testutil

import (
	"bytes"
	"strings"

	"travel-journal/internal/media"
)

// PNG returns an upload payload of size bytes declared as image/png.
func PNG(name string, size int) media.Payload {
	return media.Payload{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(size),
		Reader:      bytes.NewReader(bytes.Repeat([]byte{0x89}, size)),
	}
}

// Payload returns a small payload with an arbitrary name and media type.
func Payload(name, contentType string) media.Payload {
	body := "payload:" + name
	return media.Payload{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Reader:      strings.NewReader(body),
	}
}
