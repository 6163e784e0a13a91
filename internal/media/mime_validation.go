package media

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"
)

// sniffLen is how much of a file http.DetectContentType looks at.
const sniffLen = 512

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif", "image/avif"}

var errNotAnImage = errors.New("content type must be one of " + strings.Join(allowedImageTypes, ", "))

// declaredType parses the part's Content-Type header down to its media type.
func declaredType(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	return strings.ToLower(mediaType), nil
}

// imageType settles the stored content type from the declared header and
// the file's leading bytes. Content the sniffer recognises wins over the
// header; unrecognised binary falls back to the declared image type. The
// returned reader replays the sniffed bytes.
func imageType(header string, body io.Reader) (string, io.Reader, error) {
	declared, err := declaredType(header)
	if err != nil {
		return "", nil, err
	}
	if !slices.Contains(allowedImageTypes, declared) {
		return "", nil, errNotAnImage
	}

	buffered := bufio.NewReaderSize(body, sniffLen)
	head, err := buffered.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", nil, fmt.Errorf("read file: %w", err)
	}

	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(head))
	switch {
	case slices.Contains(allowedImageTypes, sniffed):
		return sniffed, buffered, nil
	case sniffed == "application/octet-stream":
		return declared, buffered, nil
	default:
		return "", nil, errNotAnImage
	}
}
