package sse

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DoneSentinel terminates every framed stream. The AI backend emits its own
// copy on the passthrough path, so the relay never appends one.
const DoneSentinel = "[DONE]"

// Prepare sets the fixed event-stream headers. Not configurable per request.
func Prepare(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// Send writes one data event and flushes it to the client.
func Send(w http.ResponseWriter, data string) {
	fmt.Fprintf(w, "data: %s\n\n", data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// Done sends the terminal event.
func Done(w http.ResponseWriter) {
	Send(w, DoneSentinel)
}

// Relay copies an already-framed event stream byte-for-byte, flushing as
// chunks arrive. A mid-stream upstream failure simply ends the stream; once
// bytes have gone out there is no clean way to surface an error.
func Relay(w http.ResponseWriter, rc io.ReadCloser) error {
	defer rc.Close()

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, err := rc.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Reader scans data events off a stream, one payload per ReadData call.
type Reader struct {
	scanner *bufio.Scanner
}

func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// ReadData returns the next non-empty data payload, io.EOF when the stream
// ends. Comment lines and other fields are skipped.
func (r *Reader) ReadData() (string, error) {
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		return data, nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
