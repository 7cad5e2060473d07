// Package stream implements the line-oriented framing protocol the
// chat endpoint speaks: an ordered byte stream of text frames
// ("0:<json string>\n") and structured data frames ("2:[<json>]\n")
// that a client decodes incrementally.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Frame type prefixes. The consumer concatenates text frames in order
// to reconstruct the answer; data frames carry out-of-band state such
// as the deduplicated source list.
const (
	textPrefix = "0:"
	dataPrefix = "2:"
)

// Encoder writes frames to an ordered byte stream. Each frame is
// assembled in memory and written with a single Write call, so a frame
// is never partially emitted, and flushed immediately when the
// underlying writer supports it.
//
// Encoder is not safe for concurrent use; one request owns one
// encoder.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
}

// NewEncoder creates an Encoder over w. If w implements http.Flusher
// (an http.ResponseWriter during streaming), every frame is flushed as
// it is written.
func NewEncoder(w io.Writer) *Encoder {
	flusher, _ := w.(http.Flusher)
	return &Encoder{w: w, flusher: flusher}
}

// WriteText emits one text frame carrying a JSON-encoded string.
func (e *Encoder) WriteText(text string) error {
	payload, err := json.Marshal(text)
	if err != nil {
		return fmt.Errorf("marshal text frame: %w", err)
	}
	return e.writeFrame(textPrefix, payload)
}

// WriteData emits one data frame carrying a JSON object wrapped in the
// protocol's single-element array.
func (e *Encoder) WriteData(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal data frame: %w", err)
	}
	framed := make([]byte, 0, len(payload)+2)
	framed = append(framed, '[')
	framed = append(framed, payload...)
	framed = append(framed, ']')
	return e.writeFrame(dataPrefix, framed)
}

// writeFrame writes prefix + payload + newline as one atomic Write.
func (e *Encoder) writeFrame(prefix string, payload []byte) error {
	line := make([]byte, 0, len(prefix)+len(payload)+1)
	line = append(line, prefix...)
	line = append(line, payload...)
	line = append(line, '\n')

	if _, err := e.w.Write(line); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}
