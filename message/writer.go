package message

import (
	"encoding/json"
	"io"
	"sync"
)

type Writer interface {
	Write(msg *Message) error
}

// NewWriter frames messages as newline-delimited JSON on w. Writes are
// serialized so concurrent stream passes can share one sink; each stream
// still has to order its own SCHEMA/RECORD/STATE sequence itself.
func NewWriter(w io.Writer) Writer {
	return &jsonWriter{enc: json.NewEncoder(w)}
}

type jsonWriter struct {
	enc *json.Encoder

	// Synchronization (always last)
	mu sync.Mutex
}

func (w *jsonWriter) Write(msg *Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(msg)
}
