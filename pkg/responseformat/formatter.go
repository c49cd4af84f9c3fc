// Package responseformat encodes HTTP responses as JSON or MessagePack.
package responseformat

import (
	"encoding/json"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

// Formatter handles encoding and writing responses in JSON or MessagePack
// format. JSON is the default; MessagePack is selected with
// format=msgpack, which bandwidth-limited dashboard clients use.
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// WriteResponse writes the response in the format requested by the
// format query parameter, defaulting to JSON.
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, data any) error {
	if req.URL.Query().Get("format") == "msgpack" {
		return f.writeMsgPack(w, data)
	}
	return f.writeJSON(w, data)
}

func (f *Formatter) writeJSON(w http.ResponseWriter, data any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(data)
}

func (f *Formatter) writeMsgPack(w http.ResponseWriter, data any) error {
	w.Header().Set("Content-Type", "application/msgpack")
	encoded, err := msgpack.Marshal(data)
	if err != nil {
		return err
	}
	_, err = w.Write(encoded)
	return err
}
