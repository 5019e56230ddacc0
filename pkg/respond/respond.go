package respond

import (
	"io"
	"net/http"

	"github.com/bytedance/sonic"
)

// MaxBodySize caps request bodies read by Decode.
const MaxBodySize = 1 << 20

func JSON(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	sonic.ConfigStd.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	JSON(w, r, code, map[string]string{"error": message})
}

// NoContent answers a successful delete.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Decode reads a JSON request body into v, rejecting unknown fields and
// bodies over MaxBodySize.
func Decode(r *http.Request, v interface{}) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(r.Body, MaxBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
