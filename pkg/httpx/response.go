package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes v with status code. Every JSON body this module serves
// carries credentials or principal data, so it is never cacheable.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache marks the response as not storable by clients or proxies.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
