// Package problem renders API errors as RFC 7807 problem documents.
package problem

import (
	"encoding/json"
	"net/http"
)

// Problem is the application/problem+json response body. Type stays
// "about:blank" for errors whose meaning is carried by the status code
// and title alone.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Write sends a problem document with the given status, title and
// optional detail.
func Write(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Problem{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
