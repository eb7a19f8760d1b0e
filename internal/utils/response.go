package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func ErrorResponse(message string) ErrorBody {
	return ErrorBody{Status: "error", Message: message}
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse(message))
}
