package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/camden-git/pressdesk/remote"
)

// request bodies are small JSON documents
const maxRequestBodyBytes = 1 << 20

const (
	CodeInvalidRequest = "invalid_request"
	CodeNotFound       = "not_found"
	CodeUpstream       = "upstream_error"
	CodeInternal       = "internal_error"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Error encoding JSON response: %v", err)
		}
	}
}

// decodeJSONBody decodes the request body into dst and writes a 400 when it
// is malformed or too large.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// upstreamStatus maps a remote API failure to the status returned to our
// caller. Not-found and forbidden pass through; anything else is a bad
// gateway. ok is false when err did not come from the remote API.
func upstreamStatus(err error) (status int, ok bool) {
	var apiErr *remote.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}
	switch apiErr.StatusCode {
	case http.StatusNotFound, http.StatusForbidden:
		return apiErr.StatusCode, true
	default:
		return http.StatusBadGateway, true
	}
}
