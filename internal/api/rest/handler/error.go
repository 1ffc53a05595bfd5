package handler

import (
	"errors"
	"net/http"

	"github.com/finapp/auth-service/internal/apierrors"
	"github.com/finapp/auth-service/internal/model"
)

type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// WriteError maps service errors to the HTTP error contract. APIError values
// pass through with their status and code; anything else is an internal
// error, with detail withheld in production.
func WriteError(w http.ResponseWriter, err error, production bool) {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.HTTPStatus, errorResponse{Error: apiErr.Message, Code: apiErr.Code})
		return
	}

	if errors.Is(err, model.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "record not found"})
		return
	}

	resp := errorResponse{Error: "internal server error"}
	if !production {
		resp.Detail = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}
