package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/djdict/djdict-api/services/auth-service/internal/model"
	"github.com/djdict/djdict-api/services/auth-service/internal/payload"
	"github.com/djdict/djdict-api/services/auth-service/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps usecase errors to HTTP responses. Anything unexpected is logged and
// hidden behind a generic message.
func (h *authHTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *validationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{
			Error:  validationErr.Error(),
			Fields: validationErr.fields,
		})
		return
	}

	status, message := http.StatusInternalServerError, "something went wrong"

	switch {
	case errors.Is(err, errMalformedBody):
		status, message = http.StatusBadRequest, errMalformedBody.Error()
	case errors.Is(err, usecase.ErrAccountAlreadyExists):
		status, message = http.StatusConflict, usecase.ErrAccountAlreadyExists.Error()
	case errors.Is(err, usecase.ErrEmailTaken):
		status, message = http.StatusConflict, usecase.ErrEmailTaken.Error()
	case errors.Is(err, usecase.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, usecase.ErrInvalidCredentials.Error()
	case errors.Is(err, usecase.ErrSessionNotFound):
		status, message = http.StatusUnauthorized, usecase.ErrSessionNotFound.Error()
	case errors.Is(err, usecase.ErrAccountInactive):
		status, message = http.StatusForbidden, usecase.ErrAccountInactive.Error()
	case errors.Is(err, usecase.ErrAccountNotFound):
		status, message = http.StatusNotFound, usecase.ErrAccountNotFound.Error()
	case errors.Is(err, usecase.ErrVerificationFailed):
		status, message = http.StatusBadRequest, usecase.ErrVerificationFailed.Error()
	case errors.Is(err, usecase.ErrInvalidTerminationState):
		status, message = http.StatusBadRequest, usecase.ErrInvalidTerminationState.Error()
	case errors.Is(err, usecase.ErrNotificationFailed):
		status, message = http.StatusServiceUnavailable, usecase.ErrNotificationFailed.Error()
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}

	writeJSON(w, status, payload.ErrorResponse{Error: message})
}

func accountResponse(account *model.Account) payload.AccountResponse {
	return payload.AccountResponse{
		ID:       account.ID.Hex(),
		Username: account.Username,
		Email:    account.Email,
		Active:   account.Active,
	}
}
