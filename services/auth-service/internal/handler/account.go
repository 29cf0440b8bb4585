package handler

import (
	"net/http"

	"github.com/djdict/djdict-api/services/auth-service/internal/model"
	"github.com/djdict/djdict-api/services/auth-service/internal/payload"
	"github.com/djdict/djdict-api/services/auth-service/internal/usecase"
)

func (h *authHTTPHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ChangePasswordRequest
	if err := h.validate.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	session := sessionFromContext(r.Context())
	err := h.accountUsecase.ChangePassword(r.Context(), usecase.ChangePasswordParams{
		AccountID:       session.AccountID.Hex(),
		SessionID:       session.SessionID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *authHTTPHandler) requestEmailChange(w http.ResponseWriter, r *http.Request) {
	var req payload.ChangeEmailRequest
	if err := h.validate.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	session := sessionFromContext(r.Context())
	err := h.accountUsecase.RequestEmailChange(r.Context(), usecase.ChangeEmailParams{
		AccountID: session.AccountID.Hex(),
		Password:  req.Password,
		NewEmail:  req.NewEmail,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *authHTTPHandler) terminateAccount(w http.ResponseWriter, r *http.Request) {
	var req payload.TerminateRequest
	if err := h.validate.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	session := sessionFromContext(r.Context())
	request, err := h.accountUsecase.TerminateAccount(r.Context(), usecase.TerminateParams{
		AccountID: session.AccountID.Hex(),
		Password:  req.Password,
		State:     model.TerminationState(req.State),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, payload.TerminateResponse{
		State:       string(request.State),
		RequestedAt: request.CreatedAt,
	})
}

func (h *authHTTPHandler) status(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	status, err := h.accountUsecase.Status(r.Context(), session.AccountID.Hex())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := payload.StatusResponse{
		Account:     accountResponse(status.Account),
		State:       string(status.State),
		DeletesAt:   status.DeletesAt,
		LastLoginAt: status.Account.LastLoginAt,
	}
	if status.Termination != nil {
		resp.RequestedAt = &status.Termination.CreatedAt
	}

	writeJSON(w, http.StatusOK, resp)
}
