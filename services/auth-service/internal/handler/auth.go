package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/djdict/djdict-api/services/auth-service/internal/payload"
	"github.com/djdict/djdict-api/services/auth-service/internal/usecase"
)

func (h *authHTTPHandler) register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if err := h.validate.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	account, err := h.accountUsecase.Register(r.Context(), usecase.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil && !(errors.Is(err, usecase.ErrNotificationFailed) && account != nil) {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, payload.RegisterResponse{
		Account:   accountResponse(account),
		EmailSent: err == nil,
	})
}

func (h *authHTTPHandler) confirmEmail(w http.ResponseWriter, r *http.Request) {
	result, err := h.accountUsecase.ConfirmEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.ConfirmEmailResponse{
		Kind:    string(result.Kind),
		Account: accountResponse(result.Account),
	})
}

func (h *authHTTPHandler) resendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req payload.ResendConfirmationRequest
	if err := h.validate.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.accountUsecase.ResendConfirmation(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *authHTTPHandler) login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if err := h.validate.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.accountUsecase.Login(r.Context(), usecase.LoginParams{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.LoginResponse{
		Token:       result.Token.Token,
		ExpiresAt:   result.Token.ExpiresAt,
		Reactivated: result.Reactivated,
	})
}

func (h *authHTTPHandler) logout(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	if err := h.accountUsecase.Logout(r.Context(), session.SessionID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
