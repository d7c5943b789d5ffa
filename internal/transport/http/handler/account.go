package handler

import (
	"encoding/json"
	"net/http"

	"github.com/teachmatch/accounts-api/internal/application/account"
	"github.com/teachmatch/accounts-api/internal/pkg/validate"
	"github.com/teachmatch/accounts-api/internal/transport/http/middleware"
)

// resetRequestDetail is the fixed body returned whether or not the email
// matched an account.
const resetRequestDetail = "If the email exists, a reset link was sent."

// AccountHandler handles password-reset, email-verification and
// phone-confirmation endpoints.
type AccountHandler struct {
	svc account.Service
}

func NewAccountHandler(svc account.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) ResetRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	h.svc.RequestPasswordReset(r.Context(), req.Email)
	writeDetail(w, http.StatusOK, resetRequestDetail)
}

func (h *AccountHandler) ResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req account.ResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.ConfirmPasswordReset(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeDetail(w, http.StatusOK, "Password has been reset")
}

func (h *AccountHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	identifier := r.URL.Query().Get("identifier")
	token := r.URL.Query().Get("token")
	if identifier == "" || token == "" {
		writeDetail(w, http.StatusBadRequest, "Missing identifier or token")
		return
	}
	if err := h.svc.VerifyEmail(r.Context(), identifier, token); err != nil {
		httpError(w, err)
		return
	}
	writeDetail(w, http.StatusOK, "Email verified")
}

func (h *AccountHandler) VerifyEmailRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	already, err := h.svc.RequestEmailVerification(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	if already {
		writeDetail(w, http.StatusOK, "Already verified")
		return
	}
	writeDetail(w, http.StatusOK, "Verification email sent")
}

func (h *AccountHandler) PhoneRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := h.svc.RequestPhoneConfirmation(r.Context(), claims.UserID); err != nil {
		httpError(w, err)
		return
	}
	writeDetail(w, http.StatusOK, "OTP sent")
}

func (h *AccountHandler) PhoneConfirm(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req struct {
		OTP string `json:"otp" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.ConfirmPhone(r.Context(), claims.UserID, req.OTP); err != nil {
		httpError(w, err)
		return
	}
	writeDetail(w, http.StatusOK, "Phone number confirmed")
}
