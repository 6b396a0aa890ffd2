package api

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/auth"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

type ChangeMyPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*repo.User, bool) {
	uid := actorID(r)
	if uid == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return nil, false
	}
	u, err := repo.UserByID(r.Context(), h.DB, *uid)
	if err != nil {
		dbError(w, r, err, "current user")
		return nil, false
	}
	return u, true
}

func (h *Handler) ChangeMyPassword(w http.ResponseWriter, r *http.Request) {
	var req ChangeMyPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		http.Error(w, `{"error":"current_password y new_password requeridos"}`, http.StatusBadRequest)
		return
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		http.Error(w, `{"error":"la nueva contraseña debe tener al menos 8 caracteres"}`, http.StatusBadRequest)
		return
	}
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.CurrentPassword) {
		http.Error(w, `{"error":"contraseña actual incorrecta"}`, http.StatusBadRequest)
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if err := repo.SetUserPassword(r.Context(), h.DB, u.ID, hash); err != nil {
		dbError(w, r, err, "set password")
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionUpdate,
		Model:      "user",
		ObjectID:   u.ID.String(),
		ObjectRepr: u.Username,
		Details:    "cambio de contraseña",
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Contraseña actualizada."})
}

// SetupTOTP issues a fresh secret. 2FA stays off until EnableTOTP confirms a code.
func (h *Handler) SetupTOTP(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if u.TOTPEnabled {
		http.Error(w, `{"error":"2FA ya está activo"}`, http.StatusConflict)
		return
	}
	secret, url, err := auth.GenerateTOTP(h.Cfg.TOTPIssuer, u.Username)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	sealed, err := h.Box.Seal(secret)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if err := repo.SetUserTOTP(r.Context(), h.DB, u.ID, sealed, false); err != nil {
		dbError(w, r, err, "totp setup")
		return
	}
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"secret":      secret,
		"otpauth_url": url,
		"qr_png":      "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	})
}

func (h *Handler) EnableTOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if u.TOTPSecretEnc == "" {
		http.Error(w, `{"error":"primero genere el código QR"}`, http.StatusBadRequest)
		return
	}
	secret, err := h.Box.Open(u.TOTPSecretEnc)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if !auth.ValidateTOTP(strings.TrimSpace(req.Code), secret) {
		http.Error(w, `{"error":"código inválido"}`, http.StatusBadRequest)
		return
	}
	if err := repo.SetUserTOTP(r.Context(), h.DB, u.ID, u.TOTPSecretEnc, true); err != nil {
		dbError(w, r, err, "totp enable")
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionUpdate,
		Model:      "user",
		ObjectID:   u.ID.String(),
		ObjectRepr: u.Username,
		Details:    "2FA activado",
	})
	writeJSON(w, http.StatusOK, map[string]bool{"totp_enabled": true})
}

func (h *Handler) DisableTOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		http.Error(w, `{"error":"contraseña incorrecta"}`, http.StatusBadRequest)
		return
	}
	if err := repo.SetUserTOTP(r.Context(), h.DB, u.ID, "", false); err != nil {
		dbError(w, r, err, "totp disable")
		return
	}
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionUpdate,
		Model:      "user",
		ObjectID:   u.ID.String(),
		ObjectRepr: u.Username,
		Details:    "2FA desactivado",
		Severity:   audit.SeverityWarning,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"totp_enabled": false})
}
