package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/auth"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

type UserInfo struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	TOTPEnabled bool       `json:"totp_enabled"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func userInfo(u *repo.User) UserInfo {
	return UserInfo{
		ID:          u.ID.String(),
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		IsActive:    u.IsActive,
		TOTPEnabled: u.TOTPEnabled,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// Login authenticates a staff user. Every failure answers the same 401 so
// usernames cannot be enumerated; the audit trail keeps the real reason.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Password == "" {
		http.Error(w, `{"error":"usuario y contraseña requeridos"}`, http.StatusBadRequest)
		return
	}

	u, err := repo.UserByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		if !repo.IsNotFound(err) {
			log.Error().Err(err).Msg("[auth] user lookup")
		}
		h.loginFailed(w, r, req.Username, "usuario inexistente")
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		h.loginFailed(w, r, req.Username, "contraseña incorrecta")
		return
	}
	if !u.IsActive {
		h.loginFailed(w, r, req.Username, "usuario inactivo")
		return
	}
	if u.TOTPEnabled {
		code := strings.TrimSpace(req.OTP)
		if code == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error":        "otp_required",
				"otp_required": true,
			})
			return
		}
		secret, err := h.Box.Open(u.TOTPSecretEnc)
		if err != nil || !auth.ValidateTOTP(code, secret) {
			h.loginFailed(w, r, req.Username, "código 2FA inválido")
			return
		}
	}

	ttl := h.Cfg.JWTTTL()
	tok, err := auth.BuildJWT(h.Cfg.JWTSecret, u.ID.String(), u.Username, u.Role, ttl)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	now := time.Now()
	if err := repo.TouchLastLogin(r.Context(), h.DB, u.ID, now); err != nil {
		log.Warn().Err(err).Str("user", u.Username).Msg("[auth] last_login_at not updated")
	}
	u.LastLoginAt = &now

	// the request carries no token yet; attribute the entry to the user logging in
	ctx := auth.WithClaims(r.Context(), &auth.Claims{UserID: u.ID.String(), Username: u.Username, Role: u.Role})
	h.Audit.Record(r.WithContext(ctx), audit.Event{
		Action:     audit.ActionLogin,
		Model:      "user",
		ObjectID:   u.ID.String(),
		ObjectRepr: u.Username,
	})

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     tok,
		ExpiresAt: now.Add(ttl),
		User:      userInfo(u),
	})
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, username, reason string) {
	h.Audit.Record(r, audit.Event{
		Action:   audit.ActionLoginFailed,
		Model:    "user",
		Details:  reason,
		Severity: audit.SeverityWarning,
		Username: username,
	})
	genericLoginError(w)
}

func genericLoginError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"credenciales inválidas"}`))
}

// Logout only leaves a trail; tokens are stateless and expire on their own.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionLogout,
		Model:      "user",
		ObjectID:   auth.UserIDFrom(r.Context()),
		ObjectRepr: auth.UsernameFrom(r.Context()),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	uid := actorID(r)
	if uid == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	u, err := repo.UserByID(r.Context(), h.DB, *uid)
	if err != nil {
		dbError(w, r, err, "me")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"user":        userInfo(u),
		"permissions": auth.Permissions(u.Role),
	})
}
