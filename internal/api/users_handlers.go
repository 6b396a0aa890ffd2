package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/pantera3000/sistema-dental-01/internal/audit"
	"github.com/pantera3000/sistema-dental-01/internal/auth"
	"github.com/pantera3000/sistema-dental-01/internal/repo"
)

var (
	errCannotManageSuperuser = errors.New("solo un superusuario puede modificar a otro superusuario")
	errCannotGrantSuperuser  = errors.New("solo un superusuario puede asignar el rol SUPERUSER")
	errSelfDeactivate        = errors.New("no puede desactivar su propia cuenta")
)

type userRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	IsActive  *bool  `json:"is_active"`
}

func (req *userRequest) normalize() {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
}

// checkUserChange enforces who may touch whom. target is nil on creation.
func checkUserChange(actorRole, actorID string, target *repo.User, newRole string, newActive bool) error {
	if target != nil && target.Role == auth.RoleSuperuser && actorRole != auth.RoleSuperuser {
		return errCannotManageSuperuser
	}
	if newRole == auth.RoleSuperuser && actorRole != auth.RoleSuperuser &&
		(target == nil || target.Role != auth.RoleSuperuser) {
		return errCannotGrantSuperuser
	}
	if target != nil && target.ID.String() == actorID && !newActive {
		return errSelfDeactivate
	}
	return nil
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r)
	q := r.URL.Query()
	f := repo.UserFilter{
		Q:      q.Get("q"),
		Role:   strings.ToUpper(q.Get("role")),
		Limit:  limit,
		Offset: offset,
	}
	if s := q.Get("is_active"); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			f.Active = &b
		}
	}
	list, total, err := repo.ListUsers(r.Context(), h.DB, f)
	if err != nil {
		dbError(w, r, err, "list users")
		return
	}
	out := make([]UserInfo, len(list))
	for i := range list {
		out[i] = userInfo(&list[i])
	}
	writeJSON(w, http.StatusOK, listResponse(out, limit, offset, total))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := repo.UserByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get user")
		return
	}
	writeJSON(w, http.StatusOK, userInfo(u))
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.normalize()
	if req.Username == "" {
		http.Error(w, `{"error":"usuario requerido"}`, http.StatusBadRequest)
		return
	}
	if !auth.IsValidRole(req.Role) {
		http.Error(w, `{"error":"rol inválido"}`, http.StatusBadRequest)
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		http.Error(w, `{"error":"la contraseña debe tener al menos 8 caracteres"}`, http.StatusBadRequest)
		return
	}
	if err := validateOptionalEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	active := req.IsActive == nil || *req.IsActive
	if err := checkUserChange(auth.RoleFrom(r.Context()), auth.UserIDFrom(r.Context()), nil, req.Role, active); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	u := &repo.User{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         req.Role,
		PasswordHash: hash,
		IsActive:     active,
	}
	if err := repo.CreateUser(r.Context(), h.DB, u); err != nil {
		if repo.IsUniqueViolation(err) {
			http.Error(w, `{"error":"el nombre de usuario ya existe"}`, http.StatusConflict)
			return
		}
		dbError(w, r, err, "create user")
		return
	}
	info := userInfo(u)
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionCreate,
		Model:      "user",
		ObjectID:   info.ID,
		ObjectRepr: u.Username,
		Changes:    audit.Diff(nil, info),
	})
	writeJSON(w, http.StatusCreated, info)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.normalize()
	u, err := repo.UserByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get user")
		return
	}
	before := userInfo(u)
	if req.Role == "" {
		req.Role = u.Role
	}
	if !auth.IsValidRole(req.Role) {
		http.Error(w, `{"error":"rol inválido"}`, http.StatusBadRequest)
		return
	}
	if err := validateOptionalEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	active := u.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}
	if err := checkUserChange(auth.RoleFrom(r.Context()), auth.UserIDFrom(r.Context()), u, req.Role, active); err != nil {
		status := http.StatusForbidden
		if errors.Is(err, errSelfDeactivate) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	u.FirstName, u.LastName, u.Email, u.Phone = req.FirstName, req.LastName, req.Email, req.Phone
	u.Role, u.IsActive = req.Role, active
	defer h.forgetAccount(u.ID)
	if err := repo.UpdateUserProfile(r.Context(), h.DB, u); err != nil {
		dbError(w, r, err, "update user")
		return
	}
	if req.Password != "" {
		if err := auth.ValidatePassword(req.Password); err != nil {
			http.Error(w, `{"error":"la contraseña debe tener al menos 8 caracteres"}`, http.StatusBadRequest)
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
			return
		}
		if err := repo.SetUserPassword(r.Context(), h.DB, u.ID, hash); err != nil {
			dbError(w, r, err, "set password")
			return
		}
	}
	after := userInfo(u)
	changes := audit.Diff(before, after)
	details := strings.Join(audit.Fields(changes), ", ")
	if req.Password != "" {
		details = strings.TrimPrefix(details+", password", ", ")
	}
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionUpdate,
		Model:      "user",
		ObjectID:   after.ID,
		ObjectRepr: u.Username,
		Changes:    changes,
		Details:    details,
	})
	writeJSON(w, http.StatusOK, after)
}

// ToggleUserActive flips is_active.
func (h *Handler) ToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := repo.UserByID(r.Context(), h.DB, id)
	if err != nil {
		dbError(w, r, err, "get user")
		return
	}
	next := !u.IsActive
	if err := checkUserChange(auth.RoleFrom(r.Context()), auth.UserIDFrom(r.Context()), u, u.Role, next); err != nil {
		status := http.StatusForbidden
		if errors.Is(err, errSelfDeactivate) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	if err := repo.SetUserActive(r.Context(), h.DB, u.ID, next); err != nil {
		dbError(w, r, err, "toggle user")
		return
	}
	h.forgetAccount(u.ID)
	h.Audit.Record(r, audit.Event{
		Action:     audit.ActionUpdate,
		Model:      "user",
		ObjectID:   u.ID.String(),
		ObjectRepr: u.Username,
		Changes:    map[string]audit.Change{"is_active": {Old: u.IsActive, New: next}},
	})
	u.IsActive = next
	writeJSON(w, http.StatusOK, userInfo(u))
}
