package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username      string
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Role          string
	PasswordHash  string
	IsActive      bool
	TOTPSecretEnc string `gorm:"column:totp_secret_enc"`
	TOTPEnabled   bool   `gorm:"column:totp_enabled"`
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (User) TableName() string { return "users" }

func (u *User) FullName() string {
	n := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if n == "" {
		return u.Username
	}
	return n
}

func UserByUsername(ctx context.Context, db *gorm.DB, username string) (*User, error) {
	var u User
	err := db.WithContext(ctx).Where("lower(username) = ?", strings.ToLower(strings.TrimSpace(username))).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func UserByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*User, error) {
	var u User
	if err := db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

type UserFilter struct {
	Q      string
	Role   string
	Active *bool
	Limit  int
	Offset int
}

func ListUsers(ctx context.Context, db *gorm.DB, f UserFilter) ([]User, int64, error) {
	q := db.WithContext(ctx).Model(&User{})
	if s := strings.TrimSpace(f.Q); s != "" {
		p := likePattern(s)
		q = q.Where("username ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", p, p, p, p)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []User
	err := q.Order("lower(username)").Limit(f.Limit).Offset(f.Offset).Find(&list).Error
	return list, total, err
}

func CreateUser(ctx context.Context, db *gorm.DB, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	return db.WithContext(ctx).Create(u).Error
}

// UpdateUserProfile writes the admin-editable fields.
func UpdateUserProfile(ctx context.Context, db *gorm.DB, u *User) error {
	res := db.WithContext(ctx).Model(&User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
		"phone":      u.Phone,
		"role":       u.Role,
		"is_active":  u.IsActive,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func SetUserActive(ctx context.Context, db *gorm.DB, id uuid.UUID, active bool) error {
	return updateUserColumns(ctx, db, id, map[string]interface{}{"is_active": active})
}

func SetUserPassword(ctx context.Context, db *gorm.DB, id uuid.UUID, hash string) error {
	return updateUserColumns(ctx, db, id, map[string]interface{}{"password_hash": hash})
}

// SetUserTOTP stores the sealed secret. enabled=false with an empty secret turns 2FA off.
func SetUserTOTP(ctx context.Context, db *gorm.DB, id uuid.UUID, sealedSecret string, enabled bool) error {
	return updateUserColumns(ctx, db, id, map[string]interface{}{
		"totp_secret_enc": sealedSecret,
		"totp_enabled":    enabled,
	})
}

func TouchLastLogin(ctx context.Context, db *gorm.DB, id uuid.UUID, at time.Time) error {
	return db.WithContext(ctx).Exec(`UPDATE users SET last_login_at = ? WHERE id = ?`, at, id).Error
}

func updateUserColumns(ctx context.Context, db *gorm.DB, id uuid.UUID, cols map[string]interface{}) error {
	cols["updated_at"] = time.Now()
	res := db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func CountSuperusers(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&User{}).Where("role = ? AND is_active", "SUPERUSER").Count(&n).Error
	return n, err
}
