package auth

import "context"

type contextKey string

const claimsKey contextKey = "claims"

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func ClaimsFrom(ctx context.Context) *Claims {
	if c, _ := ctx.Value(claimsKey).(*Claims); c != nil {
		return c
	}
	return nil
}

func UserIDFrom(ctx context.Context) string {
	c := ClaimsFrom(ctx)
	if c == nil {
		return ""
	}
	return c.UserID
}

func UsernameFrom(ctx context.Context) string {
	c := ClaimsFrom(ctx)
	if c == nil {
		return ""
	}
	return c.Username
}

func RoleFrom(ctx context.Context) string {
	c := ClaimsFrom(ctx)
	if c == nil {
		return ""
	}
	return c.Role
}

func IsSuperuser(ctx context.Context) bool {
	return RoleFrom(ctx) == RoleSuperuser
}

// IsAdminOrSuper gates user management and the audit log.
func IsAdminOrSuper(ctx context.Context) bool {
	r := RoleFrom(ctx)
	return r == RoleSuperuser || r == RoleAdmin
}

func Can(ctx context.Context, resource Resource, action Action) bool {
	return HasPermission(RoleFrom(ctx), resource, action)
}
