package auth

import (
	"context"

	"github.com/mind-engage/mindengage-sheetgrader/internal/rbac"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject string
	Role    string
}

type principalKey struct{}

// WithPrincipal stores p and exposes its role to rbac.Require.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey{}, p)
	return rbac.WithRole(ctx, p.Role)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// SubjectFromContext returns the caller's user name, or "" when unauthenticated.
func SubjectFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.Subject
}
