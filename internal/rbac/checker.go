package rbac

import (
	"context"
	"sort"
	"strings"
)

// Checker answers permission questions for a role table. Role names are
// matched case-insensitively; permissions may end in "*" to grant a prefix.
type Checker struct {
	roles map[string][]string
}

func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	roles := make(map[string][]string, len(rp))
	for role, perms := range rp {
		roles[normRole(role)] = append([]string(nil), perms...)
	}
	return &Checker{roles: roles}
}

func normRole(role string) string { return strings.ToLower(strings.TrimSpace(role)) }

// Known reports whether role exists in the table.
func (c *Checker) Known(role string) bool {
	_, ok := c.roles[normRole(role)]
	return ok
}

func (c *Checker) Has(role, perm string) bool {
	for _, p := range c.roles[normRole(role)] {
		if matchPerm(p, perm) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

func (c *Checker) All(role string, perms ...string) bool {
	for _, p := range perms {
		if !c.Has(role, p) {
			return false
		}
	}
	return len(perms) > 0
}

// Granted lists which of the service permissions role holds, sorted.
func (c *Checker) Granted(role string) []string {
	out := []string{}
	for _, p := range AllPermissions {
		if c.Has(role, p) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func matchPerm(pattern, perm string) bool {
	if pattern == "*" || pattern == perm {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(perm, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// KnownRole checks role against the default policy.
func KnownRole(role string) bool { return defaultChecker.Known(role) }

// Granted lists role's permissions under the default policy.
func Granted(role string) []string { return defaultChecker.Granted(role) }

// ---- role in context ----

type ctxKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKey{}, normRole(role))
}

func RoleFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}
