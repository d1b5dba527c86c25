package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-sheetgrader/internal/rbac"
)

type User struct {
	Name     string
	Role     string
	PassHash string // bcrypt
}

// Users is the static account table loaded from configuration.
type Users map[string]User

// ParseUsers reads "name:role:bcrypt-hash" entries separated by commas.
func ParseUsers(list string) (Users, error) {
	out := Users{}
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("bad user entry %q: want name:role:hash", entry)
		}
		if !rbac.KnownRole(parts[1]) {
			return nil, fmt.Errorf("user %s: unknown role %q", parts[0], parts[1])
		}
		if _, err := bcrypt.Cost([]byte(parts[2])); err != nil {
			return nil, fmt.Errorf("user %s: %w", parts[0], err)
		}
		out[parts[0]] = User{Name: parts[0], Role: parts[1], PassHash: parts[2]}
	}
	return out, nil
}

// Add registers or replaces an account.
func (u Users) Add(name, role, passHash string) {
	if name == "" || passHash == "" {
		return
	}
	u[name] = User{Name: name, Role: role, PassHash: passHash}
}

// Authenticate checks password against the stored hash and returns the role.
func (u Users) Authenticate(name, password string) (string, bool) {
	usr, ok := u[name]
	if !ok || password == "" {
		return "", false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(usr.PassHash), []byte(password)); err != nil {
		return "", false
	}
	return usr.Role, true
}
