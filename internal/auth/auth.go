// Package auth checks engineer and operator logins and hashes operator
// passwords before they are stored.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"rimworks/internal/logging"
	"rimworks/internal/types"
)

// ErrInvalidCredentials is returned for any failed login. It does not say
// whether the username or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Engineer holds the configured engineer account.
type Engineer struct {
	Username string
	Password string
}

// EngineerLogin reports whether user and pass match the engineer account.
func EngineerLogin(eng Engineer, user, pass string) bool {
	userOK := constantEqual(strings.TrimSpace(user), eng.Username)
	passOK := constantEqual(pass, eng.Password)
	ok := userOK && passOK && eng.Username != ""
	logging.AuditLogin("engineer", user, ok)
	if !ok {
		logging.Get(logging.CategoryAuth).Info("engineer login rejected", zap.String("username", user))
	}
	return ok
}

// OperatorLogin finds the operator with username and checks pass against it.
// When several records share a username the first one whose password matches
// wins.
func OperatorLogin(ops []types.Operator, username, pass string) (types.Operator, error) {
	username = strings.TrimSpace(username)
	for _, op := range ops {
		if op.Username != username {
			continue
		}
		if CheckPassword(op.Password, pass) {
			logging.AuditLogin("operator", username, true)
			return op, nil
		}
	}
	logging.AuditLogin("operator", username, false)
	logging.Get(logging.CategoryAuth).Info("operator login rejected", zap.String("username", username))
	return types.Operator{}, ErrInvalidCredentials
}

// HashPassword returns the bcrypt hash stored for new operators.
func HashPassword(pass string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// IsHashed reports whether stored looks like a bcrypt hash.
func IsHashed(stored string) bool {
	_, err := bcrypt.Cost([]byte(stored))
	return err == nil
}

// CheckPassword compares pass against stored, which is either a bcrypt hash
// or a plaintext password from records written before hashing was added.
func CheckPassword(stored, pass string) bool {
	if IsHashed(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(pass)) == nil
	}
	return stored != "" && constantEqual(stored, pass)
}

func constantEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
