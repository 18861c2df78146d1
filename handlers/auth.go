package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// BasicAuthRealm is announced on every admin challenge
const BasicAuthRealm = `Basic realm="Login Required"`

// AdminAuth guards operator routes with a single basic auth credential
type AdminAuth struct {
	username     string
	passwordHash []byte
	log          zerolog.Logger
}

// NewAdminAuth takes the bcrypt hash of the admin password. with an empty
// username or hash every admin request is refused.
func NewAdminAuth(username, passwordHash string, log zerolog.Logger) *AdminAuth {
	return &AdminAuth{username: username, passwordHash: []byte(passwordHash), log: log}
}

func (a *AdminAuth) enabled() bool {
	return a.username != "" && len(a.passwordHash) > 0
}

func (a *AdminAuth) check(r *http.Request) bool {
	if !a.enabled() {
		return false
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(user), []byte(a.username)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(pass)) == nil
}

// Middleware challenges requests without valid credentials
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.check(r) {
			if _, _, attempted := r.BasicAuth(); attempted {
				a.log.Warn().Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("handlers: admin login failed")
			}
			w.Header().Set("WWW-Authenticate", BasicAuthRealm)
			WriteAPIError(w, http.StatusUnauthorized, CodeUnauthorized, "Login Required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
