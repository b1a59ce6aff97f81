package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"

	"github.com/shopfront/storefront-backend/api/responses"
	"github.com/shopfront/storefront-backend/pkg/config"
	pkgerrors "github.com/shopfront/storefront-backend/pkg/errors"
	"github.com/shopfront/storefront-backend/pkg/logger"
	"github.com/shopfront/storefront-backend/pkg/security"
)

// tokenVerifier checks presented admin tokens against either a plain token or an
// Argon2id hash. The digest of the last token that passed the hash check is remembered
// so repeat requests skip the key derivation.
type tokenVerifier struct {
	plain  [sha256.Size]byte
	hash   string
	usable bool

	mu       sync.Mutex
	verified [sha256.Size]byte
	cached   bool
}

func newTokenVerifier(cfg config.AdminConfig) *tokenVerifier {
	v := &tokenVerifier{}
	if hash := strings.TrimSpace(cfg.APITokenHash); hash != "" {
		v.hash = hash
		v.usable = security.ValidateHash(hash) == nil
		return v
	}
	if strings.TrimSpace(cfg.APIToken) != "" {
		v.plain = sha256.Sum256([]byte(cfg.APIToken))
		v.usable = true
	}
	return v
}

func (v *tokenVerifier) verify(presented string) bool {
	digest := sha256.Sum256([]byte(presented))
	if v.hash == "" {
		return subtle.ConstantTimeCompare(digest[:], v.plain[:]) == 1
	}

	v.mu.Lock()
	if v.cached && subtle.ConstantTimeCompare(digest[:], v.verified[:]) == 1 {
		v.mu.Unlock()
		return true
	}
	v.mu.Unlock()

	ok, err := security.VerifyToken(presented, v.hash)
	if err != nil || !ok {
		return false
	}
	v.mu.Lock()
	v.verified = digest
	v.cached = true
	v.mu.Unlock()
	return true
}

// AdminAuth accepts requests whose bearer token matches the configured admin credential.
// With no credential configured, or a malformed hash, every admin request is rejected.
func AdminAuth(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	verifier := newTokenVerifier(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !verifier.usable {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin access is not configured"))
				return
			}

			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			presented := raw
			if strings.HasPrefix(strings.ToLower(presented), "bearer ") {
				presented = strings.TrimSpace(presented[7:])
			}
			if presented == "" || !verifier.verify(presented) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
				return
			}

			ctx := WithAdmin(r.Context())
			if logg != nil {
				ctx = logg.WithField(ctx, "actor_role", "admin")
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
