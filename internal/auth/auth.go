package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/abrezinsky/discround/internal/models"
)

const (
	claimPlayerID = "player_id"
	claimRole     = "role"

	// TokenExpiry is the default lifetime of issued tokens
	TokenExpiry = 12 * time.Hour
)

// ErrInvalidToken is returned for tokens that fail signature or claim checks
var ErrInvalidToken = errors.New("invalid token")

type contextKey struct{}

// Verifier checks HS256 bearer tokens issued by the identity provider.
// It never authenticates credentials itself.
type Verifier struct {
	secret []byte
}

// New creates a Verifier for the shared signing secret
func New(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// IssueToken signs a token for playerID. Used by tooling and tests.
func (v *Verifier) IssueToken(playerID string, role models.Role, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		claimPlayerID: playerID,
		claimRole:     string(role),
		"iat":         time.Now().Unix(),
		"exp":         time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify parses a token and returns the identity it carries
func (v *Verifier) Verify(tokenString string) (models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, ErrInvalidToken
	}

	playerID, _ := claims[claimPlayerID].(string)
	if playerID == "" {
		return models.Identity{}, fmt.Errorf("%w: missing %s claim", ErrInvalidToken, claimPlayerID)
	}

	roleStr, _ := claims[claimRole].(string)
	role := models.Role(roleStr)
	switch role {
	case models.RolePlayer, models.RoleOrganizer, models.RoleAdmin:
	case "":
		role = models.RolePlayer
	default:
		return models.Identity{}, fmt.Errorf("%w: invalid role %q", ErrInvalidToken, roleStr)
	}

	return models.Identity{PlayerID: playerID, Role: role}, nil
}

// WithIdentity stores a verified caller in ctx
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the verified caller, if any
func FromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(models.Identity)
	return id, ok
}

// tokenFromRequest reads the bearer token from the Authorization header,
// falling back to the token query parameter for WebSocket clients
func tokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// Identify middleware attaches the caller identity when a token is present.
// Requests without a token pass through anonymously; bad tokens get 401.
func (v *Verifier) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" && r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}

		id, err := v.Verify(token)
		if err != nil {
			unauthorized(w, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireIdentity middleware rejects anonymous requests with 401.
// It must run after Identify.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			unauthorized(w, "Unauthorized - bearer token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"code":"UNAUTHORIZED","error":%q}`, msg)
}
