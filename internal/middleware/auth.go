package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lshigami/examhall/config"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/model"
	"github.com/lshigami/examhall/internal/policy"
	"github.com/rs/zerolog/log"
)

const viewerKey = "viewer"

// Claims are issued by the identity service: sub is the user id, role is
// ADMIN or STUDENT.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates bearer tokens signed with the shared HS256 secret.
type Auth struct {
	secret []byte
}

func NewAuth(cfg *config.Config) *Auth {
	return &Auth{secret: []byte(cfg.Auth.JWTSecret)}
}

// IssueToken signs a token for userID. Used by tests and local tooling; the
// identity service issues production tokens.
func (a *Auth) IssueToken(userID uint, role model.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse validates a raw token and returns the viewer it identifies.
func (a *Auth) Parse(raw string) (policy.Viewer, error) {
	if len(a.secret) == 0 {
		return policy.Viewer{}, errors.New("no signing secret configured")
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return policy.Viewer{}, err
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || id == 0 {
		return policy.Viewer{}, errors.New("invalid subject claim")
	}
	role := model.Role(claims.Role)
	if role != model.RoleAdmin && role != model.RoleStudent {
		return policy.Viewer{}, errors.New("invalid role claim")
	}
	return policy.Viewer{UserID: uint(id), Role: role}, nil
}

// Authenticate rejects requests without a valid bearer token and stores the
// viewer on the gin context.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		fields := strings.Fields(header)
		if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Missing or malformed bearer token"})
			return
		}
		viewer, err := a.Parse(fields[1])
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("Rejected bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid token", Details: []string{err.Error()}})
			return
		}
		c.Set(viewerKey, viewer)
		c.Next()
	}
}

// RequireRole allows only viewers holding role.
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, ok := ViewerFrom(c)
		if !ok || viewer.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Message: "This endpoint requires role " + string(role)})
			return
		}
		c.Next()
	}
}

func ViewerFrom(c *gin.Context) (policy.Viewer, bool) {
	v, ok := c.Get(viewerKey)
	if !ok {
		return policy.Viewer{}, false
	}
	viewer, ok := v.(policy.Viewer)
	return viewer, ok
}

// SetViewer is used by tests that bypass token parsing.
func SetViewer(c *gin.Context, viewer policy.Viewer) {
	c.Set(viewerKey, viewer)
}
