package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
)

const (
	requestIDHeader = "X-Request-ID"
	identityKey     = "identity"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetString(requestIDHeader)).
			Msg("http request")
	}
}

func recovered(c *gin.Context, err any) {
	log.Error().Interface("panic", err).Str("path", c.Request.URL.Path).Msg("handler panic")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": "internal server error",
	})
}

// identityClaims is the bearer token issued by the identity provider.
type identityClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// identity attaches the caller's identity when a bearer token is present.
// Anonymous requests pass through; a bad token is rejected.
func (s *Server) identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || len(s.secret) == 0 {
			respondError(c, domain.ErrUnauthenticated)
			return
		}
		claims := &identityClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || claims.Subject == "" {
			if err == nil {
				err = errors.New("token has no subject")
			}
			log.Debug().Err(err).Msg("identity token rejected")
			respondError(c, domain.ErrUnauthenticated)
			return
		}
		id := &domain.Identity{
			UserID:      claims.Subject,
			Email:       strings.TrimSpace(claims.Email),
			DisplayName: claims.Name,
			IsAdmin:     claims.IsAdmin,
		}
		c.Set(identityKey, id)

		if id.Email != "" && s.customers != nil {
			if _, err := s.customers.Register(c.Request.Context(), id); err != nil {
				log.Warn().Err(err).Str("user", id.UserID).Msg("customer register")
			}
		}
		c.Next()
	}
}

func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actor(c).Authenticated() {
			respondError(c, domain.ErrUnauthenticated)
			return
		}
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := actor(c)
		if !id.Authenticated() {
			respondError(c, domain.ErrUnauthenticated)
			return
		}
		if !id.Admin() {
			respondError(c, domain.ErrPermissionDenied)
			return
		}
		c.Next()
	}
}

// actor returns the caller, or nil for anonymous requests.
func actor(c *gin.Context) *domain.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*domain.Identity)
	return id
}
