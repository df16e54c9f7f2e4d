package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/cleared-dev/finboard/internal/session"
)

// PrivacyHeader switches privacy masking on for one request.
const PrivacyHeader = "X-Privacy"

var errNoToken = errors.New("authorization token not provided")

// bearerToken reads the token from the Authorization header, or from the
// access_token query parameter for WebSocket upgrades, which browsers cannot
// send headers with.
func bearerToken(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || tok == "" {
			return "", errors.New("invalid Authorization header format")
		}
		return tok, nil
	}
	if tok := r.URL.Query().Get("access_token"); tok != "" {
		return tok, nil
	}
	return "", errNoToken
}

// Verify checks an HS256 token and returns its subject. Tokens are issued
// by the identity provider; finboard never signs them.
func Verify(secret []byte, tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// authMiddleware verifies the bearer token and attaches a session for the
// token's subject to the request context.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := bearerToken(c.Request)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}
		user, err := Verify(s.secret, tokenStr)
		if err != nil {
			s.logger.Debug("rejected token", "error", err)
			abortUnauthorized(c, "invalid or expired token")
			return
		}
		privacy := strings.EqualFold(c.GetHeader(PrivacyHeader), "on")
		sess := session.New(user, privacy, session.SchemeAuto)
		c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), sess))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// sessionOf returns the session attached by authMiddleware.
func sessionOf(c *gin.Context) session.Reader {
	sess, ok := session.FromContext(c.Request.Context())
	if !ok {
		// Routes are only reachable through authMiddleware.
		panic("server: request without session")
	}
	return sess
}

func userOf(c *gin.Context) string {
	return sessionOf(c).User()
}
