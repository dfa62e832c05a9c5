package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userKey = "codequiz.user"

// authenticate resolves the calling user. With a secret it requires an
// HS256 bearer token and takes the user from the sub claim; otherwise it
// trusts the X-User-ID header.
func authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			userID string
			err    error
		)
		if secret != "" {
			userID, err = userFromToken(c.GetHeader("Authorization"), []byte(secret))
		} else {
			userID = strings.TrimSpace(c.GetHeader("X-User-ID"))
			if userID == "" {
				err = errors.New("X-User-ID header is required")
			}
		}
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		c.Set(userKey, userID)
		c.Next()
	}
}

func userFromToken(header string, secret []byte) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", errors.New("bearer token is required")
	}

	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

func currentUser(c *gin.Context) string {
	return c.GetString(userKey)
}
