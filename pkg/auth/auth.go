// Package auth resolves who is calling the HTTP API. Callers name themselves
// with an address header; owner operated routes also need the admin token.
package auth

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"nftmarket/pkg/response"
)

const (
	CallerHeader     = "X-Caller-Address"
	AdminTokenHeader = "X-Admin-Token"

	callerKey = "caller"
)

// RequireCaller rejects requests without a valid caller address and stores
// the address on the context.
func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(CallerHeader)
		if raw == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+CallerHeader+" header")
			return
		}
		if !common.IsHexAddress(raw) {
			response.AbortWithError(c, http.StatusBadRequest, "INVALID_INPUT", "invalid caller address")
			return
		}
		addr := common.HexToAddress(raw)
		if addr == (common.Address{}) {
			response.AbortWithError(c, http.StatusBadRequest, "INVALID_INPUT", "caller must not be the zero address")
			return
		}
		c.Set(callerKey, addr)
		c.Next()
	}
}

// CallerFrom returns the address stored by RequireCaller.
func CallerFrom(c *gin.Context) (common.Address, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return common.Address{}, false
	}
	addr, ok := v.(common.Address)
	return addr, ok
}

// RequireAdmin checks the admin token against a bcrypt hash. With an empty
// hash every request is refused.
func RequireAdmin(tokenHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenHash == "" {
			response.AbortWithError(c, http.StatusForbidden, "FORBIDDEN", "admin routes are disabled")
			return
		}
		token := c.GetHeader(AdminTokenHeader)
		if token == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+AdminTokenHeader+" header")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
			response.AbortWithError(c, http.StatusForbidden, "FORBIDDEN", "invalid admin token")
			return
		}
		c.Next()
	}
}

// HashToken produces the value for ADMIN_TOKEN_HASH.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
