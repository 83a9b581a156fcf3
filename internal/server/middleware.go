package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/marketplace/internal/callercontext"
)

const (
	HeaderUserID     = "X-User-Id"
	contextUserIDKey = "user_id"
)

// CallerIdentity trusts the user id set by the upstream gateway.
func CallerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		userID, err := snowflake.ParseString(raw)
		if err != nil || userID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Request = c.Request.WithContext(callercontext.WithUserID(c.Request.Context(), userID))
		c.Set(contextUserIDKey, userID.String())
		c.Next()
	}
}

func callerID(c *gin.Context) (snowflake.ID, bool) {
	return callercontext.UserIDFromContext(c.Request.Context())
}
