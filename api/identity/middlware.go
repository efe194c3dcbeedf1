package identity

import (
	"net/http"
	"strings"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/gin-gonic/gin"
)

const (
	// ContextUserClaims is the key used to store user claims in the Gin context.
	ContextUserClaims = "userClaims"
	// ContextActingIdentity is the key of the game.ActingIdentity of a request.
	ContextActingIdentity = "actingIdentity"
	// DebugPlayerHeader lets a debug client act as another seat.
	DebugPlayerHeader = "X-Debug-Player"
)

// Authoriz validates the bearer token and attaches the acting identity. When
// debug is on, the X-Debug-Player header overrides the effective player.
func Authoriz(ts i.Tokenizer, debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Retrieve the access token from the Authorization header.
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Status(http.StatusUnauthorized)
			c.Abort()
			return
		}

		// Split the "Bearer" prefix from the token.
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.Status(http.StatusUnauthorized)
			c.Abort()
			return
		}

		claims, err := ts.Decode(parts[1])
		if err != nil {
			c.Status(http.StatusUnauthorized)
			c.Abort()
			return
		}

		userID, _ := claims[i.ClaimUserID].(string)
		if userID == "" {
			c.Status(http.StatusUnauthorized)
			c.Abort()
			return
		}
		username, _ := claims[i.ClaimUsername].(string)

		who := game.ActingIdentity{PlayerID: userID, DisplayName: username}
		if debug {
			who.DebugPlayerID = strings.TrimSpace(c.GetHeader(DebugPlayerHeader))
		}

		c.Set(ContextUserClaims, claims)
		c.Set(ContextActingIdentity, who)
		c.Next()
	}
}

// Acting returns the identity attached by Authoriz.
func Acting(c *gin.Context) (game.ActingIdentity, bool) {
	v, ok := c.Get(ContextActingIdentity)
	if !ok {
		return game.ActingIdentity{}, false
	}
	who, ok := v.(game.ActingIdentity)
	return who, ok
}
