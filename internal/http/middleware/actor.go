// README: Actor identity middleware; trusts headers set by the upstream auth gateway.
package middleware

import "github.com/gin-gonic/gin"

const (
	ctxActorID   = "actor_id"
	ctxActorRole = "actor_role"
)

// Actor lifts the authenticated identity out of the gateway headers. Role
// checks happen upstream; this core only records who acted.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxActorID, c.GetHeader("X-Actor-Id"))
		c.Set(ctxActorRole, c.GetHeader("X-Actor-Role"))
		c.Next()
	}
}

func ActorID(c *gin.Context) string {
	return c.GetString(ctxActorID)
}

func ActorRole(c *gin.Context) string {
	return c.GetString(ctxActorRole)
}
