package session

import (
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/gin-gonic/gin"
)

// ActorMiddleware attributes writes to the signed in account when the
// request didn't name one already
func ActorMiddleware(sm *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		actor := persistence.ActorFrom(ctx)
		if actor.AccountID == nil {
			if id := sm.AccountID(ctx); id != nil {
				actor.AccountID = id
				c.Request = c.Request.WithContext(persistence.WithActor(ctx, actor))
			}
		}

		c.Next()
	}
}
