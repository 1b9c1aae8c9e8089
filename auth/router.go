package auth

import (
	"github.com/gin-gonic/gin"
)

// HandlerFunc is called for authenticated requests only
type HandlerFunc func(c *gin.Context, identity Identity)

// Router is a wrapper that adds the bearer token check and passes the caller's
// Identity to handlers explicitly
type Router struct {
	Base   gin.IRoutes
	Tokens *TokenManager
}

func (cr *Router) baseExec(c *gin.Context, handler HandlerFunc) {
	identity, ok := IdentityFrom(c.Request.Context())
	if !ok {
		_ = c.Error(ErrAuthenticationFailed)
		c.Abort()
		return
	}
	handler(c, identity)
}

func (cr *Router) wrap(handler HandlerFunc) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		Required(cr.Tokens),
		func(c *gin.Context) {
			cr.baseExec(c, handler)
		},
	}
}

func (cr *Router) POST(path string, handler HandlerFunc) {
	cr.Base.POST(path, cr.wrap(handler)...)
}

func (cr *Router) PATCH(path string, handler HandlerFunc) {
	cr.Base.PATCH(path, cr.wrap(handler)...)
}

func (cr *Router) DELETE(path string, handler HandlerFunc) {
	cr.Base.DELETE(path, cr.wrap(handler)...)
}
