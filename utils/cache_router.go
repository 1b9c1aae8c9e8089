package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	CacheNoCache = 0
	CacheCustom  = -1
)

// CacheRouter sets cache-control for every route in a group
type CacheRouter struct {
	CacheTime int  // seconds, defaults to CacheNoCache
	Public    bool // images may be cached by proxies, API responses may not
}

func (cr *CacheRouter) Handler() gin.HandlerFunc {
	scope := "private"
	if cr.Public {
		scope = "public"
	}
	return func(c *gin.Context) {
		switch cr.CacheTime {
		case CacheCustom:
		case CacheNoCache:
			c.Header("cache-control", "no-cache")
		default:
			c.Header("cache-control", scope+", max-age="+strconv.Itoa(cr.CacheTime))
		}
		c.Next()
	}
}
