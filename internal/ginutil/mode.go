// Package ginutil configures the global state of the gin framework.
package ginutil

import (
	"os"

	"github.com/gin-gonic/gin"
)

// SetMode sets the gin mode from the GIN_MODE environment variable. Unlike
// the init function in gin, an unset variable means ReleaseMode, so a server
// never starts in debug mode by accident.
func SetMode() {
	mode := os.Getenv(gin.EnvGinMode)
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
}
