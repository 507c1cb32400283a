package controllers

import (
	"net/http"

	"corretor/cache"
	"corretor/config"
	"corretor/tools"

	"github.com/gin-gonic/gin"
)

// Dependencies são os recursos compartilhados pelos handlers.
type Dependencies struct {
	Config  config.Configuration
	Storage tools.BlobStorage
	Cache   cache.Cache
}

var deps = Dependencies{Cache: cache.Noop{}}

// SetDependencies é chamado no boot (e nos testes) antes de servir requisições.
func SetDependencies(d Dependencies) {
	config.ApplyDefaults(&d.Config)
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	deps = d
}

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"error": msg})
}

func RespondSuccess(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
