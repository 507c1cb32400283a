package router

import (
	"net/http"

	"corretor/controllers"

	"github.com/gin-gonic/gin"
)

// APIKeyAuthorizer protege as rotas chamadas pelo n8n.
func APIKeyAuthorizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !controllers.CheckAPIKey(c) {
			controllers.RespondError(c, "Não autorizado", http.StatusUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionOrAPIKey aceita a sessão do painel ou a chave do n8n.
// A sessão tem prioridade: com ela o dono do lead é sempre o usuário logado.
func SessionOrAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := controllers.LoadSessionUser(c); ok {
			c.Next()
			return
		}
		if controllers.CheckAPIKey(c) {
			c.Next()
			return
		}
		controllers.RespondError(c, "Não autorizado", http.StatusUnauthorized)
		c.Abort()
	}
}
