package controllers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	dbpkg "corretor/db"
	"corretor/models"

	"github.com/gin-gonic/gin"
)

const ctxUserKey = "auth_user"
const ctxAPIKey = "auth_api_key"

// APIKeyHeader é o header usado pelo n8n.
const APIKeyHeader = "x-api-key"

// AuthRequired valida o token de sessão (cookie ou Bearer) e carrega o usuário no contexto.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := LoadSessionUser(c); !ok {
			RespondError(c, "Não autorizado", http.StatusUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoadSessionUser tenta autenticar pela sessão sem abortar a requisição.
func LoadSessionUser(c *gin.Context) (models.User, bool) {
	if user, ok := GetUserLogged(c); ok {
		return user, true
	}

	token := sessionToken(c)
	if token == "" {
		return models.User{}, false
	}
	userID, err := parseSessionToken(token, deps.Config.Security.JwtSecret)
	if err != nil {
		return models.User{}, false
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		return models.User{}, false
	}
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return models.User{}, false
	}

	c.Set(ctxUserKey, user)
	return user, true
}

func sessionToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if v, err := c.Cookie(deps.Config.Security.CookieName); err == nil {
		return v
	}
	return ""
}

// GetUserLogged returns the user loaded by AuthRequired.
func GetUserLogged(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

// CheckAPIKey compara o x-api-key em tempo constante. Chave não configurada nunca passa.
func CheckAPIKey(c *gin.Context) bool {
	expected := deps.Config.Security.N8NApiKey
	got := c.GetHeader(APIKeyHeader)
	if expected == "" || got == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
		return false
	}
	c.Set(ctxAPIKey, true)
	return true
}

// IsAPIKeyRequest diz se a requisição entrou pela chave do n8n.
func IsAPIKeyRequest(c *gin.Context) bool {
	return c.GetBool(ctxAPIKey)
}
