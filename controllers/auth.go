package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	dbpkg "corretor/db"
	"corretor/logging"
	"corretor/models"
	"corretor/tools"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"required,phone_br"`
	Creci    string `json:"creci"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// POST /api/register
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, validationMessage(err), http.StatusBadRequest)
		return
	}

	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	user, err := CreateUser(db, models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Creci:    strings.TrimSpace(req.Creci),
	}, deps.Config.Security.BcryptCost)
	switch {
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrPhoneTaken):
		RespondError(c, "Usuário já existe (email ou telefone em uso).", http.StatusConflict)
		return
	case err != nil:
		logging.L().Error("register failed", zap.Error(err))
		RespondError(c, "Erro ao criar usuário.", http.StatusInternalServerError)
		return
	}

	RespondCreated(c, gin.H{"user": user})
}

// POST /api/login
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, "email e password são obrigatórios", http.StatusBadRequest)
		return
	}

	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	var user models.User
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		RespondError(c, "usuário ou senha inválidos", http.StatusUnauthorized)
		return
	}
	if !tools.ComparePassword(user.Password, req.Password) {
		RespondError(c, "usuário ou senha inválidos", http.StatusUnauthorized)
		return
	}

	sec := deps.Config.Security
	ttl := time.Duration(sec.SessionTTLHours) * time.Hour
	signed, exp, err := issueSessionToken(user, sec.JwtSecret, ttl)
	if err != nil {
		RespondError(c, "erro ao assinar token", http.StatusInternalServerError)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sec.CookieName, signed, int(ttl.Seconds()), "/", "", sec.CookieSecure, true)
	RespondSuccess(c, LoginResponse{Token: signed, ExpiresAt: exp, User: user})
}

// POST /api/logout
func Logout(c *gin.Context) {
	sec := deps.Config.Security
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sec.CookieName, "", -1, "/", "", sec.CookieSecure, true)
	RespondSuccess(c, gin.H{"success": true})
}
