package controllers

import (
	"net/http"
	"testing"
	"time"

	"corretor/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	user := models.User{ID: 42, Role: models.USER_ROLE_USER}
	token, exp, err := issueSessionToken(user, "segredo", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := parseSessionToken(token, "segredo")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseSessionToken(token, "outro-segredo")
	assert.Error(t, err)

	expired, _, err := issueSessionToken(user, "segredo", -time.Minute)
	require.NoError(t, err)
	_, err = parseSessionToken(expired, "segredo")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseSessionToken_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = parseSessionToken(none, "segredo")
	assert.Error(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).SignedString([]byte("segredo"))
	require.NoError(t, err)
	_, err = parseSessionToken(noExp, "segredo")
	assert.Error(t, err)
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupDB(t)
	r := newEngine(db, nil)
	r.POST("/api/register", Register)
	r.POST("/api/login", Login)
	r.GET("/api/me", AuthRequired(), Me)

	reg := map[string]string{"name": "Ana", "email": "Ana@Corretora.com", "password": "senha123", "phone": "11987654321"}
	w := doJSON(t, r, http.MethodPost, "/api/register", reg)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/register", reg)
	assert.Equal(t, http.StatusConflict, w.Code)

	bad := map[string]string{"name": "Bia", "email": "bia@corretora.com", "password": "senha123", "phone": "123"}
	w = doJSON(t, r, http.MethodPost, "/api/register", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/login", map[string]string{"email": "ana@corretora.com", "password": "errada"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/login", map[string]string{"email": "ana@corretora.com", "password": "senha123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login LoginResponse
	decode(t, w, &login)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "ana@corretora.com", login.User.Email)

	var cookie *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == deps.Config.Security.CookieName {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	w = doJSON(t, r, http.MethodGet, "/api/me", nil, "Authorization", "Bearer "+login.Token)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/me", nil, "Cookie", cookie.Name+"="+cookie.Value)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckAPIKey(t *testing.T) {
	db := setupDB(t)
	r := newEngine(db, nil)
	r.GET("/bot", func(c *gin.Context) {
		if !CheckAPIKey(c) {
			RespondError(c, "Não autorizado", http.StatusUnauthorized)
			return
		}
		RespondSuccess(c, gin.H{"api": IsAPIKeyRequest(c)})
	})

	w := doJSON(t, r, http.MethodGet, "/bot", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(t, r, http.MethodGet, "/bot", nil, APIKeyHeader, "errada")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(t, r, http.MethodGet, "/bot", nil, APIKeyHeader, testAPIKey)
	assert.Equal(t, http.StatusOK, w.Code)
}
