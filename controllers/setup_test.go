package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"corretor/config"
	dbpkg "corretor/db"
	"corretor/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "chave-n8n-teste"

func testConfig() config.Configuration {
	var cfg config.Configuration
	cfg.Security.JwtSecret = "segredo-de-teste"
	cfg.Security.N8NApiKey = testAPIKey
	cfg.Security.BcryptCost = 4
	config.ApplyDefaults(&cfg)
	return cfg
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	require.NoError(t, dbpkg.Migrate(db))
	t.Cleanup(func() { db.Close() })

	SetDependencies(Dependencies{Config: testConfig()})
	require.NoError(t, RegisterValidators())
	return db
}

func createBroker(t *testing.T, db *gorm.DB, email, phone string) models.User {
	t.Helper()
	user, err := CreateUser(db, models.User{
		Name:     "Corretor " + email,
		Email:    email,
		Password: "senha123",
		Phone:    phone,
	}, 4)
	require.NoError(t, err)
	return user
}

// newEngine monta um gin com o banco no contexto e, se user != nil, a sessão já carregada.
func newEngine(db *gorm.DB, user *models.User) *gin.Engine {
	r := gin.New()
	r.Use(dbpkg.SetDBtoContext(db))
	if user != nil {
		u := *user
		r.Use(func(c *gin.Context) {
			c.Set(ctxUserKey, u)
			c.Next()
		})
	}
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
