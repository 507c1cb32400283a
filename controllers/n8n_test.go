package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"corretor/cache"
	"corretor/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withRedisCache(t *testing.T) (*miniredis.Miniredis, cache.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c := cache.NewRedis(client, time.Minute)
	SetDependencies(Dependencies{Config: testConfig(), Cache: c})
	t.Cleanup(func() { SetDependencies(Dependencies{Config: testConfig()}) })
	return mr, c
}

func TestClaimUncontactedLeads_OnlyOnce(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")
	for _, phone := range []string{"11987650001", "11987650002", "11987650003"} {
		_, _, err := UpsertLead(db, broker.ID, LeadInput{Contato: phone})
		require.NoError(t, err)
	}
	// lead já em outra etapa não entra
	_, _, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11987650004", Status: models.LEAD_STATUS_QUALIFICADO})
	require.NoError(t, err)

	first, err := ClaimUncontactedLeads(db, 2)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := ClaimUncontactedLeads(db, 10)
	require.NoError(t, err)
	require.Len(t, second, 1)
	for _, l := range first {
		assert.NotEqual(t, l.ID, second[0].ID)
	}

	third, err := ClaimUncontactedLeads(db, 10)
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestGetUncontactedLeads_Handler(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")
	_, _, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11987650001", Nome: "Joana"})
	require.NoError(t, err)

	r := newEngine(db, nil)
	r.GET("/api/leads/uncontacted", GetUncontactedLeads)

	w := doJSON(t, r, http.MethodGet, "/api/leads/uncontacted", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out []uncontactedLead
	decode(t, w, &out)
	require.Len(t, out, 1)
	assert.Equal(t, "Joana", out[0].LeadName)
	assert.Equal(t, broker.ID, out[0].UserID)
	assert.Contains(t, out[0].WelcomeMessage, "Olá, Joana!")

	w = doJSON(t, r, http.MethodGet, "/api/leads/uncontacted", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var empty map[string]string
	decode(t, w, &empty)
	assert.Equal(t, "Nenhum lead entrante pendente.", empty["message"])
}

func TestGetUncontactedLeads_BrokerLookupFails(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")
	require.NoError(t, db.Model(&broker).Update("welcome_message", "Mensagem do corretor").Error)
	_, _, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11987650001", Nome: "Joana"})
	require.NoError(t, err)
	require.NoError(t, db.DropTable(&models.User{}).Error)

	r := newEngine(db, nil)
	r.GET("/api/leads/uncontacted", GetUncontactedLeads)

	w := doJSON(t, r, http.MethodGet, "/api/leads/uncontacted", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out []uncontactedLead
	decode(t, w, &out)
	require.Len(t, out, 1)
	assert.Contains(t, out[0].WelcomeMessage, "Olá, Joana!")
}

func TestGetUncontactedLeads_LockHeld(t *testing.T) {
	db := setupDB(t)
	_, c := withRedisCache(t)

	release, ok, err := c.Lock(context.Background(), uncontactedLockName, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	r := newEngine(db, nil)
	r.GET("/api/leads/uncontacted", GetUncontactedLeads)

	w := doJSON(t, r, http.MethodGet, "/api/leads/uncontacted", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	release()
	w = doJSON(t, r, http.MethodGet, "/api/leads/uncontacted", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWelcomeMessageFor(t *testing.T) {
	SetDependencies(Dependencies{Config: testConfig()})

	custom := models.User{WelcomeMessage: "Oi! Sou o assistente da corretora."}
	assert.Equal(t, "Oi! Sou o assistente da corretora.", welcomeMessageFor(custom, "Pedro"))

	msg := welcomeMessageFor(models.User{}, "Pedro")
	assert.Contains(t, msg, "Olá, Pedro!")
	assert.NotContains(t, msg, "%s")
}

func TestGetPostSalesLeads(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")
	other := createBroker(t, db, "outro@corretora.com", "11933334444")

	r := newEngine(db, nil)
	r.GET("/api/automations/post-sales", GetPostSalesLeads)

	w := doJSON(t, r, http.MethodGet, "/api/automations/post-sales", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var none struct {
		Message string        `json:"message"`
		Leads   []models.Lead `json:"leads"`
	}
	decode(t, w, &none)
	assert.Equal(t, "Nenhum produto de pós-venda ativo", none.Message)
	assert.Empty(t, none.Leads)

	product := models.InsuranceProduct{UserID: broker.ID, Name: "Pós-venda residencial", Status: models.PRODUCT_STATUS_ACTIVE, IsPostSales: true}
	require.NoError(t, db.Create(&product).Error)

	stale, _, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11987650001"})
	require.NoError(t, err)
	_, _, err = UpsertLead(db, broker.ID, LeadInput{Contato: "11987650002"})
	require.NoError(t, err)
	sold, _, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11987650003", Status: models.LEAD_STATUS_VENDA_REALIZADA})
	require.NoError(t, err)
	old := time.Now().AddDate(0, 0, -45)
	require.NoError(t, db.Model(&models.Lead{}).Where("id IN (?)", []int64{stale.ID, sold.ID}).UpdateColumn("updated_at", old).Error)

	w = doJSON(t, r, http.MethodGet, "/api/automations/post-sales", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Product models.InsuranceProduct `json:"product"`
		Leads   []models.Lead           `json:"leads"`
	}
	decode(t, w, &resp)
	assert.Equal(t, product.ID, resp.Product.ID)
	require.Len(t, resp.Leads, 1)
	assert.Equal(t, stale.ID, resp.Leads[0].ID)

	w = doJSON(t, r, http.MethodGet, "/api/automations/post-sales?userId="+itoa(other.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &none)
	assert.Equal(t, "Nenhum produto de pós-venda ativo", none.Message)

	w = doJSON(t, r, http.MethodGet, "/api/automations/post-sales?userId=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUserByPhone(t *testing.T) {
	db := setupDB(t)
	mr, _ := withRedisCache(t)
	broker := createBroker(t, db, "ana@corretora.com", "11987651234")
	require.NoError(t, db.Create(&models.InsuranceProduct{
		UserID: broker.ID, Name: "Residencial", Status: models.PRODUCT_STATUS_ACTIVE, MonthlyPremium: 89.9,
	}).Error)
	require.NoError(t, db.Create(&models.InsuranceProduct{
		UserID: broker.ID, Name: "Antigo", Status: models.PRODUCT_STATUS_ARCHIVED,
	}).Error)

	r := newEngine(db, nil)
	r.GET("/api/users/by-phone/:phone", GetUserByPhone)

	// sem o nono dígito e com DDI
	w := doJSON(t, r, http.MethodGet, "/api/users/by-phone/551187651234", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp specialistResponse
	decode(t, w, &resp)
	require.True(t, resp.IsSpecialist)
	require.NotNil(t, resp.Specialist)
	assert.Equal(t, broker.ID, resp.Specialist.ID)
	assert.NotEmpty(t, resp.Specialist.Questions)
	require.Len(t, resp.Specialist.Products, 1)
	assert.Equal(t, "Residencial", resp.Specialist.Products[0].Name)
	assert.True(t, mr.Exists(cache.SpecialistKey("551187651234")))

	// resposta vem do cache mesmo depois de mudar o banco
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", broker.ID).UpdateColumn("name", "Outro Nome").Error)
	w = doJSON(t, r, http.MethodGet, "/api/users/by-phone/5511987651234@s.whatsapp.net", nil)
	decode(t, w, &resp)
	assert.Equal(t, broker.Name, resp.Specialist.Name)

	invalidateSpecialist(context.Background(), "11987651234")
	assert.False(t, mr.Exists(cache.SpecialistKey("551187651234")))

	w = doJSON(t, r, http.MethodGet, "/api/users/by-phone/11999990000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var missing map[string]interface{}
	decode(t, w, &missing)
	assert.Equal(t, map[string]interface{}{"isSpecialist": false}, missing)
}

func TestGetFreeAvailability(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")
	free, _ := createSlot(t, db, broker.ID)
	start := free.EndTime.Add(time.Hour)
	require.NoError(t, db.Create(&models.AvailabilitySlot{UserID: broker.ID, StartTime: start, EndTime: start.Add(time.Hour), IsBooked: true}).Error)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Create(&models.AvailabilitySlot{UserID: broker.ID, StartTime: past, EndTime: past.Add(time.Hour)}).Error)

	r := newEngine(db, nil)
	r.GET("/api/availability/free", GetFreeAvailability)

	w := doJSON(t, r, http.MethodGet, "/api/availability/free", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/availability/free?userId="+itoa(broker.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var slots []models.AvailabilitySlot
	decode(t, w, &slots)
	require.Len(t, slots, 1)
	assert.Equal(t, free.ID, slots[0].ID)
}
