package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"corretor/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertLead_DeduplicatesPhoneFormats(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")

	first, created, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11987654321", Nome: "Maria"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "5511987654321", first.Contato)
	assert.Equal(t, "Maria", first.Name)
	assert.Equal(t, models.LEAD_STATUS_ENTRANTE, first.Status)
	assert.Equal(t, models.LEAD_STATUS_ENTRANTE, first.Segmentacao)
	assert.False(t, first.FirstContactSent)

	variants := []string{
		"+55 (11) 98765-4321",
		"5511987654321@s.whatsapp.net",
		"1187654321",
		"551187654321",
	}
	for _, v := range variants {
		lead, created, err := UpsertLead(db, broker.ID, LeadInput{Contato: v, Classificacao: "tier3"})
		require.NoError(t, err, v)
		assert.False(t, created, v)
		assert.Equal(t, first.ID, lead.ID, v)
	}

	var count int
	db.Model(&models.Lead{}).Where("user_id = ?", broker.ID).Count(&count)
	assert.Equal(t, 1, count)
}

func TestUpsertLead_KeepsFieldsNotSent(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")

	_, _, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11987654321", Nome: "Maria", Segmentacao: "RESIDENCIAL"})
	require.NoError(t, err)

	lead, created, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11987654321", Status: models.LEAD_STATUS_QUALIFICADO})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Maria", lead.Name)
	assert.Equal(t, "RESIDENCIAL", lead.Segmentacao)
	assert.Equal(t, models.LEAD_STATUS_QUALIFICADO, lead.Status)
}

func TestUpsertLead_SameContatoDifferentBrokers(t *testing.T) {
	db := setupDB(t)
	a := createBroker(t, db, "a@corretora.com", "11911112222")
	b := createBroker(t, db, "b@corretora.com", "11933334444")

	la, createdA, err := UpsertLead(db, a.ID, LeadInput{Contato: "11987654321"})
	require.NoError(t, err)
	lb, createdB, err := UpsertLead(db, b.ID, LeadInput{Contato: "11987654321"})
	require.NoError(t, err)

	assert.True(t, createdA)
	assert.True(t, createdB)
	assert.NotEqual(t, la.ID, lb.ID)
	assert.Equal(t, defaultLeadName, la.Name)
}

func TestUpsertLead_Invalid(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")

	_, _, err := UpsertLead(db, broker.ID, LeadInput{Contato: "sem número"})
	assert.ErrorIs(t, err, ErrInvalidContato)

	_, _, err = UpsertLead(db, broker.ID, LeadInput{Contato: "11987654321", Status: "QUALQUER"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCreateOrUpdateLead_SessionWinsOverBody(t *testing.T) {
	db := setupDB(t)
	owner := createBroker(t, db, "dono@corretora.com", "11911112222")
	other := createBroker(t, db, "outro@corretora.com", "11933334444")

	r := newEngine(db, &owner)
	r.POST("/api/leads", CreateOrUpdateLead)

	w := doJSON(t, r, http.MethodPost, "/api/leads", map[string]interface{}{
		"userId":  other.ID,
		"contato": "11987654321",
		"nome":    "João",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool  `json:"success"`
		LeadID  int64 `json:"leadId"`
		Created bool  `json:"created"`
	}
	decode(t, w, &resp)
	assert.True(t, resp.Success)
	assert.True(t, resp.Created)

	var lead models.Lead
	require.NoError(t, db.First(&lead, resp.LeadID).Error)
	assert.Equal(t, owner.ID, lead.UserID)
}

func TestCreateOrUpdateLead_RequiresUserAndContato(t *testing.T) {
	db := setupDB(t)
	r := newEngine(db, nil)
	r.POST("/api/leads", CreateOrUpdateLead)

	w := doJSON(t, r, http.MethodPost, "/api/leads", map[string]interface{}{"contato": "11987654321"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/leads", map[string]interface{}{"userId": "7"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateLead_ContatoCollision(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")
	a, _, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11987654321"})
	require.NoError(t, err)
	b, _, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11955556666"})
	require.NoError(t, err)

	r := newEngine(db, &broker)
	r.PUT("/api/leads/:id", UpdateLead)

	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/leads/%d", b.ID), map[string]interface{}{"contato": "(11) 8765-4321"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/leads/%d", a.ID), map[string]interface{}{"name": "Maria Souza", "status": "PERDIDO"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got models.Lead
	decode(t, w, &got)
	assert.Equal(t, "Maria Souza", got.Name)
	assert.Equal(t, models.LEAD_STATUS_PERDIDO, got.Status)
}

func TestUpdateLeadStatus(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")
	intruder := createBroker(t, db, "intruso@corretora.com", "11933334444")
	lead, _, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11987654321"})
	require.NoError(t, err)
	path := fmt.Sprintf("/api/leads/%d/status", lead.ID)

	r := newEngine(db, &broker)
	r.PATCH("/api/leads/:id/status", UpdateLeadStatus)

	w := doJSON(t, r, http.MethodPatch, path, map[string]string{"status": "INEXISTENTE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPatch, path, map[string]string{"status": models.LEAD_STATUS_PROPOSTA_ENVIADA})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.Lead
	require.NoError(t, db.First(&got, lead.ID).Error)
	assert.Equal(t, models.LEAD_STATUS_PROPOSTA_ENVIADA, got.Status)

	ri := newEngine(db, &intruder)
	ri.PATCH("/api/leads/:id/status", UpdateLeadStatus)
	w = doJSON(t, ri, http.MethodPatch, path, map[string]string{"status": models.LEAD_STATUS_PERDIDO})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteLead_FreesSlotsAndRemovesChildren(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")
	lead, _, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11987654321"})
	require.NoError(t, err)

	slot, when := createSlot(t, db, broker.ID)
	_, err = BookAppointment(db, Booking{UserID: broker.ID, LeadID: lead.ID, DataHora: when})
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Attachment{LeadID: lead.ID, URL: "https://x/a.pdf", Name: "a.pdf"}).Error)

	r := newEngine(db, &broker)
	r.DELETE("/api/leads/:id", DeleteLead)
	w := doJSON(t, r, http.MethodDelete, "/api/leads/"+strconv.FormatInt(lead.ID, 10), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var n int
	db.Model(&models.Lead{}).Count(&n)
	assert.Equal(t, 0, n)
	db.Model(&models.Agendamento{}).Count(&n)
	assert.Equal(t, 0, n)
	db.Model(&models.Attachment{}).Count(&n)
	assert.Equal(t, 0, n)

	var s models.AvailabilitySlot
	require.NoError(t, db.First(&s, slot.ID).Error)
	assert.False(t, s.IsBooked)
}

func TestDeleteLead_KeepsSlotRebookedByAnotherLead(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")
	first, _, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11987654321"})
	require.NoError(t, err)
	second, _, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11961234567"})
	require.NoError(t, err)

	slot, when := createSlot(t, db, broker.ID)
	ag, err := BookAppointment(db, Booking{UserID: broker.ID, LeadID: first.ID, DataHora: when})
	require.NoError(t, err)
	_, err = CancelAppointment(db, broker.ID, ag.ID)
	require.NoError(t, err)
	_, err = BookAppointment(db, Booking{UserID: broker.ID, LeadID: second.ID, DataHora: when})
	require.NoError(t, err)

	r := newEngine(db, &broker)
	r.DELETE("/api/leads/:id", DeleteLead)
	w := doJSON(t, r, http.MethodDelete, "/api/leads/"+strconv.FormatInt(first.ID, 10), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var s models.AvailabilitySlot
	require.NoError(t, db.First(&s, slot.ID).Error)
	assert.True(t, s.IsBooked)

	_, err = BookAppointment(db, Booking{UserID: broker.ID, LeadID: second.ID, DataHora: when})
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestUpsertLead_DeduplicatesNinthDigitFor96xMobiles(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")

	first, created, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11 96123-4567"})
	require.NoError(t, err)
	assert.True(t, created)

	for _, v := range []string{"551161234567", "1161234567", "5511961234567@s.whatsapp.net"} {
		lead, created, err := UpsertLead(db, broker.ID, LeadInput{Contato: v})
		require.NoError(t, err, v)
		assert.False(t, created, v)
		assert.Equal(t, first.ID, lead.ID, v)
	}
}
