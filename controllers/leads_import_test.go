package controllers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"corretor/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportLeads_DedupAndIgnore(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")
	_, _, err := UpsertLead(db, broker.ID, LeadInput{Contato: "11987654321"})
	require.NoError(t, err)

	stats, err := ImportLeads(db, broker.ID, []BulkLead{
		{Name: "Já existe", Contato: "+55 (11) 8765-4321"},
		{Name: "Novo", Contato: "21987650000", Status: "QUALQUER"},
		{Name: "Repetido", Contato: "5521987650000"},
		{Name: "Curto", Contato: "1234"},
		{Contato: "31987651111", Status: models.LEAD_STATUS_PROPOSTA_ENVIADA},
	})
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Count: 2, TotalReceived: 5, Ignored: 1, Duplicates: 2}, stats)

	var novo models.Lead
	require.NoError(t, db.Where("user_id = ? AND name = ?", broker.ID, "Novo").First(&novo).Error)
	assert.Equal(t, models.LEAD_STATUS_ENTRANTE, novo.Status)
	assert.Equal(t, models.LEAD_ORIGIN_IMPORT, novo.OrigemLead)
	assert.Equal(t, "5521987650000", novo.Contato)

	var semNome models.Lead
	require.NoError(t, db.Where("user_id = ? AND contato = ?", broker.ID, "5531987651111").First(&semNome).Error)
	assert.Equal(t, "Lead Importado", semNome.Name)
	assert.Equal(t, models.LEAD_STATUS_PROPOSTA_ENVIADA, semNome.Status)
}

func TestBulkCreateLeads_Handler(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")
	r := newEngine(db, &broker)
	r.POST("/api/leads/bulk", BulkCreateLeads)

	w := doJSON(t, r, http.MethodPost, "/api/leads/bulk", map[string]interface{}{"leads": []BulkLead{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/leads/bulk", map[string]interface{}{
		"leads": []BulkLead{{Name: "A", Contato: "11987650001"}, {Name: "B", Contato: "11987650001"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp map[string]interface{}
	decode(t, w, &resp)
	assert.Equal(t, true, resp["success"])
	assert.EqualValues(t, 1, resp["count"])
	assert.EqualValues(t, 1, resp["duplicates"])
}

func multipartFile(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestImportLeadsSpreadsheet_CSV(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")
	r := newEngine(db, &broker)
	r.POST("/api/leads/import", ImportLeadsSpreadsheet)

	csv := "Nome;Telefone Celular;Fase\nMaria;(11) 98765-4321;Ganha\nJoão;21 98765-0000;Cotação\nSem;123;\n"
	body, ct := multipartFile(t, "file", "carteira.csv", []byte(csv))
	req := httptest.NewRequest(http.MethodPost, "/api/leads/import", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	decode(t, w, &resp)
	assert.EqualValues(t, 3, resp["total"])
	assert.EqualValues(t, 2, resp["valid"])
	assert.EqualValues(t, 2, resp["count"])

	var maria models.Lead
	require.NoError(t, db.Where("user_id = ? AND name = ?", broker.ID, "Maria").First(&maria).Error)
	assert.Equal(t, models.LEAD_STATUS_VENDA_REALIZADA, maria.Status)
	assert.Equal(t, "CSV", maria.DynamicData.Map()["importSource"])

	body, ct = multipartFile(t, "file", "carteira.pdf", []byte("%PDF"))
	req = httptest.NewRequest(http.MethodPost, "/api/leads/import", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}
