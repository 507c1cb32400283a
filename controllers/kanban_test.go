package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"corretor/models"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLeads(t *testing.T, db *gorm.DB, userID int64, offset, n int, status string) {
	t.Helper()
	for i := offset; i < offset+n; i++ {
		_, _, err := UpsertLead(db, userID, LeadInput{
			Contato: fmt.Sprintf("119%08d", 70000000+i),
			Status:  status,
		})
		require.NoError(t, err)
	}
}

func TestKanbanPage_NoOverlapAndExhausts(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")
	seedLeads(t, db, broker.ID, 0, 7, models.LEAD_STATUS_QUALIFICADO)
	seedLeads(t, db, broker.ID, 7, 2, models.LEAD_STATUS_PERDIDO)

	seen := map[int64]bool{}
	var cursor int64
	pages := 0
	for {
		leads, next, err := kanbanPage(db, broker.ID, models.LEAD_STATUS_QUALIFICADO, cursor, 3)
		require.NoError(t, err)
		pages++
		for i, l := range leads {
			assert.False(t, seen[l.ID], "lead repetido entre páginas")
			seen[l.ID] = true
			assert.Equal(t, models.LEAD_STATUS_QUALIFICADO, l.Status)
			if i > 0 {
				assert.Less(t, l.ID, leads[i-1].ID)
			}
		}
		if next == "" {
			break
		}
		_, err = fmt.Sscan(next, &cursor)
		require.NoError(t, err)
	}
	assert.Len(t, seen, 7)
	assert.Equal(t, 3, pages)
}

func TestKanbanPage_ExactMultipleEndsWithEmptyCursor(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")
	seedLeads(t, db, broker.ID, 0, 4, models.LEAD_STATUS_ENTRANTE)

	first, next, err := kanbanPage(db, broker.ID, models.LEAD_STATUS_ENTRANTE, 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, next)

	var cursor int64
	fmt.Sscan(next, &cursor)
	second, next, err := kanbanPage(db, broker.ID, models.LEAD_STATUS_ENTRANTE, cursor, 2)
	require.NoError(t, err)
	assert.Len(t, second, 2)
	assert.Empty(t, next)
}

func TestGetKanban_Columns(t *testing.T) {
	db := setupDB(t)
	broker := createBroker(t, db, "ana@corretora.com", "11911112222")
	seedLeads(t, db, broker.ID, 0, 3, models.LEAD_STATUS_ENTRANTE)
	seedLeads(t, db, broker.ID, 3, 1, models.LEAD_STATUS_ARQUIVADO)

	r := newEngine(db, &broker)
	r.GET("/api/leads/kanban", GetKanban)
	r.GET("/api/leads/kanban/:status", GetKanbanColumn)

	w := doJSON(t, r, http.MethodGet, "/api/leads/kanban?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Columns []kanbanColumnResponse `json:"columns"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Columns, len(models.KanbanColumns))
	entrantes := resp.Columns[0]
	assert.Equal(t, models.LEAD_STATUS_ENTRANTE, entrantes.ID)
	assert.Equal(t, 3, entrantes.Total)
	assert.Len(t, entrantes.Leads, 2)
	assert.NotEmpty(t, entrantes.NextCursor)
	for _, col := range resp.Columns[1:] {
		assert.Equal(t, 0, col.Total)
		assert.Empty(t, col.Leads)
		assert.Empty(t, col.NextCursor)
	}

	w = doJSON(t, r, http.MethodGet, "/api/leads/kanban/ENTRANTE?cursor="+entrantes.NextCursor+"&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page struct {
		Leads      []models.Lead `json:"leads"`
		NextCursor string        `json:"next_cursor"`
	}
	decode(t, w, &page)
	assert.Len(t, page.Leads, 1)
	assert.Empty(t, page.NextCursor)

	w = doJSON(t, r, http.MethodGet, "/api/leads/kanban/ENTRANTE?cursor=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/leads/kanban/NADA", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
