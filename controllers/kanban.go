package controllers

import (
	"net/http"
	"strconv"
	"strings"

	dbpkg "corretor/db"
	"corretor/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const (
	kanbanDefaultLimit = 20
	kanbanMaxLimit     = 100
)

type kanbanColumnResponse struct {
	ID         string        `json:"id"`
	Label      string        `json:"label"`
	Total      int           `json:"total"`
	Leads      []models.Lead `json:"leads"`
	NextCursor string        `json:"next_cursor"`
}

// kanbanPage devolve até limit leads da coluna com id menor que o cursor (0 = início).
// O cursor seguinte é o id do último lead da página, vazio quando a coluna acabou.
func kanbanPage(db *gorm.DB, userID int64, status string, cursor int64, limit int) ([]models.Lead, string, error) {
	q := db.Where("user_id = ? AND status = ?", userID, status)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}

	var leads []models.Lead
	if err := q.Preload("InterestedInProduct").Order("id desc").Limit(limit + 1).Find(&leads).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(leads) > limit {
		leads = leads[:limit]
		next = strconv.FormatInt(leads[len(leads)-1].ID, 10)
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	return leads, next, nil
}

// GET /api/leads/kanban
// Primeira página de cada coluna com o total de leads.
func GetKanban(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}
	limit := clampInt(queryInt(c, "limit", kanbanDefaultLimit), 1, kanbanMaxLimit)

	type statusCount struct {
		Status string
		Count  int
	}
	var counts []statusCount
	if err := db.Model(&models.Lead{}).
		Select("status, count(*) as count").
		Where("user_id = ?", user.ID).
		Group("status").
		Scan(&counts).Error; err != nil {
		RespondError(c, "Erro ao montar quadro", http.StatusInternalServerError)
		return
	}
	totals := map[string]int{}
	for _, sc := range counts {
		totals[sc.Status] = sc.Count
	}

	columns := make([]kanbanColumnResponse, 0, len(models.KanbanColumns))
	for _, col := range models.KanbanColumns {
		leads, next, err := kanbanPage(db, user.ID, col.ID, 0, limit)
		if err != nil {
			RespondError(c, "Erro ao montar quadro", http.StatusInternalServerError)
			return
		}
		columns = append(columns, kanbanColumnResponse{
			ID:         col.ID,
			Label:      col.Label,
			Total:      totals[col.ID],
			Leads:      leads,
			NextCursor: next,
		})
	}
	RespondSuccess(c, gin.H{"columns": columns})
}

// GET /api/leads/kanban/:status?cursor=&limit=
func GetKanbanColumn(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	status := strings.ToUpper(strings.TrimSpace(c.Param("status")))
	if !models.IsValidLeadStatus(status) {
		RespondError(c, "status inválido", http.StatusBadRequest)
		return
	}

	var cursor int64
	if raw := strings.TrimSpace(c.Query("cursor")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			RespondError(c, "cursor inválido", http.StatusBadRequest)
			return
		}
		cursor = n
	}
	limit := clampInt(queryInt(c, "limit", kanbanDefaultLimit), 1, kanbanMaxLimit)

	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}
	leads, next, err := kanbanPage(db, user.ID, status, cursor, limit)
	if err != nil {
		RespondError(c, "Erro ao buscar leads", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{
		"status":      status,
		"leads":       leads,
		"next_cursor": next,
	})
}
