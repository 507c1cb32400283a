package controllers

import (
	"net/http"
	"strings"

	dbpkg "corretor/db"
	"corretor/models"
	"corretor/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const ADMIN_LEADS_PAGE_SIZE = 15

type adminLeadRow struct {
	models.Lead
	BrokerName  string `json:"broker_name"`
	BrokerEmail string `json:"broker_email"`
}

type AdminStats struct {
	Users         int64            `json:"users"`
	Leads         int64            `json:"leads"`
	RecentLeads   []adminLeadRow   `json:"recentLeads"`
	LeadsByStatus map[string]int64 `json:"leadsByStatus"`
}

func adminLeadQuery(db *gorm.DB) *gorm.DB {
	return db.Table("leads").
		Select("leads.*, users.name as broker_name, users.email as broker_email").
		Joins("LEFT JOIN users ON users.id = leads.user_id")
}

// GET /api/admin/stats
func GetAdminStats(c *gin.Context) {
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	var stats AdminStats
	if err := db.Model(&models.User{}).Count(&stats.Users).Error; err != nil {
		RespondError(c, "Erro ao carregar estatísticas", http.StatusInternalServerError)
		return
	}
	byStatus, total, err := leadsByStatus(db, 0)
	if err != nil {
		RespondError(c, "Erro ao carregar estatísticas", http.StatusInternalServerError)
		return
	}
	stats.Leads = total
	stats.LeadsByStatus = byStatus

	if err := adminLeadQuery(db).Order("leads.created_at desc").Order("leads.id desc").
		Limit(5).Scan(&stats.RecentLeads).Error; err != nil {
		RespondError(c, "Erro ao carregar estatísticas", http.StatusInternalServerError)
		return
	}
	if stats.RecentLeads == nil {
		stats.RecentLeads = []adminLeadRow{}
	}
	RespondSuccess(c, stats)
}

type AdminLeadsPage struct {
	Total       int64          `json:"total"`
	Page        int            `json:"page"`
	TotalPages  int            `json:"totalPages"`
	HasNextPage bool           `json:"hasNextPage"`
	HasPrevPage bool           `json:"hasPrevPage"`
	Leads       []adminLeadRow `json:"leads"`
}

// AdminListLeads pagina os leads de todos os corretores, com busca por nome, contato ou corretor.
func AdminListLeads(db *gorm.DB, query string, page int) (AdminLeadsPage, error) {
	if page < 1 {
		page = 1
	}
	q := adminLeadQuery(db)
	if query = strings.TrimSpace(query); query != "" {
		pattern := likePattern(strings.ToLower(query))
		cond := "LOWER(leads.name) LIKE ? OR LOWER(users.name) LIKE ?"
		args := []interface{}{pattern, pattern}
		if digits := tools.OnlyDigits(query); digits != "" {
			cond += " OR leads.contato LIKE ?"
			args = append(args, likePattern(digits))
		}
		q = q.Where(cond, args...)
	}

	out := AdminLeadsPage{Page: page}
	if err := q.Count(&out.Total).Error; err != nil {
		return out, err
	}
	if err := q.Order("leads.updated_at desc").Order("leads.id desc").
		Offset((page - 1) * ADMIN_LEADS_PAGE_SIZE).Limit(ADMIN_LEADS_PAGE_SIZE).
		Scan(&out.Leads).Error; err != nil {
		return out, err
	}
	if out.Leads == nil {
		out.Leads = []adminLeadRow{}
	}
	out.TotalPages = int((out.Total + ADMIN_LEADS_PAGE_SIZE - 1) / ADMIN_LEADS_PAGE_SIZE)
	out.HasNextPage = page < out.TotalPages
	out.HasPrevPage = page > 1
	return out, nil
}

// GET /api/admin/leads?page=&query=
func GetAdminLeads(c *gin.Context) {
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}
	page, err := AdminListLeads(db, c.Query("query"), queryInt(c, "page", 1))
	if err != nil {
		RespondError(c, "Erro ao buscar leads", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, page)
}

type adminUserRow struct {
	models.User
	LeadCount int64 `json:"lead_count"`
}

// GET /api/admin/users
func GetAdminUsers(c *gin.Context) {
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	var users []models.User
	if err := db.Order("created_at desc").Order("id desc").Find(&users).Error; err != nil {
		RespondError(c, "Erro ao buscar usuários", http.StatusInternalServerError)
		return
	}

	var counts []struct {
		UserID int64
		Count  int64
	}
	if err := db.Model(&models.Lead{}).Select("user_id, count(*) as count").
		Group("user_id").Scan(&counts).Error; err != nil {
		RespondError(c, "Erro ao buscar usuários", http.StatusInternalServerError)
		return
	}
	byUser := make(map[int64]int64, len(counts))
	for _, r := range counts {
		byUser[r.UserID] = r.Count
	}

	out := make([]adminUserRow, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserRow{User: u, LeadCount: byUser[u.ID]})
	}
	RespondSuccess(c, out)
}

type AdminPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// PUT /api/admin/users/:id/password
func AdminChangeUserPassword(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req AdminPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "A nova senha deve ter no mínimo 6 caracteres", http.StatusBadRequest)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}
	if err := SetUserPassword(db, id, req.NewPassword, deps.Config.Security.BcryptCost); err != nil {
		if gorm.IsRecordNotFoundError(err) {
			RespondError(c, "Usuário não encontrado", http.StatusNotFound)
			return
		}
		RespondError(c, "Erro ao atualizar senha", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"success": true})
}
