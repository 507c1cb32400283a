package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	dbpkg "corretor/db"
	"corretor/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

type statusCountRow struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type DashboardOverview struct {
	TotalLeads           int64            `json:"totalLeads"`
	LeadsByStatus        map[string]int64 `json:"leadsByStatus"`
	PendingQuotes        int64            `json:"pendingQuotes"`
	UpcomingAppointments int64            `json:"upcomingAppointments"`
	ClosedSales          int64            `json:"closedSales"`
	ActiveProducts       int64            `json:"activeProducts"`
}

// leadsByStatus devolve a contagem por status, com zero para os status sem lead.
// userID 0 conta o sistema inteiro.
func leadsByStatus(db *gorm.DB, userID int64) (map[string]int64, int64, error) {
	var rows []statusCountRow
	q := db.Model(&models.Lead{}).Select("status, count(*) as count")
	if userID > 0 {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Group("status").Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make(map[string]int64, len(models.LeadStatuses))
	for _, s := range models.LeadStatuses {
		out[s] = 0
	}
	var total int64
	for _, r := range rows {
		out[r.Status] = r.Count
		total += r.Count
	}
	return out, total, nil
}

func BuildOverview(db *gorm.DB, userID int64, now time.Time) (DashboardOverview, error) {
	byStatus, total, err := leadsByStatus(db, userID)
	if err != nil {
		return DashboardOverview{}, err
	}
	ov := DashboardOverview{
		TotalLeads:    total,
		LeadsByStatus: byStatus,
		PendingQuotes: byStatus[models.LEAD_STATUS_AGENDADO_COTACAO],
		ClosedSales:   byStatus[models.LEAD_STATUS_VENDA_REALIZADA],
	}
	if err := db.Model(&models.Agendamento{}).
		Where("user_id = ? AND status = ? AND data_hora >= ?", userID, models.AGENDAMENTO_STATUS_CONFIRMADO, now).
		Count(&ov.UpcomingAppointments).Error; err != nil {
		return ov, err
	}
	if err := db.Model(&models.InsuranceProduct{}).
		Where("user_id = ? AND status = ?", userID, models.PRODUCT_STATUS_ACTIVE).
		Count(&ov.ActiveProducts).Error; err != nil {
		return ov, err
	}
	return ov, nil
}

// GET /api/dashboard/overview
func GetDashboardOverview(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}
	ov, err := BuildOverview(db, user.ID, time.Now())
	if err != nil {
		RespondError(c, "Erro ao montar painel", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, ov)
}

type perDayRow struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// dayExpr devolve a expressão SQL que extrai o dia (YYYY-MM-DD) de column.
func dayExpr(db *gorm.DB, column string) string {
	dialect := strings.ToLower(db.Dialect().GetName())
	switch {
	case strings.Contains(dialect, "sqlite"):
		return fmt.Sprintf("strftime('%%Y-%%m-%%d', %s, 'localtime')", column)
	case strings.Contains(dialect, "postgres"):
		return fmt.Sprintf("to_char(date_trunc('day', %s), 'YYYY-MM-DD')", column)
	}
	return fmt.Sprintf("date(%s)", column)
}

// GET /api/dashboard/leads-per-day?from=YYYY-MM-DD&to=YYYY-MM-DD
// Série diária dos leads criados (inclui dias com 0). Padrão: últimos 7 dias.
func GetLeadsPerDay(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}
	if to.Sub(from) > 366*24*time.Hour {
		RespondError(c, "intervalo máximo é de um ano", http.StatusBadRequest)
		return
	}

	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.Local)
	toExclusive := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, 1)

	var rows []perDayRow
	if err := db.Table("leads").
		Select(fmt.Sprintf("%s as day, count(*) as count", dayExpr(db, "created_at"))).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", user.ID, from, toExclusive).
		Group("day").
		Order("day asc").
		Scan(&rows).Error; err != nil {
		RespondError(c, "Erro ao montar série", http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, gin.H{
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
		"series": fillDailySeries(from, to, rows),
	})
}

func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	// padrão: últimos 7 dias
	now := time.Now()
	from := now.AddDate(0, 0, -6)
	to := now

	var err error
	if v := strings.TrimSpace(c.Query("from")); v != "" {
		if from, err = time.ParseInLocation("2006-01-02", v, time.Local); err != nil {
			RespondError(c, "from inválido (use YYYY-MM-DD)", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
	}
	if v := strings.TrimSpace(c.Query("to")); v != "" {
		if to, err = time.ParseInLocation("2006-01-02", v, time.Local); err != nil {
			RespondError(c, "to inválido (use YYYY-MM-DD)", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
	}
	if from.After(to) {
		RespondError(c, "from não pode ser maior que to", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func fillDailySeries(from time.Time, to time.Time, rows []perDayRow) []perDayRow {
	m := map[string]int64{}
	for _, r := range rows {
		if r.Day != "" {
			m[r.Day] = r.Count
		}
	}

	var out []perDayRow
	cur := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.Local)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.Local)
	for !cur.After(end) {
		key := cur.Format("2006-01-02")
		out = append(out, perDayRow{Day: key, Count: m[key]})
		cur = cur.AddDate(0, 0, 1)
	}
	return out
}
