package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	dbpkg "corretor/db"
	"corretor/logging"
	"corretor/metrics"
	"corretor/models"
	"corretor/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

// BulkLead é um item do import em massa (mesmo formato gerado pela leitura da planilha).
type BulkLead struct {
	Name                string          `json:"name"`
	Contato             string          `json:"contato"`
	Status              string          `json:"status"`
	NumeroApolice       string          `json:"numeroApolice"`
	FaturamentoEstimado string          `json:"faturamentoEstimado"`
	DynamicData         json.RawMessage `json:"dynamicData"`
}

type BulkLeadsRequest struct {
	Leads []BulkLead `json:"leads"`
}

// ImportStats resume um import em massa.
type ImportStats struct {
	Count         int `json:"count"`
	TotalReceived int `json:"totalReceived"`
	Ignored       int `json:"ignored"`
	Duplicates    int `json:"duplicates"`
}

// ImportLeads insere os leads do corretor numa transação.
// Contatos com menos de 8 dígitos são ignorados; duplicados (já cadastrados ou repetidos no lote) são pulados.
func ImportLeads(db *gorm.DB, userID int64, items []BulkLead) (ImportStats, error) {
	stats := ImportStats{TotalReceived: len(items)}

	err := dbpkg.InTx(db, func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&models.Lead{}).Where("user_id = ?", userID).Pluck("contato_key", &existing).Error; err != nil {
			return err
		}
		seen := make(map[string]bool, len(existing))
		for _, k := range existing {
			seen[k] = true
		}

		for _, it := range items {
			contato := tools.StandardizePhone(it.Contato)
			if len(contato) < 8 {
				stats.Ignored++
				continue
			}
			key := tools.NormalizePhoneNumber(contato)
			if seen[key] {
				stats.Duplicates++
				continue
			}
			seen[key] = true

			status := it.Status
			if !models.IsValidLeadStatus(status) {
				status = models.LEAD_STATUS_ENTRANTE
			}
			name := strings.TrimSpace(it.Name)
			if name == "" {
				name = tools.DefaultImportedLeadName
			}
			dynamic := models.JSON(it.DynamicData)
			if dynamic.IsNull() {
				dynamic = models.JSON("{}")
			}

			lead := models.Lead{
				UserID:              userID,
				Name:                name,
				Contato:             contato,
				ContatoKey:          key,
				Status:              status,
				Segmentacao:         models.LEAD_STATUS_ENTRANTE,
				NumeroApolice:       it.NumeroApolice,
				FaturamentoEstimado: it.FaturamentoEstimado,
				OrigemLead:          models.LEAD_ORIGIN_IMPORT,
				DynamicData:         dynamic,
				HistoricoCompleto:   models.JSON("[]"),
			}
			if err := tx.Create(&lead).Error; err != nil {
				return fmt.Errorf("import lead %s: %w", contato, err)
			}
			stats.Count++
		}
		return nil
	})
	return stats, err
}

// POST /api/leads/bulk
func BulkCreateLeads(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	var req BulkLeadsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Leads) == 0 {
		RespondError(c, "Nenhum lead fornecido", http.StatusBadRequest)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	stats, err := ImportLeads(db, user.ID, req.Leads)
	if err != nil {
		metrics.Imports.WithLabelValues("bulk", "error").Inc()
		logging.L().Error("bulk import failed", zap.Int64("user_id", user.ID), zap.Error(err))
		RespondError(c, "Erro interno ao importar leads", http.StatusInternalServerError)
		return
	}
	metrics.Imports.WithLabelValues("bulk", "ok").Inc()
	metrics.LeadUpserts.WithLabelValues("import", "created").Add(float64(stats.Count))

	RespondSuccess(c, gin.H{
		"success":       true,
		"count":         stats.Count,
		"totalReceived": stats.TotalReceived,
		"ignored":       stats.Ignored,
		"duplicates":    stats.Duplicates,
	})
}

// POST /api/leads/import (multipart, campo "file")
func ImportLeadsSpreadsheet(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	fh, ok := formFileLimited(c, "file", int64(deps.Config.Storage.MaxUploadMB)<<20)
	if !ok {
		return
	}
	f, err := fh.Open()
	if err != nil {
		RespondError(c, "não foi possível ler o arquivo", http.StatusBadRequest)
		return
	}
	defer f.Close()

	parsed, err := tools.ParseLeadSpreadsheet(fh.Filename, f)
	if errors.Is(err, tools.ErrUnsupportedSpreadsheet) {
		RespondError(c, err.Error(), http.StatusUnsupportedMediaType)
		return
	} else if err != nil {
		metrics.Imports.WithLabelValues("spreadsheet", "invalid").Inc()
		RespondError(c, "Erro ao ler arquivo.", http.StatusBadRequest)
		return
	}
	if parsed.Valid == 0 {
		metrics.Imports.WithLabelValues("spreadsheet", "empty").Inc()
		RespondError(c, "Nenhum telefone encontrado. Verifique se a planilha possui dados.", http.StatusBadRequest)
		return
	}

	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}
	stats, err := ImportLeads(db, user.ID, BulkLeadsFromSpreadsheet(parsed))
	if err != nil {
		metrics.Imports.WithLabelValues("spreadsheet", "error").Inc()
		logging.L().Error("spreadsheet import failed", zap.Int64("user_id", user.ID), zap.Error(err))
		RespondError(c, "Erro interno ao importar leads", http.StatusInternalServerError)
		return
	}
	metrics.Imports.WithLabelValues("spreadsheet", "ok").Inc()
	metrics.LeadUpserts.WithLabelValues("import", "created").Add(float64(stats.Count))

	RespondSuccess(c, gin.H{
		"success":    true,
		"header_row": parsed.HeaderRow,
		"total":      parsed.Total,
		"valid":      parsed.Valid,
		"ignored":    parsed.Ignored,
		"count":      stats.Count,
		"duplicates": stats.Duplicates,
	})
}

// BulkLeadsFromSpreadsheet converte as linhas válidas da planilha para o formato do import em massa.
func BulkLeadsFromSpreadsheet(parsed tools.SpreadsheetResult) []BulkLead {
	items := make([]BulkLead, 0, len(parsed.Leads))
	for _, l := range parsed.Leads {
		items = append(items, BulkLead{
			Name:                l.Name,
			Contato:             l.Contato,
			Status:              l.Status,
			NumeroApolice:       l.NumeroApolice,
			FaturamentoEstimado: l.FaturamentoEstimado,
			DynamicData:         json.RawMessage(models.ToJSON(l.DynamicData)),
		})
	}
	return items
}
