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

var (
	ErrLeadNotFound   = errors.New("lead não encontrado")
	ErrInvalidContato = errors.New("contato inválido")
	ErrInvalidStatus  = errors.New("status inválido")
	ErrContatoInUse   = errors.New("já existe um lead com este contato")
)

const defaultLeadName = "Lead Novo"

// LeadInput é o corpo aceito pelo upsert (dashboard e n8n).
// Campos vazios não sobrescrevem o que já está salvo.
type LeadInput struct {
	UserID              FlexID          `json:"userId"`
	Nome                string          `json:"nome"`
	Name                string          `json:"name"`
	Contato             string          `json:"contato"`
	Segmentacao         string          `json:"segmentacao"`
	Classificacao       string          `json:"classificacao"`
	FaturamentoEstimado string          `json:"faturamentoEstimado"`
	AtividadePrincipal  string          `json:"atividadePrincipal"`
	NumeroApolice       string          `json:"numeroApolice"`
	ResumoDaConversa    string          `json:"resumoDaConversa"`
	OrigemLead          string          `json:"origemLead"`
	Status              string          `json:"status" binding:"lead_status"`
	DynamicData         json.RawMessage `json:"dynamicData"`
	HistoricoCompleto   json.RawMessage `json:"historicoCompleto"`
}

func (in LeadInput) displayName() string {
	if n := strings.TrimSpace(in.Nome); n != "" {
		return n
	}
	return strings.TrimSpace(in.Name)
}

// UpsertLead cria ou atualiza o lead do corretor pela chave normalizada do telefone.
func UpsertLead(db *gorm.DB, userID int64, in LeadInput) (models.Lead, bool, error) {
	contato := tools.StandardizePhone(in.Contato)
	if contato == "" {
		return models.Lead{}, false, ErrInvalidContato
	}
	if in.Status != "" && !models.IsValidLeadStatus(in.Status) {
		return models.Lead{}, false, ErrInvalidStatus
	}
	key := tools.NormalizePhoneNumber(contato)

	var lead models.Lead
	err := db.Where("user_id = ? AND contato_key = ?", userID, key).First(&lead).Error
	switch {
	case err == nil:
		return updateUpsertedLead(db, lead, in)
	case !gorm.IsRecordNotFoundError(err):
		return models.Lead{}, false, fmt.Errorf("find lead: %w", err)
	}

	lead = models.Lead{
		UserID:              userID,
		Name:                in.displayName(),
		Contato:             contato,
		ContatoKey:          key,
		Status:              in.Status,
		Segmentacao:         in.Segmentacao,
		Classificacao:       in.Classificacao,
		FaturamentoEstimado: in.FaturamentoEstimado,
		AtividadePrincipal:  in.AtividadePrincipal,
		NumeroApolice:       in.NumeroApolice,
		ResumoDaConversa:    in.ResumoDaConversa,
		OrigemLead:          in.OrigemLead,
		DynamicData:         models.JSON(in.DynamicData),
		HistoricoCompleto:   models.JSON(in.HistoricoCompleto),
		FirstContactSent:    false,
	}
	if lead.Name == "" {
		lead.Name = defaultLeadName
	}
	if lead.Status == "" {
		lead.Status = models.LEAD_STATUS_ENTRANTE
	}
	if lead.Segmentacao == "" {
		lead.Segmentacao = models.LEAD_STATUS_ENTRANTE
	}
	if lead.DynamicData.IsNull() {
		lead.DynamicData = models.JSON("{}")
	}
	if lead.HistoricoCompleto.IsNull() {
		lead.HistoricoCompleto = models.JSON("[]")
	}

	if err := db.Create(&lead).Error; err != nil {
		// outra requisição pode ter criado o mesmo contato entre o SELECT e o INSERT
		var existing models.Lead
		if db.Where("user_id = ? AND contato_key = ?", userID, key).First(&existing).Error == nil {
			return updateUpsertedLead(db, existing, in)
		}
		return models.Lead{}, false, fmt.Errorf("create lead: %w", err)
	}
	return lead, true, nil
}

func updateUpsertedLead(db *gorm.DB, lead models.Lead, in LeadInput) (models.Lead, bool, error) {
	fields := map[string]interface{}{}
	if n := in.displayName(); n != "" {
		fields["name"] = n
	}
	setIfNotEmpty(fields, "segmentacao", in.Segmentacao)
	setIfNotEmpty(fields, "classificacao", in.Classificacao)
	setIfNotEmpty(fields, "faturamento_estimado", in.FaturamentoEstimado)
	setIfNotEmpty(fields, "atividade_principal", in.AtividadePrincipal)
	setIfNotEmpty(fields, "numero_apolice", in.NumeroApolice)
	setIfNotEmpty(fields, "resumo_da_conversa", in.ResumoDaConversa)
	setIfNotEmpty(fields, "status", in.Status)
	if j := models.JSON(in.DynamicData); !j.IsNull() {
		fields["dynamic_data"] = j
	}
	if j := models.JSON(in.HistoricoCompleto); !j.IsNull() {
		fields["historico_completo"] = j
	}

	if len(fields) > 0 {
		if err := db.Model(&lead).Updates(fields).Error; err != nil {
			return models.Lead{}, false, fmt.Errorf("update lead: %w", err)
		}
	} else if err := db.Model(&lead).Update("updated_at", gorm.NowFunc()).Error; err != nil {
		return models.Lead{}, false, fmt.Errorf("touch lead: %w", err)
	}
	if err := db.First(&lead, lead.ID).Error; err != nil {
		return models.Lead{}, false, err
	}
	return lead, false, nil
}

func setIfNotEmpty(fields map[string]interface{}, column string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		fields[column] = v
	}
}

// findOwnedLead carrega o lead se ele pertencer ao usuário.
func findOwnedLead(db *gorm.DB, userID int64, leadID int64) (models.Lead, error) {
	var lead models.Lead
	err := db.Where("id = ? AND user_id = ?", leadID, userID).First(&lead).Error
	if gorm.IsRecordNotFoundError(err) {
		return lead, ErrLeadNotFound
	}
	return lead, err
}

// GET /api/leads?q=&status=
func GetLeads(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	query := db.Where("user_id = ?", user.ID)
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		if !models.IsValidLeadStatus(status) {
			RespondError(c, "status inválido", http.StatusBadRequest)
			return
		}
		query = query.Where("status = ?", status)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		if digits := tools.OnlyDigits(q); digits != "" {
			query = query.Where("LOWER(name) LIKE ? OR contato LIKE ?", likePattern(q), "%"+digits+"%")
		} else {
			query = query.Where("LOWER(name) LIKE ?", likePattern(q))
		}
	}

	var leads []models.Lead
	if err := query.Preload("InterestedInProduct").Order("updated_at desc").Order("id desc").Find(&leads).Error; err != nil {
		RespondError(c, "Erro ao buscar leads", http.StatusInternalServerError)
		return
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	RespondSuccess(c, leads)
}

// GET /api/leads/:id
func GetLeadByID(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	var lead models.Lead
	err := db.Where("id = ? AND user_id = ?", id, user.ID).
		Preload("InterestedInProduct").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at desc").Order("id desc")
		}).
		First(&lead).Error
	if gorm.IsRecordNotFoundError(err) {
		RespondError(c, "Lead não encontrado", http.StatusNotFound)
		return
	} else if err != nil {
		RespondError(c, "Erro ao buscar lead", http.StatusInternalServerError)
		return
	}
	if lead.Attachments == nil {
		lead.Attachments = []models.Attachment{}
	}
	RespondSuccess(c, lead)
}

// POST /api/leads (sessão ou x-api-key)
func CreateOrUpdateLead(c *gin.Context) {
	var in LeadInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, validationMessage(err), http.StatusBadRequest)
		return
	}

	// sessão tem prioridade sobre o userId do corpo
	userID := int64(in.UserID)
	origin := "n8n"
	if user, ok := GetUserLogged(c); ok {
		userID = user.ID
		origin = "session"
	}
	if userID <= 0 || strings.TrimSpace(in.Contato) == "" {
		RespondError(c, "UserId e Contato são obrigatórios", http.StatusBadRequest)
		return
	}

	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	if IsAPIKeyRequest(c) && origin == "n8n" {
		var count int
		if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil || count == 0 {
			RespondError(c, "Corretor não encontrado", http.StatusNotFound)
			return
		}
	}

	lead, created, err := UpsertLead(db, userID, in)
	switch {
	case errors.Is(err, ErrInvalidContato), errors.Is(err, ErrInvalidStatus):
		metrics.LeadUpserts.WithLabelValues(origin, "invalid").Inc()
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		metrics.LeadUpserts.WithLabelValues(origin, "error").Inc()
		logging.L().Error("upsert lead failed", zap.Int64("user_id", userID), zap.Error(err))
		RespondError(c, "Erro interno ao processar lead.", http.StatusInternalServerError)
		return
	}

	result := "updated"
	if created {
		result = "created"
	}
	metrics.LeadUpserts.WithLabelValues(origin, result).Inc()
	RespondSuccess(c, gin.H{"success": true, "leadId": lead.ID, "created": created})
}

type UpdateLeadRequest struct {
	Name                *string `json:"name"`
	Contato             *string `json:"contato"`
	Status              *string `json:"status"`
	Segmentacao         *string `json:"segmentacao"`
	FaturamentoEstimado *string `json:"faturamentoEstimado"`
}

// PUT /api/leads/:id
func UpdateLead(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "requisição inválida", http.StatusBadRequest)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	lead, err := findOwnedLead(db, user.ID, id)
	if errors.Is(err, ErrLeadNotFound) {
		RespondError(c, "Lead não encontrado", http.StatusNotFound)
		return
	} else if err != nil {
		RespondError(c, "Erro ao atualizar lead", http.StatusInternalServerError)
		return
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Segmentacao != nil {
		fields["segmentacao"] = *req.Segmentacao
	}
	if req.FaturamentoEstimado != nil {
		fields["faturamento_estimado"] = *req.FaturamentoEstimado
	}
	if req.Status != nil {
		if !models.IsValidLeadStatus(*req.Status) {
			RespondError(c, "status inválido", http.StatusBadRequest)
			return
		}
		fields["status"] = *req.Status
	}
	if req.Contato != nil {
		contato := tools.StandardizePhone(*req.Contato)
		if contato == "" {
			RespondError(c, "contato inválido", http.StatusBadRequest)
			return
		}
		key := tools.NormalizePhoneNumber(contato)
		var count int
		if err := db.Model(&models.Lead{}).Where("user_id = ? AND contato_key = ? AND id <> ?", user.ID, key, lead.ID).
			Count(&count).Error; err != nil {
			logging.L().Error("contato collision check failed", zap.Int64("lead_id", lead.ID), zap.Error(err))
			RespondError(c, "Erro ao atualizar lead", http.StatusInternalServerError)
			return
		}
		if count > 0 {
			RespondError(c, ErrContatoInUse.Error(), http.StatusConflict)
			return
		}
		fields["contato"] = contato
		fields["contato_key"] = key
	}

	if len(fields) > 0 {
		if err := db.Model(&lead).Updates(fields).Error; err != nil {
			RespondError(c, "Erro ao atualizar lead", http.StatusInternalServerError)
			return
		}
	}
	var updated models.Lead
	if err := db.First(&updated, lead.ID).Error; err != nil {
		logging.L().Error("reload lead failed", zap.Int64("lead_id", lead.ID), zap.Error(err))
		RespondError(c, "Erro ao atualizar lead", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, updated)
}

type UpdateLeadStatusRequest struct {
	Status string `json:"status" binding:"required,lead_status"`
}

// PATCH /api/leads/:id/status (movimento no Kanban)
func UpdateLeadStatus(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, validationMessage(err), http.StatusBadRequest)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	res := db.Model(&models.Lead{}).
		Where("id = ? AND user_id = ?", id, user.ID).
		Updates(map[string]interface{}{"status": req.Status, "updated_at": gorm.NowFunc()})
	if res.Error != nil {
		RespondError(c, "Erro ao mover lead", http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		RespondError(c, "Lead não encontrado", http.StatusNotFound)
		return
	}

	metrics.KanbanMoves.WithLabelValues(req.Status).Inc()
	RespondSuccess(c, gin.H{"success": true, "id": id, "status": req.Status})
}

// DELETE /api/leads/:id
// Remove também anexos e agendamentos do lead (liberando os slots).
func DeleteLead(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	var blobKeys []string
	err := dbpkg.InTx(db, func(tx *gorm.DB) error {
		lead, err := findOwnedLead(tx, user.ID, id)
		if err != nil {
			return err
		}

		var attachments []models.Attachment
		if err := tx.Where("lead_id = ?", lead.ID).Find(&attachments).Error; err != nil {
			return err
		}
		for _, a := range attachments {
			if a.StorageKey != "" {
				blobKeys = append(blobKeys, a.StorageKey)
			}
		}
		if err := tx.Where("lead_id = ?", lead.ID).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}

		var slotIDs []int64
		if err := tx.Model(&models.Agendamento{}).
			Where("lead_id = ? AND slot_id IS NOT NULL AND status = ?", lead.ID, models.AGENDAMENTO_STATUS_CONFIRMADO).
			Pluck("slot_id", &slotIDs).Error; err != nil {
			return err
		}
		if len(slotIDs) > 0 {
			if err := tx.Model(&models.AvailabilitySlot{}).Where("id IN (?)", slotIDs).
				Update("is_booked", false).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("lead_id = ?", lead.ID).Delete(&models.Agendamento{}).Error; err != nil {
			return err
		}
		return tx.Delete(&lead).Error
	})
	if errors.Is(err, ErrLeadNotFound) {
		RespondError(c, "Lead não encontrado", http.StatusNotFound)
		return
	} else if err != nil {
		RespondError(c, "Erro ao excluir lead", http.StatusInternalServerError)
		return
	}

	deleteBlobs(c, blobKeys)
	RespondSuccess(c, gin.H{"success": true})
}
