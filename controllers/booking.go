package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

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
	ErrSlotTaken           = errors.New("horário já reservado")
	ErrSlotNotFound        = errors.New("horário não encontrado")
	ErrAgendamentoNotFound = errors.New("agendamento não encontrado")
)

type BookingRequest struct {
	UserID      FlexID  `json:"userId"`
	ContatoLead string  `json:"contatoLead"`
	DataHoraISO string  `json:"dataHoraISO"`
	Nome        string  `json:"nome"`
	Email       string  `json:"email"`
	Resumo      string  `json:"resumo"`
	SlotID      *FlexID `json:"slotId"`
}

// Booking é o que a transação de agendamento recebe já validado.
type Booking struct {
	UserID   int64
	LeadID   int64
	DataHora time.Time
	Nome     string
	Email    string
	Resumo   string
	SlotID   *int64
}

// BookAppointment reserva o horário e cria o agendamento numa transação só.
//
// Com SlotID usa aquele slot; sem SlotID procura um slot livre do corretor que cubra DataHora.
// A reserva é um UPDATE condicional (is_booked = false); quem chegar depois recebe ErrSlotTaken.
// Se nenhum slot cobre o horário o agendamento é criado sem slot.
func BookAppointment(db *gorm.DB, b Booking) (models.Agendamento, error) {
	var ag models.Agendamento

	err := dbpkg.InTx(db, func(tx *gorm.DB) error {
		slotID, err := reserveSlot(tx, b)
		if err != nil {
			return err
		}

		var lead models.Lead
		if err := tx.Where("id = ? AND user_id = ?", b.LeadID, b.UserID).First(&lead).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return ErrLeadNotFound
			}
			return err
		}
		dynamic := lead.DynamicData.Map()
		if b.Email != "" {
			dynamic["email"] = b.Email
		}
		if b.Nome != "" {
			dynamic["nomeConfirmado"] = b.Nome
		}
		if err := tx.Model(&lead).Updates(map[string]interface{}{
			"dynamic_data": models.ToJSON(dynamic),
			"status":       models.LEAD_STATUS_AGENDADO_COTACAO,
		}).Error; err != nil {
			return fmt.Errorf("update lead: %w", err)
		}

		resumo := strings.TrimSpace(b.Resumo)
		if resumo == "" {
			resumo = fmt.Sprintf("Agendamento automático via Lucas. Cliente: %s, Email: %s", b.Nome, b.Email)
		}
		ag = models.Agendamento{
			UserID:   b.UserID,
			LeadID:   lead.ID,
			SlotID:   slotID,
			DataHora: b.DataHora,
			Tipo:     models.AGENDAMENTO_TIPO_REUNIAO_VENDAS,
			Status:   models.AGENDAMENTO_STATUS_CONFIRMADO,
			Resumo:   resumo,
		}
		if err := tx.Create(&ag).Error; err != nil {
			return fmt.Errorf("create agendamento: %w", err)
		}
		return nil
	})
	return ag, err
}

// reserveSlot devolve o id do slot reservado (nil quando nenhum slot cobre o horário).
func reserveSlot(tx *gorm.DB, b Booking) (*int64, error) {
	var slot models.AvailabilitySlot

	if b.SlotID != nil {
		err := tx.Where("id = ? AND user_id = ?", *b.SlotID, b.UserID).First(&slot).Error
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrSlotNotFound
		} else if err != nil {
			return nil, err
		}
	} else {
		err := tx.Where("user_id = ? AND is_booked = ? AND start_time <= ? AND end_time > ?", b.UserID, false, b.DataHora, b.DataHora).
			Order("start_time asc").
			First(&slot).Error
		if gorm.IsRecordNotFoundError(err) {
			var booked int
			if err := tx.Model(&models.AvailabilitySlot{}).
				Where("user_id = ? AND is_booked = ? AND start_time <= ? AND end_time > ?", b.UserID, true, b.DataHora, b.DataHora).
				Count(&booked).Error; err != nil {
				return nil, err
			}
			if booked > 0 {
				return nil, ErrSlotTaken
			}
			return nil, nil
		} else if err != nil {
			return nil, err
		}
	}

	res := tx.Model(&models.AvailabilitySlot{}).
		Where("id = ? AND is_booked = ?", slot.ID, false).
		Updates(map[string]interface{}{"is_booked": true})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrSlotTaken
	}
	id := slot.ID
	return &id, nil
}

// POST /api/agendamentos (x-api-key)
func CreateAgendamento(c *gin.Context) {
	var req BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "requisição inválida", http.StatusBadRequest)
		return
	}
	userID := int64(req.UserID)
	if user, ok := GetUserLogged(c); ok {
		userID = user.ID
	}
	if userID <= 0 || strings.TrimSpace(req.ContatoLead) == "" || strings.TrimSpace(req.DataHoraISO) == "" {
		RespondError(c, "userId, contatoLead e dataHoraISO são obrigatórios", http.StatusBadRequest)
		return
	}
	when, err := parseISOTime(req.DataHoraISO)
	if err != nil {
		RespondError(c, "dataHoraISO inválida", http.StatusBadRequest)
		return
	}

	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	key := tools.NormalizePhoneNumber(req.ContatoLead)
	var lead models.Lead
	if err := db.Where("user_id = ? AND contato_key = ?", userID, key).First(&lead).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			logging.L().Info("booking lead not found", zap.String("contato_key", key), zap.Int64("user_id", userID))
			metrics.Bookings.WithLabelValues("lead_not_found").Inc()
			RespondError(c, "Lead não encontrado para este corretor.", http.StatusNotFound)
			return
		}
		RespondError(c, "Erro interno ao criar agendamento.", http.StatusInternalServerError)
		return
	}

	booking := Booking{
		UserID:   userID,
		LeadID:   lead.ID,
		DataHora: when,
		Nome:     strings.TrimSpace(req.Nome),
		Email:    strings.TrimSpace(req.Email),
		Resumo:   req.Resumo,
	}
	if req.SlotID != nil && *req.SlotID > 0 {
		id := int64(*req.SlotID)
		booking.SlotID = &id
	}

	ag, err := BookAppointment(db, booking)
	switch {
	case errors.Is(err, ErrSlotTaken):
		metrics.Bookings.WithLabelValues("conflict").Inc()
		RespondError(c, "Este horário já foi reservado.", http.StatusConflict)
		return
	case errors.Is(err, ErrSlotNotFound):
		metrics.Bookings.WithLabelValues("slot_not_found").Inc()
		RespondError(c, "Horário não encontrado.", http.StatusNotFound)
		return
	case errors.Is(err, ErrLeadNotFound):
		metrics.Bookings.WithLabelValues("lead_not_found").Inc()
		RespondError(c, "Lead não encontrado para este corretor.", http.StatusNotFound)
		return
	case err != nil:
		metrics.Bookings.WithLabelValues("error").Inc()
		logging.L().Error("booking failed", zap.Int64("user_id", userID), zap.Error(err))
		RespondError(c, "Erro interno ao criar agendamento.", http.StatusInternalServerError)
		return
	}

	metrics.Bookings.WithLabelValues("ok").Inc()
	RespondCreated(c, gin.H{"success": true, "id": ag.ID, "slotId": ag.SlotID})
}

// GET /api/agendamentos?from=&status=
func GetAgendamentos(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	q := db.Where("user_id = ?", user.ID)
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("status = ?", strings.ToUpper(status))
	}
	if from := strings.TrimSpace(c.Query("from")); from != "" {
		t, err := parseISOTime(from)
		if err != nil {
			RespondError(c, "from inválido", http.StatusBadRequest)
			return
		}
		q = q.Where("data_hora >= ?", t)
	}

	var list []models.Agendamento
	if err := q.Preload("Lead").Order("data_hora asc").Find(&list).Error; err != nil {
		RespondError(c, "Erro ao buscar agendamentos", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []models.Agendamento{}
	}
	RespondSuccess(c, list)
}

// CancelAppointment marca o agendamento como CANCELADO e libera o slot.
func CancelAppointment(db *gorm.DB, userID int64, id int64) (models.Agendamento, error) {
	var ag models.Agendamento
	err := dbpkg.InTx(db, func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&ag).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return ErrAgendamentoNotFound
			}
			return err
		}
		if ag.Status == models.AGENDAMENTO_STATUS_CANCELADO {
			return nil
		}
		if err := tx.Model(&ag).Update("status", models.AGENDAMENTO_STATUS_CANCELADO).Error; err != nil {
			return err
		}
		if ag.SlotID != nil {
			if err := tx.Model(&models.AvailabilitySlot{}).Where("id = ?", *ag.SlotID).
				Update("is_booked", false).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return ag, err
}

// PATCH /api/agendamentos/:id/cancel
func CancelAgendamento(c *gin.Context) {
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

	ag, err := CancelAppointment(db, user.ID, id)
	if errors.Is(err, ErrAgendamentoNotFound) {
		RespondError(c, "Agendamento não encontrado", http.StatusNotFound)
		return
	} else if err != nil {
		RespondError(c, "Erro ao cancelar agendamento", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"success": true, "agendamento": ag})
}
