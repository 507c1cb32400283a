package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	dbpkg "corretor/db"
	"corretor/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

var errSlotOverlap = errors.New("slot sobreposto")

type CreateSlotRequest struct {
	StartISO string `json:"startISO" binding:"required"`
	EndISO   string `json:"endISO" binding:"required"`
}

// GET /api/availability (somente slots futuros)
func GetAvailability(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	var slots []models.AvailabilitySlot
	if err := db.Where("user_id = ? AND start_time >= ?", user.ID, time.Now()).
		Order("start_time asc").
		Find(&slots).Error; err != nil {
		RespondError(c, "Erro ao buscar disponibilidade", http.StatusInternalServerError)
		return
	}
	if slots == nil {
		slots = []models.AvailabilitySlot{}
	}
	RespondSuccess(c, slots)
}

// POST /api/availability
func CreateAvailability(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	var req CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, validationMessage(err), http.StatusBadRequest)
		return
	}
	start, err := parseISOTime(req.StartISO)
	if err != nil {
		RespondError(c, "startISO inválido", http.StatusBadRequest)
		return
	}
	end, err := parseISOTime(req.EndISO)
	if err != nil {
		RespondError(c, "endISO inválido", http.StatusBadRequest)
		return
	}
	if !start.Before(end) {
		RespondError(c, "Hora final deve ser maior que inicial", http.StatusBadRequest)
		return
	}

	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	var slot models.AvailabilitySlot
	err = dbpkg.InTx(db, func(tx *gorm.DB) error {
		var overlapping int
		if err := tx.Model(&models.AvailabilitySlot{}).
			Where("user_id = ? AND start_time < ? AND end_time > ?", user.ID, end, start).
			Count(&overlapping).Error; err != nil {
			return err
		}
		if overlapping > 0 {
			return errSlotOverlap
		}
		slot = models.AvailabilitySlot{UserID: user.ID, StartTime: start, EndTime: end}
		return tx.Create(&slot).Error
	})
	if errors.Is(err, errSlotOverlap) {
		RespondError(c, "Já existe um horário nesse intervalo", http.StatusConflict)
		return
	} else if err != nil {
		RespondError(c, "Erro ao criar slot", http.StatusInternalServerError)
		return
	}
	RespondCreated(c, slot)
}

// DELETE /api/availability?id= ou /api/availability/:id
func DeleteAvailability(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	raw := strings.TrimSpace(c.Param("id"))
	if raw == "" {
		raw = strings.TrimSpace(c.Query("id"))
	}
	if raw == "" {
		RespondError(c, "ID necessário", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, "ID inválido", http.StatusBadRequest)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	var slot models.AvailabilitySlot
	if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&slot).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			RespondError(c, "Horário não encontrado", http.StatusNotFound)
			return
		}
		RespondError(c, "Erro ao excluir", http.StatusInternalServerError)
		return
	}

	// só apaga se continuar livre
	res := db.Where("id = ? AND is_booked = ?", slot.ID, false).Delete(&models.AvailabilitySlot{})
	if res.Error != nil {
		RespondError(c, "Erro ao excluir", http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		RespondError(c, "Horário já reservado, cancele o agendamento antes", http.StatusConflict)
		return
	}
	RespondSuccess(c, gin.H{"success": true})
}
