package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	dbpkg "corretor/db"
	"corretor/models"
	"corretor/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

type PropertyRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       json.RawMessage `json:"price"`
	Location    string          `json:"location"`
	Features    json.RawMessage `json:"features"`
	Status      string          `json:"status"`
	ImageURL    string          `json:"imageUrl"`
}

// validate devolve a mensagem de erro ("" quando ok).
func (req PropertyRequest) validate(requirePrice bool) string {
	draft := models.Property{Title: req.Title, Description: req.Description}
	if draft.MissingFields() != "" {
		return "Campos obrigatórios faltando"
	}
	if requirePrice && tools.ParseFlexibleFloat(req.Price) <= 0 {
		return "Campos obrigatórios faltando"
	}
	if req.Status != "" && !models.IsValidPropertyStatus(req.Status) {
		return "status inválido"
	}
	return ""
}

func (req PropertyRequest) apply(p *models.Property) {
	p.Title = strings.TrimSpace(req.Title)
	p.Description = strings.TrimSpace(req.Description)
	if len(req.Price) > 0 {
		p.Price = tools.ParseFlexibleFloat(req.Price)
	}
	p.Location = strings.TrimSpace(req.Location)
	if len(req.Features) > 0 {
		p.Features = models.ToJSON(tools.ParseFlexibleList(req.Features))
	}
	if req.Status != "" {
		p.Status = req.Status
	}
	if req.ImageURL != "" {
		p.ImageURL = req.ImageURL
	}
}

// GET /api/properties
func GetProperties(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	var list []models.Property
	if err := db.Where("user_id = ?", user.ID).Order("created_at desc").Order("id desc").Find(&list).Error; err != nil {
		RespondError(c, "Erro ao buscar imóveis", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []models.Property{}
	}
	RespondSuccess(c, list)
}

// GET /api/properties/:id
func GetPropertyByID(c *gin.Context) {
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
	var p models.Property
	if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&p).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			RespondError(c, "Imóvel não encontrado", http.StatusNotFound)
			return
		}
		RespondError(c, "Erro ao buscar imóvel", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, p)
}

// POST /api/properties
func CreateProperty(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "requisição inválida", http.StatusBadRequest)
		return
	}
	if msg := req.validate(true); msg != "" {
		RespondError(c, msg, http.StatusBadRequest)
		return
	}

	p := models.Property{UserID: user.ID, Status: models.PROPERTY_STATUS_AVAILABLE, Features: models.JSON("[]")}
	req.apply(&p)

	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}
	if err := db.Create(&p).Error; err != nil {
		RespondError(c, "Erro ao salvar imóvel", http.StatusInternalServerError)
		return
	}
	RespondCreated(c, p)
}

// PUT /api/properties/:id
func UpdateProperty(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "requisição inválida", http.StatusBadRequest)
		return
	}
	if msg := req.validate(false); msg != "" {
		RespondError(c, msg, http.StatusBadRequest)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	var p models.Property
	if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&p).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			RespondError(c, "Imóvel não encontrado", http.StatusNotFound)
			return
		}
		RespondError(c, "Erro ao atualizar imóvel", http.StatusInternalServerError)
		return
	}
	req.apply(&p)
	if err := db.Model(&p).Updates(map[string]interface{}{
		"title":       p.Title,
		"description": p.Description,
		"price":       p.Price,
		"location":    p.Location,
		"features":    p.Features,
		"status":      p.Status,
		"image_url":   p.ImageURL,
	}).Error; err != nil {
		RespondError(c, "Erro ao atualizar imóvel", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, p)
}

// DELETE /api/properties/:id
func DeleteProperty(c *gin.Context) {
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
	res := db.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Property{})
	if res.Error != nil {
		RespondError(c, "Erro ao excluir imóvel", http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		RespondError(c, "Imóvel não encontrado", http.StatusNotFound)
		return
	}
	RespondSuccess(c, gin.H{"success": true})
}
