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

// ProductRequest aceita monthlyPremium como número ou string e assistances como lista ou texto "a, b".
type ProductRequest struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	MonthlyPremium json.RawMessage `json:"monthlyPremium"`
	Assistances    json.RawMessage `json:"assistances"`
	Coverages      json.RawMessage `json:"coverages"`
	IsPostSales    *bool           `json:"isPostSales"`
}

func (req ProductRequest) apply(p *models.InsuranceProduct) {
	p.Name = strings.TrimSpace(req.Name)
	p.Description = strings.TrimSpace(req.Description)
	p.MonthlyPremium = tools.ParseFlexibleFloat(req.MonthlyPremium)
	p.Assistances = models.ToJSON(tools.ParseFlexibleList(req.Assistances))
	if len(req.Coverages) > 0 {
		p.Coverages = models.JSON(req.Coverages)
	}
	if req.IsPostSales != nil {
		p.IsPostSales = *req.IsPostSales
	}
}

// GET /api/products (somente ativos)
func GetProducts(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	var products []models.InsuranceProduct
	if err := db.Where("user_id = ? AND status = ?", user.ID, models.PRODUCT_STATUS_ACTIVE).
		Order("created_at desc").Order("id desc").
		Find(&products).Error; err != nil {
		RespondError(c, "Erro ao buscar produtos", http.StatusInternalServerError)
		return
	}
	if products == nil {
		products = []models.InsuranceProduct{}
	}
	RespondSuccess(c, products)
}

// POST /api/products
func CreateProduct(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "requisição inválida", http.StatusBadRequest)
		return
	}

	product := models.InsuranceProduct{UserID: user.ID, Status: models.PRODUCT_STATUS_ACTIVE}
	req.apply(&product)
	if product.MissingFields() != "" {
		RespondError(c, "Nome e Descrição são obrigatórios", http.StatusBadRequest)
		return
	}

	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}
	if err := db.Create(&product).Error; err != nil {
		RespondError(c, "Erro ao salvar produto", http.StatusInternalServerError)
		return
	}
	invalidateSpecialist(c.Request.Context(), user.Phone)
	RespondCreated(c, product)
}

// PUT /api/products/:id
func UpdateProduct(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "requisição inválida", http.StatusBadRequest)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	var product models.InsuranceProduct
	if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&product).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			RespondError(c, "Produto não encontrado", http.StatusNotFound)
			return
		}
		RespondError(c, "Erro ao atualizar produto", http.StatusInternalServerError)
		return
	}

	req.apply(&product)
	if product.MissingFields() != "" {
		RespondError(c, "Nome e Descrição são obrigatórios", http.StatusBadRequest)
		return
	}
	if err := db.Model(&product).Updates(map[string]interface{}{
		"name":            product.Name,
		"description":     product.Description,
		"monthly_premium": product.MonthlyPremium,
		"assistances":     product.Assistances,
		"coverages":       product.Coverages,
		"is_post_sales":   product.IsPostSales,
	}).Error; err != nil {
		RespondError(c, "Erro ao atualizar produto", http.StatusInternalServerError)
		return
	}
	invalidateSpecialist(c.Request.Context(), user.Phone)
	RespondSuccess(c, product)
}

// DELETE /api/products/:id
// Arquiva em vez de apagar: leads antigos continuam apontando para o produto.
func DeleteProduct(c *gin.Context) {
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

	res := db.Model(&models.InsuranceProduct{}).
		Where("id = ? AND user_id = ?", id, user.ID).
		Update("status", models.PRODUCT_STATUS_ARCHIVED)
	if res.Error != nil {
		RespondError(c, "Erro ao excluir produto", http.StatusInternalServerError)
		return
	}
	if res.RowsAffected == 0 {
		RespondError(c, "Produto não encontrado", http.StatusNotFound)
		return
	}

	var product models.InsuranceProduct
	db.First(&product, id)
	invalidateSpecialist(c.Request.Context(), user.Phone)
	RespondSuccess(c, gin.H{"success": true, "product": product})
}
