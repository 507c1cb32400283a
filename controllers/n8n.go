package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"corretor/cache"
	dbpkg "corretor/db"
	"corretor/logging"
	"corretor/models"
	"corretor/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

const uncontactedLockName = "leads:uncontacted"

type uncontactedLead struct {
	LeadID         int64  `json:"leadId"`
	Phone          string `json:"phone"`
	LeadName       string `json:"leadName"`
	UserID         int64  `json:"userId"`
	WelcomeMessage string `json:"welcomeMessage"`
}

// ClaimUncontactedLeads marca como contatados até limit leads ENTRANTE ainda sem primeiro contato,
// do mais antigo para o mais novo. Cada lead só é devolvido para quem conseguiu marcá-lo.
func ClaimUncontactedLeads(db *gorm.DB, limit int) ([]models.Lead, error) {
	var candidates []models.Lead
	if err := db.Where("status = ? AND first_contact_sent = ?", models.LEAD_STATUS_ENTRANTE, false).
		Order("created_at asc").Order("id asc").
		Limit(limit).
		Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("find uncontacted: %w", err)
	}

	claimed := make([]models.Lead, 0, len(candidates))
	err := dbpkg.InTx(db, func(tx *gorm.DB) error {
		for _, lead := range candidates {
			// lock otimista: só fica com o lead quem virar a flag
			res := tx.Model(&models.Lead{}).
				Where("id = ? AND first_contact_sent = ?", lead.ID, false).
				UpdateColumn("first_contact_sent", true)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				lead.FirstContactSent = true
				claimed = append(claimed, lead)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim uncontacted: %w", err)
	}
	return claimed, nil
}

func welcomeMessageFor(user models.User, leadName string) string {
	if msg := strings.TrimSpace(user.WelcomeMessage); msg != "" {
		return msg
	}
	tpl := deps.Config.Bot.DefaultWelcomeMessage
	if strings.Contains(tpl, "%s") {
		return fmt.Sprintf(tpl, leadName)
	}
	return tpl
}

// GET /api/leads/uncontacted (x-api-key)
func GetUncontactedLeads(c *gin.Context) {
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	release, acquired, err := deps.Cache.Lock(c.Request.Context(), uncontactedLockName, 30*time.Second)
	if err != nil {
		logging.L().Warn("uncontacted lock failed, seguindo sem lock", zap.Error(err))
	} else if !acquired {
		RespondError(c, "Outra coleta de leads está em andamento.", http.StatusConflict)
		return
	} else {
		defer release()
	}

	leads, err := ClaimUncontactedLeads(db, deps.Config.Bot.UncontactedBatch)
	if err != nil {
		logging.L().Error("claim uncontacted failed", zap.Error(err))
		RespondError(c, "Erro interno do servidor ao buscar leads.", http.StatusInternalServerError)
		return
	}
	if len(leads) == 0 {
		RespondSuccess(c, gin.H{"message": "Nenhum lead entrante pendente."})
		return
	}

	userIDs := make([]int64, 0, len(leads))
	for _, l := range leads {
		userIDs = append(userIDs, l.UserID)
	}
	// os leads já foram marcados: sem os corretores, segue com a mensagem padrão
	var users []models.User
	if err := db.Where("id IN (?)", userIDs).Find(&users).Error; err != nil {
		logging.L().Error("uncontacted brokers lookup failed", zap.Int("leads", len(leads)), zap.Error(err))
	}
	byID := make(map[int64]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]uncontactedLead, 0, len(leads))
	for _, l := range leads {
		out = append(out, uncontactedLead{
			LeadID:         l.ID,
			Phone:          l.Contato,
			LeadName:       l.Name,
			UserID:         l.UserID,
			WelcomeMessage: welcomeMessageFor(byID[l.UserID], l.Name),
		})
	}
	RespondSuccess(c, out)
}

// GET /api/automations/post-sales?userId= (x-api-key)
// Leads do dono do produto de pós-venda ativo sem movimento há post_sales_stale_days dias.
func GetPostSalesLeads(c *gin.Context) {
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	productQuery := db.Where("is_post_sales = ? AND status = ?", true, models.PRODUCT_STATUS_ACTIVE)
	if raw := strings.TrimSpace(c.Query("userId")); raw != "" {
		uid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || uid <= 0 {
			RespondError(c, "userId inválido", http.StatusBadRequest)
			return
		}
		productQuery = productQuery.Where("user_id = ?", uid)
	}

	var product models.InsuranceProduct
	err := productQuery.Order("updated_at desc").First(&product).Error
	if gorm.IsRecordNotFoundError(err) {
		RespondSuccess(c, gin.H{
			"message": "Nenhum produto de pós-venda ativo",
			"product": nil,
			"leads":   []models.Lead{},
		})
		return
	} else if err != nil {
		RespondError(c, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	cutoff := time.Now().AddDate(0, 0, -deps.Config.Bot.PostSalesStaleDays)
	var leads []models.Lead
	if err := db.Where("user_id = ? AND updated_at <= ?", product.UserID, cutoff).
		Where("status NOT IN (?)", []string{
			models.LEAD_STATUS_PERDIDO,
			models.LEAD_STATUS_ARQUIVADO,
			models.LEAD_STATUS_VENDA_REALIZADA,
		}).
		Order("updated_at asc").
		Limit(deps.Config.Bot.PostSalesBatch).
		Find(&leads).Error; err != nil {
		RespondError(c, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if leads == nil {
		leads = []models.Lead{}
	}

	RespondSuccess(c, gin.H{"product": product, "leads": leads})
}

type specialistProduct struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	MonthlyPremium float64     `json:"monthlyPremium"`
	Coverages      models.JSON `json:"coverages"`
	Assistances    models.JSON `json:"assistances"`
}

type specialistPayload struct {
	ID                  int64               `json:"id"`
	Name                string              `json:"name"`
	Phone               string              `json:"phone"`
	Questions           []string            `json:"questions"`
	RagKnowledge        string              `json:"ragKnowledge"`
	ClassificationRules interface{}         `json:"classificationRules"`
	Products            []specialistProduct `json:"products"`
}

type specialistResponse struct {
	IsSpecialist bool               `json:"isSpecialist"`
	Specialist   *specialistPayload `json:"specialist,omitempty"`
}

// BuildSpecialist monta o perfil que o bot usa, com os padrões para configs ausentes.
func BuildSpecialist(db *gorm.DB, user models.User) (specialistPayload, error) {
	questions := user.Questions()
	if len(questions) == 0 {
		questions = deps.Config.Bot.DefaultQuestions
	}

	var rules interface{} = deps.Config.Bot.DefaultClassification
	if !user.ClassificationConfig.IsNull() {
		rules = user.ClassificationConfig
	}

	var rag struct {
		CondensedKnowledge string `json:"condensed_knowledge"`
	}
	_ = user.RagKnowledge.Decode(&rag)

	var products []models.InsuranceProduct
	if err := db.Where("user_id = ? AND status = ?", user.ID, models.PRODUCT_STATUS_ACTIVE).
		Order("created_at desc").Find(&products).Error; err != nil {
		return specialistPayload{}, err
	}
	out := make([]specialistProduct, 0, len(products))
	for _, p := range products {
		out = append(out, specialistProduct{
			ID:             p.ID,
			Name:           p.Name,
			Description:    p.Description,
			MonthlyPremium: p.MonthlyPremium,
			Coverages:      p.Coverages,
			Assistances:    p.Assistances,
		})
	}

	return specialistPayload{
		ID:                  user.ID,
		Name:                user.Name,
		Phone:               user.Phone,
		Questions:           questions,
		RagKnowledge:        rag.CondensedKnowledge,
		ClassificationRules: rules,
		Products:            out,
	}, nil
}

// GET /api/users/by-phone/:phone (x-api-key)
func GetUserByPhone(c *gin.Context) {
	phone := strings.TrimSpace(c.Param("phone"))
	key := tools.NormalizePhoneNumber(phone)
	if key == "" {
		RespondError(c, "Telefone obrigatório", http.StatusBadRequest)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var cached specialistResponse
	if found, err := deps.Cache.GetJSON(ctx, cache.SpecialistKey(key), &cached); err != nil {
		logging.L().Warn("specialist cache read failed", zap.Error(err))
	} else if found {
		RespondSuccess(c, cached)
		return
	}

	var user models.User
	err := db.Where("phone_key = ?", key).Order("id asc").First(&user).Error
	if gorm.IsRecordNotFoundError(err) {
		RespondSuccess(c, specialistResponse{IsSpecialist: false})
		return
	} else if err != nil {
		RespondError(c, "Erro interno", http.StatusInternalServerError)
		return
	}

	payload, err := BuildSpecialist(db, user)
	if err != nil {
		RespondError(c, "Erro interno", http.StatusInternalServerError)
		return
	}
	resp := specialistResponse{IsSpecialist: true, Specialist: &payload}
	if err := deps.Cache.SetJSON(ctx, cache.SpecialistKey(key), resp); err != nil {
		logging.L().Warn("specialist cache write failed", zap.Error(err))
	}
	RespondSuccess(c, resp)
}

// invalidateSpecialist descarta o perfil em cache do corretor (um ou mais telefones).
func invalidateSpecialist(ctx context.Context, phones ...string) {
	keys := make([]string, 0, len(phones))
	for _, p := range phones {
		if k := tools.NormalizePhoneNumber(p); k != "" {
			keys = append(keys, cache.SpecialistKey(k))
		}
	}
	if err := deps.Cache.Delete(ctx, keys...); err != nil {
		logging.L().Warn("specialist cache invalidate failed", zap.Error(err))
	}
}

// GET /api/availability/free?userId= (x-api-key)
func GetFreeAvailability(c *gin.Context) {
	uid, err := strconv.ParseInt(strings.TrimSpace(c.Query("userId")), 10, 64)
	if err != nil || uid <= 0 {
		RespondError(c, "userId é obrigatório", http.StatusBadRequest)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	var slots []models.AvailabilitySlot
	if err := db.Where("user_id = ? AND is_booked = ? AND start_time > ?", uid, false, time.Now()).
		Order("start_time asc").
		Limit(queryIntClamped(c, "limit", 20, 1, 100)).
		Find(&slots).Error; err != nil {
		RespondError(c, "Erro ao buscar horários", http.StatusInternalServerError)
		return
	}
	if slots == nil {
		slots = []models.AvailabilitySlot{}
	}
	RespondSuccess(c, slots)
}

func queryIntClamped(c *gin.Context, key string, def, min, max int) int {
	return clampInt(queryInt(c, key, def), min, max)
}
