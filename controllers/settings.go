package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	dbpkg "corretor/db"
	"corretor/models"
	"corretor/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

type ProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Creci *string `json:"creci"`
	Image *string `json:"image"`
}

// PUT /api/settings/profile
func UpdateProfile(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "requisição inválida", http.StatusBadRequest)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}

	oldPhone := user.Phone
	updated := user
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			RespondError(c, "nome não pode ser vazio", http.StatusBadRequest)
			return
		}
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !tools.ValidateEmail(email) {
			RespondError(c, "email inválido", http.StatusBadRequest)
			return
		}
		updated.Email = email
	}
	if req.Phone != nil {
		if !tools.IsValidBrazilianPhone(*req.Phone) {
			RespondError(c, "telefone inválido", http.StatusBadRequest)
			return
		}
		updated.SetPhone(*req.Phone)
	}
	if req.Creci != nil {
		updated.Creci = strings.TrimSpace(*req.Creci)
	}
	if req.Image != nil {
		updated.Image = strings.TrimSpace(*req.Image)
	}

	var emailCheck, phoneCheck string
	if updated.Email != user.Email {
		emailCheck = updated.Email
	}
	if updated.PhoneKey != user.PhoneKey {
		phoneCheck = updated.Phone
	}
	if err := CheckUserConflict(db, emailCheck, phoneCheck, user.ID); err != nil {
		if errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrPhoneTaken) {
			RespondError(c, err.Error(), http.StatusConflict)
			return
		}
		RespondError(c, "Erro ao atualizar perfil", http.StatusInternalServerError)
		return
	}

	if err := db.Model(&user).Updates(map[string]interface{}{
		"name":      updated.Name,
		"email":     updated.Email,
		"phone":     updated.Phone,
		"phone_key": updated.PhoneKey,
		"creci":     updated.Creci,
		"image":     updated.Image,
	}).Error; err != nil {
		RespondError(c, "Erro ao atualizar perfil", http.StatusInternalServerError)
		return
	}

	invalidateSpecialist(c.Request.Context(), oldPhone, updated.Phone)
	RespondSuccess(c, gin.H{"user": updated})
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// PUT /api/settings/password
func UpdatePassword(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "requisição inválida", http.StatusBadRequest)
		return
	}
	if tools.CheckPassword(req.NewPassword) != "" {
		RespondError(c, "A nova senha deve ter no mínimo 6 caracteres", http.StatusBadRequest)
		return
	}
	if !tools.ComparePassword(user.Password, req.CurrentPassword) {
		RespondError(c, "Senha atual incorreta", http.StatusBadRequest)
		return
	}
	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}
	if err := SetUserPassword(db, user.ID, req.NewPassword, deps.Config.Security.BcryptCost); err != nil {
		if gorm.IsRecordNotFoundError(err) {
			RespondError(c, "Usuário não encontrado", http.StatusNotFound)
			return
		}
		RespondError(c, "Erro ao alterar senha", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"success": true})
}

type BotSettingsRequest struct {
	WelcomeMessage      *string         `json:"welcomeMessage"`
	Questions           json.RawMessage `json:"questions"`
	ClassificationRules json.RawMessage `json:"classificationRules"`
	RagKnowledge        *string         `json:"ragKnowledge"`
}

// PUT /api/settings/bot
func UpdateBotSettings(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "Não autorizado", http.StatusUnauthorized)
		return
	}
	var req BotSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "requisição inválida", http.StatusBadRequest)
		return
	}

	fields := map[string]interface{}{}
	if req.WelcomeMessage != nil {
		fields["welcome_message"] = strings.TrimSpace(*req.WelcomeMessage)
	}
	if len(req.Questions) > 0 {
		questions := tools.ParseFlexibleList(req.Questions)
		fields["qualification_config"] = models.ToJSON(map[string]interface{}{"questions": questions})
	}
	if len(req.ClassificationRules) > 0 {
		var rules map[string]string
		if err := json.Unmarshal(req.ClassificationRules, &rules); err != nil {
			RespondError(c, "classificationRules deve ser um objeto de textos", http.StatusBadRequest)
			return
		}
		fields["classification_config"] = models.ToJSON(rules)
	}
	if req.RagKnowledge != nil {
		fields["rag_knowledge"] = models.ToJSON(map[string]string{"condensed_knowledge": strings.TrimSpace(*req.RagKnowledge)})
	}
	if len(fields) == 0 {
		RespondError(c, "nenhum campo para atualizar", http.StatusBadRequest)
		return
	}

	db, ok := dbpkg.MustDB(c)
	if !ok {
		return
	}
	if err := db.Model(&user).Updates(fields).Error; err != nil {
		RespondError(c, "Erro ao salvar configurações do bot", http.StatusInternalServerError)
		return
	}
	if err := db.Where("id = ?", user.ID).First(&user).Error; err != nil {
		RespondError(c, "Erro ao salvar configurações do bot", http.StatusInternalServerError)
		return
	}

	invalidateSpecialist(c.Request.Context(), user.Phone)

	specialist, err := BuildSpecialist(db, user)
	if err != nil {
		RespondError(c, "Erro ao salvar configurações do bot", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"success": true, "specialist": specialist})
}
