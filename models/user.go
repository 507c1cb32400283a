package models

import (
	"strings"
	"time"

	"corretor/tools"
)

/************************************************
/**** MARK: USER ROLES ****/
/************************************************/
const USER_ROLE_USER = "USER"
const USER_ROLE_ADMIN = "ADMIN"

// User representa um corretor (ou admin) no sistema
type User struct {
	ID                   int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Name                 string     `gorm:"not null" json:"name"`
	Email                string     `gorm:"not null;unique_index" json:"email"`
	Password             string     `gorm:"not null" json:"-"`
	Phone                string     `gorm:"default:''" json:"phone"`
	PhoneKey             string     `gorm:"column:phone_key;default:'';index" json:"-"`
	Creci                string     `gorm:"default:''" json:"creci"`
	Image                string     `gorm:"default:''" json:"image"`
	Role                 string     `gorm:"not null;default:'USER'" json:"role"`
	WelcomeMessage       string     `gorm:"type:text" json:"welcome_message"`
	QualificationConfig  JSON       `gorm:"type:text" json:"qualification_config"`
	ClassificationConfig JSON       `gorm:"type:text" json:"classification_config"`
	RagKnowledge         JSON       `gorm:"type:text" json:"rag_knowledge"`
	CreatedAt            *time.Time `json:"created_at"`
	UpdatedAt            *time.Time `json:"updated_at"`
}

func (user User) MissingFields() string {
	if strings.TrimSpace(user.Name) == "" {
		return "name"
	} else if strings.TrimSpace(user.Email) == "" {
		return "email"
	} else if user.Password == "" {
		return "password"
	} else if tools.CheckPassword(user.Password) != "" {
		return tools.CheckPassword(user.Password)
	} else if strings.TrimSpace(user.Phone) == "" {
		return "phone"
	}
	return ""
}

func (user User) IsAdmin() bool {
	return user.Role == USER_ROLE_ADMIN
}

// SetPhone grava o telefone como dígitos e recalcula a chave de comparação.
func (user *User) SetPhone(raw string) {
	user.Phone = tools.OnlyDigits(raw)
	user.PhoneKey = tools.NormalizePhoneNumber(raw)
}

// Questions devolve as perguntas de qualificação configuradas (ou nil).
func (user User) Questions() []string {
	var cfg struct {
		Questions []string `json:"questions"`
	}
	_ = user.QualificationConfig.Decode(&cfg)
	return cfg.Questions
}
