package models

import (
	"strings"
	"time"
)

/************************************************
/**** MARK: PRODUCT STATUS ****/
/************************************************/
const PRODUCT_STATUS_ACTIVE = "ACTIVE"
const PRODUCT_STATUS_ARCHIVED = "ARCHIVED"

// InsuranceProduct é um produto de seguro oferecido por um corretor.
// Produtos com IsPostSales alimentam a automação de pós-venda.
type InsuranceProduct struct {
	ID             int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID         int64      `gorm:"not null;index" json:"user_id"`
	Name           string     `gorm:"not null" json:"name"`
	Description    string     `gorm:"type:text" json:"description"`
	MonthlyPremium float64    `gorm:"not null;default:0" json:"monthly_premium"`
	Assistances    JSON       `gorm:"type:text" json:"assistances"`
	Coverages      JSON       `gorm:"type:text" json:"coverages"`
	IsPostSales    bool       `gorm:"not null;default:false" json:"is_post_sales"`
	Status         string     `gorm:"not null;default:'ACTIVE';index" json:"status"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

func (InsuranceProduct) TableName() string {
	return "insurance_products"
}

func (p InsuranceProduct) MissingFields() string {
	if strings.TrimSpace(p.Name) == "" {
		return "name"
	} else if strings.TrimSpace(p.Description) == "" {
		return "description"
	}
	return ""
}
