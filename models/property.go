package models

import (
	"strings"
	"time"
)

/************************************************
/**** MARK: PROPERTY STATUS ****/
/************************************************/
const PROPERTY_STATUS_AVAILABLE = "AVAILABLE"
const PROPERTY_STATUS_RESERVED = "RESERVED"
const PROPERTY_STATUS_SOLD = "SOLD"

type Property struct {
	ID          int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID      int64      `gorm:"not null;index" json:"user_id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Price       float64    `gorm:"not null;default:0" json:"price"`
	Location    string     `gorm:"default:''" json:"location"`
	Features    JSON       `gorm:"type:text" json:"features"`
	Status      string     `gorm:"not null;default:'AVAILABLE'" json:"status"`
	ImageURL    string     `gorm:"column:image_url;default:''" json:"image_url"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func (p Property) MissingFields() string {
	if strings.TrimSpace(p.Title) == "" {
		return "title"
	} else if strings.TrimSpace(p.Description) == "" {
		return "description"
	}
	return ""
}

func IsValidPropertyStatus(status string) bool {
	switch status {
	case PROPERTY_STATUS_AVAILABLE, PROPERTY_STATUS_RESERVED, PROPERTY_STATUS_SOLD:
		return true
	}
	return false
}
