package models

import "time"

// Attachment é um arquivo (PDF, imagem) anexado a um lead.
type Attachment struct {
	ID         int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	LeadID     int64      `gorm:"not null;index" json:"lead_id"`
	URL        string     `gorm:"column:url;not null" json:"url"`
	StorageKey string     `gorm:"column:storage_key;default:''" json:"key"`
	Name       string     `gorm:"not null" json:"name"`
	Type       string     `gorm:"default:''" json:"type"`
	Size       int64      `gorm:"default:0" json:"size"`
	CreatedAt  *time.Time `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}
