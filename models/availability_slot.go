package models

import "time"

// AvailabilitySlot é uma janela de horário livre do corretor.
type AvailabilitySlot struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	StartTime time.Time  `gorm:"column:start_time;not null;index" json:"start_time"`
	EndTime   time.Time  `gorm:"column:end_time;not null" json:"end_time"`
	IsBooked  bool       `gorm:"column:is_booked;not null;default:false" json:"is_booked"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Covers diz se t cai dentro do slot (início inclusivo, fim exclusivo).
func (s AvailabilitySlot) Covers(t time.Time) bool {
	return !t.Before(s.StartTime) && t.Before(s.EndTime)
}
