package models

import "time"

/************************************************
/**** MARK: AGENDAMENTO ****/
/************************************************/
const AGENDAMENTO_TIPO_REUNIAO_VENDAS = "REUNIAO_VENDAS"

const AGENDAMENTO_STATUS_CONFIRMADO = "CONFIRMADO"
const AGENDAMENTO_STATUS_CANCELADO = "CANCELADO"
const AGENDAMENTO_STATUS_REALIZADO = "REALIZADO"

// Agendamento é uma reunião marcada entre o corretor e um lead.
// SlotID fica nulo quando o horário não caiu em nenhum slot cadastrado.
type Agendamento struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	LeadID    int64      `gorm:"not null;index" json:"lead_id"`
	SlotID    *int64     `gorm:"index" json:"slot_id"`
	DataHora  time.Time  `gorm:"column:data_hora;not null;index" json:"data_hora"`
	Tipo      string     `gorm:"not null;default:'REUNIAO_VENDAS'" json:"tipo"`
	Status    string     `gorm:"not null;default:'CONFIRMADO';index" json:"status"`
	Resumo    string     `gorm:"type:text" json:"resumo"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`

	Lead *Lead `gorm:"foreignkey:LeadID;association_autoupdate:false;association_autocreate:false" json:"lead,omitempty"`
}
