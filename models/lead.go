package models

import (
	"strings"
	"time"
)

/************************************************
/**** MARK: LEAD STATUS ****/
/************************************************/
const LEAD_STATUS_ENTRANTE = "ENTRANTE"
const LEAD_STATUS_QUALIFICADO = "QUALIFICADO"
const LEAD_STATUS_AGENDADO_COTACAO = "AGENDADO_COTACAO"
const LEAD_STATUS_PROPOSTA_ENVIADA = "PROPOSTA_ENVIADA"
const LEAD_STATUS_VENDA_REALIZADA = "VENDA_REALIZADA"
const LEAD_STATUS_PERDIDO = "PERDIDO"
const LEAD_STATUS_ARQUIVADO = "ARQUIVADO"

/************************************************
/**** MARK: LEAD ORIGIN ****/
/************************************************/
const LEAD_ORIGIN_WHATSAPP = "WHATSAPP"
const LEAD_ORIGIN_MANUAL = "MANUAL"
const LEAD_ORIGIN_IMPORT = "IMPORTACAO_XLSX"

var LeadStatuses = []string{
	LEAD_STATUS_ENTRANTE,
	LEAD_STATUS_QUALIFICADO,
	LEAD_STATUS_AGENDADO_COTACAO,
	LEAD_STATUS_PROPOSTA_ENVIADA,
	LEAD_STATUS_VENDA_REALIZADA,
	LEAD_STATUS_PERDIDO,
	LEAD_STATUS_ARQUIVADO,
}

// KanbanColumn é uma coluna do quadro de leads.
type KanbanColumn struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var KanbanColumns = []KanbanColumn{
	{ID: LEAD_STATUS_ENTRANTE, Label: "Entrantes"},
	{ID: LEAD_STATUS_QUALIFICADO, Label: "Qualificados"},
	{ID: LEAD_STATUS_AGENDADO_COTACAO, Label: "Agendado Cotação"},
	{ID: LEAD_STATUS_PROPOSTA_ENVIADA, Label: "Proposta Enviada"},
	{ID: LEAD_STATUS_VENDA_REALIZADA, Label: "Venda Realizada"},
}

// Lead representa um contato no funil de vendas de um corretor.
// (user_id, contato_key) é único: o mesmo telefone em formatos diferentes cai no mesmo lead.
type Lead struct {
	ID                    int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID                int64      `gorm:"not null;index;unique_index:idx_leads_user_contato" json:"user_id"`
	Name                  string     `gorm:"not null;default:''" json:"name"`
	Contato               string     `gorm:"not null" json:"contato"`
	ContatoKey            string     `gorm:"column:contato_key;not null;unique_index:idx_leads_user_contato" json:"-"`
	Status                string     `gorm:"not null;default:'ENTRANTE';index" json:"status"`
	Segmentacao           string     `gorm:"default:''" json:"segmentacao"`
	Classificacao         string     `gorm:"default:''" json:"classificacao"`
	FaturamentoEstimado   string     `gorm:"default:''" json:"faturamento_estimado"`
	AtividadePrincipal    string     `gorm:"default:''" json:"atividade_principal"`
	NumeroApolice         string     `gorm:"default:''" json:"numero_apolice"`
	OrigemLead            string     `gorm:"default:''" json:"origem_lead"`
	ResumoDaConversa      string     `gorm:"type:text" json:"resumo_da_conversa"`
	DynamicData           JSON       `gorm:"type:text" json:"dynamic_data"`
	HistoricoCompleto     JSON       `gorm:"type:text" json:"historico_completo"`
	FirstContactSent      bool       `gorm:"not null;default:false" json:"first_contact_sent"`
	InterestedInProductID *int64     `gorm:"index" json:"interested_in_product_id"`
	CreatedAt             *time.Time `json:"created_at"`
	UpdatedAt             *time.Time `json:"updated_at"`

	InterestedInProduct *InsuranceProduct `gorm:"foreignkey:InterestedInProductID;association_autoupdate:false;association_autocreate:false" json:"interested_in_product,omitempty"`
	Attachments         []Attachment      `gorm:"foreignkey:LeadID;association_autoupdate:false;association_autocreate:false" json:"attachments,omitempty"`
}

func (lead Lead) MissingFields() string {
	if lead.UserID == 0 {
		return "userId"
	} else if strings.TrimSpace(lead.Contato) == "" {
		return "contato"
	}
	return ""
}

func IsValidLeadStatus(status string) bool {
	for _, s := range LeadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsKanbanStatus(status string) bool {
	for _, col := range KanbanColumns {
		if col.ID == status {
			return true
		}
	}
	return false
}
