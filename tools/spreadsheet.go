package tools

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	SPREADSHEET_SOURCE_XLSX = "XLSX"
	SPREADSHEET_SOURCE_CSV  = "CSV"

	DefaultImportedLeadName = "Lead Importado"

	headerScanRows = 50
)

var ErrUnsupportedSpreadsheet = errors.New("formato de planilha não suportado (use .xlsx ou .csv)")

var (
	mobileColumns  = []string{"Telefone Celular", "Celular", "Whatsapp"}
	landlineColumn = []string{"Telefone", "Fixo", "Tel Fixo"}
	nameColumns    = []string{"Nome do Cliente: Nome do Cliente", "Nome do Cliente", "Nome", "Segurado"}
	phaseColumns   = []string{"Fase", "Status", "Etapa", "Tipo de Oportunidade"}
	policyColumns  = []string{"Apólice", "Numero da Apolice"}
	premiumColumns = []string{"Prêmio Estimado", "Valor", "Premio"}
)

// phaseStatuses é avaliado em ordem: o primeiro trecho contido na fase decide o status.
var phaseStatuses = []struct {
	contains string
	status   string
}{
	{"ganha", "VENDA_REALIZADA"},
	{"fechada", "VENDA_REALIZADA"},
	{"perdida", "PERDIDO"},
	{"em andamento", "QUALIFICADO"},
	{"proposta", "PROPOSTA_ENVIADA"},
	{"cotacao", "AGENDADO_COTACAO"},
	{"novo", "ENTRANTE"},
	{"prospeccao", "ENTRANTE"},
	{"renovacao", "ENTRANTE"},
}

// ImportedLead é uma linha válida da planilha já no formato de lead.
type ImportedLead struct {
	Name                string                 `json:"name"`
	Contato             string                 `json:"contato"`
	Status              string                 `json:"status"`
	NumeroApolice       string                 `json:"numeroApolice,omitempty"`
	FaturamentoEstimado string                 `json:"faturamentoEstimado,omitempty"`
	DynamicData         map[string]interface{} `json:"dynamicData"`
}

// SpreadsheetResult traz as linhas válidas e as estatísticas da leitura.
type SpreadsheetResult struct {
	Leads     []ImportedLead `json:"leads"`
	Total     int            `json:"total"`
	Valid     int            `json:"valid"`
	Ignored   int            `json:"ignored"`
	HeaderRow int            `json:"header_row"`
}

// ParseLeadSpreadsheet lê um .xlsx (primeira aba) ou .csv e extrai leads.
func ParseLeadSpreadsheet(fileName string, r io.Reader) (SpreadsheetResult, error) {
	var (
		rows   [][]string
		source string
		err    error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		source = SPREADSHEET_SOURCE_XLSX
		rows, err = readXLSX(r)
	case ".csv", ".txt":
		source = SPREADSHEET_SOURCE_CSV
		rows, err = readCSV(r)
	default:
		return SpreadsheetResult{}, ErrUnsupportedSpreadsheet
	}
	if err != nil {
		return SpreadsheetResult{}, err
	}
	return ExtractLeads(rows, source), nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("abrir xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("ler aba %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(b))
	reader.Comma = detectDelimiter(b)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ler csv: %w", err)
	}
	return rows, nil
}

// detectDelimiter escolhe ';' quando a primeira linha tem mais ';' que ','.
func detectDelimiter(b []byte) rune {
	line := b
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		line = b[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

// DetectHeaderRow devolve a primeira linha (das 50 primeiras) que cita "telefone"
// e "nome" ou "cliente". Sem achar, assume a linha 0.
func DetectHeaderRow(rows [][]string) int {
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		line := strings.ToLower(strings.Join(rows[i], " "))
		if strings.Contains(line, "telefone") && (strings.Contains(line, "nome") || strings.Contains(line, "cliente")) {
			return i
		}
	}
	return 0
}

// MapPhaseToStatus converte a fase da planilha num status de lead.
func MapPhaseToStatus(phase string) string {
	normalized := NormalizeText(phase)
	if normalized == "" {
		return "ENTRANTE"
	}
	for _, p := range phaseStatuses {
		if strings.Contains(normalized, p.contains) {
			return p.status
		}
	}
	return "ENTRANTE"
}

// ExtractLeads aplica a heurística de cabeçalho e colunas sobre a matriz da planilha.
func ExtractLeads(rows [][]string, source string) SpreadsheetResult {
	result := SpreadsheetResult{Leads: []ImportedLead{}}
	if len(rows) == 0 {
		return result
	}

	headerIdx := DetectHeaderRow(rows)
	result.HeaderRow = headerIdx

	header := rows[headerIdx]
	headerMap := map[string]int{}
	var headerOrder []string
	for i, col := range header {
		if col == "" {
			continue
		}
		if _, seen := headerMap[col]; !seen {
			headerOrder = append(headerOrder, col)
		}
		headerMap[col] = i
	}

	dataRows := rows[headerIdx+1:]
	result.Total = len(dataRows)

	for _, row := range dataRows {
		lead := rowToLead(row, headerMap, headerOrder, source)
		if len(lead.Contato) < 10 {
			continue
		}
		result.Leads = append(result.Leads, lead)
	}

	result.Valid = len(result.Leads)
	result.Ignored = result.Total - result.Valid
	return result
}

func rowToLead(row []string, headerMap map[string]int, headerOrder []string, source string) ImportedLead {
	phone, _ := findCell(row, headerMap, mobileColumns)
	if phone == "" {
		phone, _ = findCell(row, headerMap, landlineColumn)
	}

	name, _ := findCell(row, headerMap, nameColumns)
	if strings.TrimSpace(name) == "" {
		name = DefaultImportedLeadName
	}

	phase, hasPhase := findCell(row, headerMap, phaseColumns)
	policy, _ := findCell(row, headerMap, policyColumns)
	premium, _ := findCell(row, headerMap, premiumColumns)

	dynamic := map[string]interface{}{
		"importSource": source,
	}
	if hasPhase {
		dynamic["originalStatus"] = phase
	} else {
		dynamic["originalStatus"] = nil
	}
	for _, col := range headerOrder {
		idx := headerMap[col]
		if idx < len(row) {
			dynamic[col] = row[idx]
		} else {
			dynamic[col] = nil
		}
	}

	return ImportedLead{
		Name:                strings.TrimSpace(name),
		Contato:             CleanImportPhone(phone),
		Status:              MapPhaseToStatus(phase),
		NumeroApolice:       strings.TrimSpace(policy),
		FaturamentoEstimado: strings.TrimSpace(premium),
		DynamicData:         dynamic,
	}
}

// findCell procura a célula pelo primeiro nome de coluna candidato presente no cabeçalho
// (comparação sem acento e sem caixa).
func findCell(row []string, headerMap map[string]int, candidates []string) (string, bool) {
	for _, name := range candidates {
		want := NormalizeText(name)
		for col, idx := range headerMap {
			if NormalizeText(col) != want {
				continue
			}
			if idx < len(row) {
				return row[idx], true
			}
		}
	}
	return "", false
}
