package tools

import (
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripAccents remove acentos ("Apólice" -> "Apolice").
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeText é a forma usada para comparar cabeçalhos e fases: sem acento, minúscula, sem espaços nas pontas.
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(StripAccents(s)))
}

// SafeFileName mantém letras, dígitos, ponto, hífen e underscore do nome base do arquivo.
func SafeFileName(name string) string {
	name = StripAccents(filepath.Base(strings.TrimSpace(name)))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "arquivo"
	}
	if len(out) > 100 {
		out = out[len(out)-100:]
	}
	return out
}

// ParseFlexibleFloat aceita número JSON ou string ("1.234,56", "R$ 99,90", "120.5").
// Valor inválido vira 0.
func ParseFlexibleFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	return ParseMoney(s)
}

// ParseMoney interpreta valores monetários em formato BR ou US.
func ParseMoney(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return 0
	}
	if strings.Contains(s, ",") {
		// formato BR: ponto é milhar, vírgula é decimal
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseFlexibleList aceita lista JSON de strings ou string separada por vírgula.
// Itens são aparados e vazios descartados.
func ParseFlexibleList(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return out
		}
		items = strings.Split(s, ",")
	}
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
