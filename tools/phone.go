package tools

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const whatsappJidSuffix = "@s.whatsapp.net"

// OnlyDigits remove tudo que não é dígito.
func OnlyDigits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StandardizePhone é o formato de armazenamento: apenas dígitos, com DDI 55
// quando vier só DDD+número (10 ou 11 dígitos).
// "5511999998888@s.whatsapp.net", "+55 (11) 99999-8888" e "11999998888" viram "5511999998888".
func StandardizePhone(raw string) string {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), whatsappJidSuffix)
	phone := OnlyDigits(raw)
	if len(phone) == 10 || len(phone) == 11 {
		phone = "55" + phone
	}
	return phone
}

// NormalizePhoneNumber é a chave de comparação: celular BR com 9 dígitos (começando
// com 7, 8 ou 9) perde o primeiro, assim "5511961234567" e "551161234567" batem.
func NormalizePhoneNumber(raw string) string {
	phone := StandardizePhone(raw)
	if strings.HasPrefix(phone, "55") && len(phone) >= 12 {
		ddd := phone[2:4]
		rest := phone[4:]
		if len(rest) == 9 && strings.ContainsRune("789", rune(rest[0])) {
			rest = rest[1:]
		}
		phone = "55" + ddd + rest
	}
	return phone
}

// ArePhoneNumbersEqual compara dois telefones ignorando formatação e nono dígito.
func ArePhoneNumbersEqual(a, b string) bool {
	na, nb := NormalizePhoneNumber(a), NormalizePhoneNumber(b)
	return na != "" && na == nb
}

// FormatToJid devolve o JID do WhatsApp para o telefone.
func FormatToJid(raw string) string {
	phone := StandardizePhone(raw)
	if phone == "" {
		return ""
	}
	return phone + whatsappJidSuffix
}

// IsValidBrazilianPhone valida com a base da libphonenumber (região BR).
func IsValidBrazilianPhone(raw string) bool {
	phone := StandardizePhone(raw)
	if len(phone) < 12 {
		return false
	}
	num, err := phonenumbers.Parse("+"+phone, "BR")
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumberForRegion(num, "BR")
}

// CleanImportPhone é a regra das planilhas: menos de 8 dígitos é descartado,
// 10/11 dígitos ganham o 55.
func CleanImportPhone(raw string) string {
	phone := OnlyDigits(raw)
	if len(phone) < 8 {
		return ""
	}
	if len(phone) == 10 || len(phone) == 11 {
		phone = "55" + phone
	}
	return phone
}
