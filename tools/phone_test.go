package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardizePhone(t *testing.T) {
	cases := map[string]string{
		"5511999998888@s.whatsapp.net": "5511999998888",
		"+55 (11) 99999-8888":          "5511999998888",
		"11999998888":                  "5511999998888",
		"1133334444":                   "551133334444",
		"":                             "",
		"abc":                          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, StandardizePhone(in), in)
	}
}

func TestNormalizePhoneNumber_DropsNinthDigit(t *testing.T) {
	assert.Equal(t, "551199998888", NormalizePhoneNumber("5511999998888"))
	assert.Equal(t, "551199998888", NormalizePhoneNumber("551199998888"))
	assert.Equal(t, "551199998888", NormalizePhoneNumber("(11) 9 9999-8888"))
	// fixo não muda
	assert.Equal(t, "551133334444", NormalizePhoneNumber("1133334444"))
	// celulares 96x/97x também perdem o nono dígito
	assert.Equal(t, "551161234567", NormalizePhoneNumber("5511961234567"))
	assert.Equal(t, "551112345678", NormalizePhoneNumber("5511912345678"))
	assert.Equal(t, "552171234567", NormalizePhoneNumber("(21) 97123-4567"))
	// 9 dígitos que não começam com 7/8/9 ficam como estão
	assert.Equal(t, "5511612345678", NormalizePhoneNumber("5511612345678"))
}

func TestArePhoneNumbersEqual(t *testing.T) {
	assert.True(t, ArePhoneNumbersEqual("+55 11 99999-8888", "1199998888"))
	assert.True(t, ArePhoneNumbersEqual("5511999998888@s.whatsapp.net", "11999998888"))
	assert.True(t, ArePhoneNumbersEqual("11 96123-4567", "551161234567"))
	assert.True(t, ArePhoneNumbersEqual("5511971234567", "1171234567"))
	assert.False(t, ArePhoneNumbersEqual("11999998888", "21999998888"))
	assert.False(t, ArePhoneNumbersEqual("", ""))
}

func TestFormatToJid(t *testing.T) {
	assert.Equal(t, "5511999998888@s.whatsapp.net", FormatToJid("(11) 99999-8888"))
	assert.Equal(t, "", FormatToJid(""))
}

func TestIsValidBrazilianPhone(t *testing.T) {
	assert.True(t, IsValidBrazilianPhone("11 98765-4321"))
	assert.False(t, IsValidBrazilianPhone("123"))
}

func TestCleanImportPhone(t *testing.T) {
	assert.Equal(t, "", CleanImportPhone("1234567"))
	assert.Equal(t, "12345678", CleanImportPhone("1234-5678"))
	assert.Equal(t, "5511987654321", CleanImportPhone("(11) 98765-4321"))
	assert.Equal(t, "5511987654321", CleanImportPhone("5511987654321"))
}
