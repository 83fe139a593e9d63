package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskDigits(t *testing.T) {
	assert.Equal(t, "12345678", MaskPhone("12-345-678"))
	assert.Equal(t, "12345678", MaskPhone("123456789012"))
	assert.Equal(t, "", MaskPhone("abc"))
	assert.Equal(t, "123456", MaskMatricule("١٢٣٤٥٦٧"))
	assert.Equal(t, "0012", MaskMatricule("00x12"))
	assert.Equal(t, "12345", MaskDigits("1 2 3 4 5", 0))
}

func TestMaskIgnoresNonDigits(t *testing.T) {
	base := "1234"
	for _, typed := range []string{"a", " ", "-", "+", "é", "ب", "."} {
		assert.Equal(t, MaskPhone(base), MaskPhone(base+typed), "typing %q changed the phone", typed)
		assert.Equal(t, MaskMatricule(base), MaskMatricule(base+typed), "typing %q changed the matricule", typed)
	}

	full := "12345678"
	assert.Equal(t, full, MaskPhone(full+"9"))
	assert.Len(t, MaskMatricule("1234567890"), MatriculeLength)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12 345 678", FormatPhone("12345678"))
	assert.Equal(t, "12 34", FormatPhone("1234"))
	assert.Equal(t, "", FormatPhone(""))
}
