package utils

import "strings"

const (
	PhoneLength     = 8
	MatriculeLength = 6
	RIBLength       = 20
)

// MaskDigits keeps the ASCII and Arabic-Indic digits of input, converted to ASCII,
// and truncates the result to max digits. A max of zero or less means no cap.
func MaskDigits(input string, max int) string {
	var b strings.Builder
	for _, r := range input {
		var d rune
		switch {
		case r >= '0' && r <= '9':
			d = r
		case r >= '٠' && r <= '٩':
			d = '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			d = '0' + (r - '۰')
		default:
			continue
		}
		if max > 0 && b.Len() >= max {
			break
		}
		b.WriteRune(d)
	}
	return b.String()
}

// MaskPhone applies the 8 digit phone mask.
func MaskPhone(input string) string { return MaskDigits(input, PhoneLength) }

// MaskMatricule applies the 6 digit matricule mask.
func MaskMatricule(input string) string { return MaskDigits(input, MatriculeLength) }

// MaskRIB applies the 20 digit bank account mask.
func MaskRIB(input string) string { return MaskDigits(input, RIBLength) }

// FormatPhone groups a phone number for display as "12 345 678".
func FormatPhone(input string) string {
	return group(MaskPhone(input), 2, 3, 3)
}

func group(digits string, sizes ...int) string {
	var parts []string
	for _, size := range sizes {
		if digits == "" {
			break
		}
		if len(digits) < size {
			size = len(digits)
		}
		parts = append(parts, digits[:size])
		digits = digits[size:]
	}
	if digits != "" {
		parts = append(parts, digits)
	}
	return strings.Join(parts, " ")
}
