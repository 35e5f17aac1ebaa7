// Package words spells guaraní amounts in uppercase Spanish for promissory notes.
package words

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	currency = "GUARANIES"
	maxValue = 999_999_999
	tooLarge = "NUMERO DEMASIADO GRANDE"
)

var (
	units    = []string{"", "UN", "DOS", "TRES", "CUATRO", "CINCO", "SEIS", "SIETE", "OCHO", "NUEVE"}
	teens    = []string{"DIEZ", "ONCE", "DOCE", "TRECE", "CATORCE", "QUINCE", "DIECISEIS", "DIECISIETE", "DIECIOCHO", "DIECINUEVE"}
	tens     = []string{"", "DIEZ", "VEINTE", "TREINTA", "CUARENTA", "CINCUENTA", "SESENTA", "SETENTA", "OCHENTA", "NOVENTA"}
	hundreds = []string{"", "CIENTO", "DOSCIENTOS", "TRESCIENTOS", "CUATROCIENTOS", "QUINIENTOS", "SEISCIENTOS", "SETECIENTOS", "OCHOCIENTOS", "NOVECIENTOS"}
)

// Guaranies spells n followed by the currency name, e.g. "UN MILLON CIEN MIL GUARANIES".
// Values above 999.999.999 are not spelled.
func Guaranies(n int64) string {
	if n == 0 {
		return "CERO " + currency
	}
	prefix := ""
	if n < 0 {
		prefix = "MENOS "
		n = -n
	}
	if n > maxValue {
		return tooLarge
	}

	var parts []string
	if millions := n / 1_000_000; millions > 0 {
		if millions == 1 {
			parts = append(parts, "UN MILLON")
		} else {
			parts = append(parts, belowThousand(millions)+" MILLONES")
		}
		n %= 1_000_000
	}
	if thousands := n / 1000; thousands > 0 {
		if thousands == 1 {
			parts = append(parts, "MIL")
		} else {
			parts = append(parts, belowThousand(thousands)+" MIL")
		}
		n %= 1000
	}
	if n > 0 {
		parts = append(parts, belowThousand(n))
	}

	return prefix + strings.Join(parts, " ") + " " + currency
}

// FromDecimal spells the integer part of amount.
func FromDecimal(amount decimal.Decimal) string {
	return Guaranies(amount.IntPart())
}

func belowThousand(n int64) string {
	if n == 100 {
		return "CIEN"
	}

	var parts []string
	if h := n / 100; h > 0 {
		parts = append(parts, hundreds[h])
		n %= 100
	}

	switch {
	case n == 0:
	case n < 10:
		parts = append(parts, units[n])
	case n < 20:
		parts = append(parts, teens[n-10])
	default:
		t, u := n/10, n%10
		switch {
		case u == 0:
			parts = append(parts, tens[t])
		case t == 2:
			parts = append(parts, "VEINTI"+units[u])
		default:
			parts = append(parts, tens[t]+" Y "+units[u])
		}
	}
	return strings.Join(parts, " ")
}
