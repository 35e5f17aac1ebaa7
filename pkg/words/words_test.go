package words

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGuaranies(t *testing.T) {
	tests := []struct {
		amount   int64
		expected string
	}{
		{0, "CERO GUARANIES"},
		{1, "UN GUARANIES"},
		{15, "QUINCE GUARANIES"},
		{21, "VEINTIUN GUARANIES"},
		{30, "TREINTA GUARANIES"},
		{45, "CUARENTA Y CINCO GUARANIES"},
		{100, "CIEN GUARANIES"},
		{101, "CIENTO UN GUARANIES"},
		{999, "NOVECIENTOS NOVENTA Y NUEVE GUARANIES"},
		{1000, "MIL GUARANIES"},
		{2500, "DOS MIL QUINIENTOS GUARANIES"},
		{100000, "CIEN MIL GUARANIES"},
		{275000, "DOSCIENTOS SETENTA Y CINCO MIL GUARANIES"},
		{1000000, "UN MILLON GUARANIES"},
		{1100000, "UN MILLON CIEN MIL GUARANIES"},
		{2000001, "DOS MILLONES UN GUARANIES"},
		{999999999, "NOVECIENTOS NOVENTA Y NUEVE MILLONES NOVECIENTOS NOVENTA Y NUEVE MIL NOVECIENTOS NOVENTA Y NUEVE GUARANIES"},
		{1000000000, "NUMERO DEMASIADO GRANDE"},
		{-5000, "MENOS CINCO MIL GUARANIES"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Guaranies(tt.amount))
		})
	}
}

func TestFromDecimal(t *testing.T) {
	assert.Equal(t, "MIL GUARANIES", FromDecimal(decimal.RequireFromString("1000.75")))
}
