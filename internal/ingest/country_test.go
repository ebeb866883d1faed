package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCountry(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want string
	}{
		{"Peru", "PERU"},
		{"Perú", "PERU"},
		{"  PERÚ ", "PERU"},
		{"Republic of Colombia", "COLOMBIA"},
		{"ecuador", "ECUADOR"},
		{"Chile", "Unknown"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCountry(tt.raw, "Unknown"), tt.raw)
	}
	assert.Equal(t, "OTHER", NormalizeCountry("Bolivia", "OTHER"))
}

func TestFold(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "CAMARA BOGOTA", Fold(" Cámara Bogotá "))
	assert.Equal(t, "ANO", Fold("año"))
}

func TestMonthPeriod(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want string
	}{
		{"ENERO", "2026-01-01"},
		{"enero", "2026-01-01"},
		{"February", "2026-02-01"},
		{"Sept.", "2026-09-01"},
		{"setiembre", "2026-09-01"},
		{"DIC", "2026-12-01"},
		{"Dec", "2026-12-01"},
	}
	for _, tt := range tests {
		got, ok := MonthPeriod(tt.name, 2026)
		assert.True(t, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, ok := MonthPeriod("Q1", 2026)
	assert.False(t, ok)
	_, ok = MonthPeriod("Enero", 0)
	assert.False(t, ok)
}
