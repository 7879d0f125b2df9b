package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dafibh/autolot/autolot-backend/internal/financing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFinancing_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadFinancing("")
	require.NoError(t, err)

	assert.Equal(t, financing.DefaultConfig(), cfg)
}

func TestLoadFinancing_MissingFile(t *testing.T) {
	_, err := LoadFinancing(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFinancing_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "financing.yaml")
	content := `
price:
  max: "250000"
apr:
  max: "24.99"
terms: [36, 60]
taxRates:
  on: "0.13"
  " wa ": "0.065"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFinancing(path)
	require.NoError(t, err)

	assert.True(t, cfg.MinPrice.Equal(decimal.NewFromInt(1000)), "untouched bounds keep their defaults")
	assert.True(t, cfg.MaxPrice.Equal(decimal.NewFromInt(250000)))
	assert.True(t, cfg.MaxAPR.Equal(decimal.RequireFromString("24.99")))
	assert.Equal(t, []int{36, 60}, cfg.AllowedTerms)
	assert.Equal(t, []string{"ON", "WA"}, cfg.TaxRates.Codes())

	rate, ok := cfg.TaxRates.Lookup("wa")
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.065")))
}

func TestParseFinancing_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad decimal", `minFees: "ten"`},
		{"inverted price bounds", "price:\n  min: \"9000\"\n  max: \"100\""},
		{"inverted apr bounds", "apr:\n  min: \"40\""},
		{"non-positive term", "terms: [0, 12]"},
		{"tax rate above one", "taxRates:\n  ON: \"13\""},
		{"negative tax rate", "taxRates:\n  ON: \"-0.1\""},
		{"unknown key", "maxTerm: 84"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFinancing([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}
