package config

import (
	"fmt"
	"os"

	"github.com/dafibh/autolot/autolot-backend/internal/financing"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// financingFile mirrors the YAML financing configuration; every field is optional
type financingFile struct {
	Price struct {
		Min *string `yaml:"min"`
		Max *string `yaml:"max"`
	} `yaml:"price"`
	APR struct {
		Min *string `yaml:"min"`
		Max *string `yaml:"max"`
	} `yaml:"apr"`
	MinDownPayment *string           `yaml:"minDownPayment"`
	MinFees        *string           `yaml:"minFees"`
	Terms          []int             `yaml:"terms"`
	TaxRates       map[string]string `yaml:"taxRates"`
}

// LoadFinancing builds the calculator configuration. An empty path yields the defaults;
// otherwise values in the YAML file override the defaults they name.
func LoadFinancing(path string) (financing.Config, error) {
	cfg := financing.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read financing config %s: %w", path, err)
	}
	return ParseFinancing(data)
}

// ParseFinancing applies YAML overrides on top of financing.DefaultConfig
func ParseFinancing(data []byte) (financing.Config, error) {
	cfg := financing.DefaultConfig()

	var file financingFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return cfg, fmt.Errorf("failed to parse financing config: %w", err)
	}

	overrides := []struct {
		name   string
		value  *string
		target *decimal.Decimal
	}{
		{"price.min", file.Price.Min, &cfg.MinPrice},
		{"price.max", file.Price.Max, &cfg.MaxPrice},
		{"apr.min", file.APR.Min, &cfg.MinAPR},
		{"apr.max", file.APR.Max, &cfg.MaxAPR},
		{"minDownPayment", file.MinDownPayment, &cfg.MinDownPayment},
		{"minFees", file.MinFees, &cfg.MinFees},
	}
	for _, o := range overrides {
		if o.value == nil {
			continue
		}
		d, err := decimal.NewFromString(*o.value)
		if err != nil {
			return cfg, fmt.Errorf("%s must be a decimal number: %w", o.name, err)
		}
		*o.target = d
	}

	if cfg.MinPrice.GreaterThan(cfg.MaxPrice) {
		return cfg, fmt.Errorf("price.min %s exceeds price.max %s", cfg.MinPrice, cfg.MaxPrice)
	}
	if cfg.MinAPR.GreaterThan(cfg.MaxAPR) {
		return cfg, fmt.Errorf("apr.min %s exceeds apr.max %s", cfg.MinAPR, cfg.MaxAPR)
	}

	if len(file.Terms) > 0 {
		for _, term := range file.Terms {
			if term <= 0 {
				return cfg, fmt.Errorf("terms must be positive, got %d", term)
			}
		}
		cfg.AllowedTerms = append([]int(nil), file.Terms...)
	}

	if len(file.TaxRates) > 0 {
		rates := make(map[string]decimal.Decimal, len(file.TaxRates))
		for code, raw := range file.TaxRates {
			rate, err := decimal.NewFromString(raw)
			if err != nil {
				return cfg, fmt.Errorf("taxRates.%s must be a decimal number: %w", code, err)
			}
			if err := financing.CheckTaxRate(rate); err != nil {
				return cfg, fmt.Errorf("taxRates.%s: %w", code, err)
			}
			rates[code] = rate
		}
		cfg.TaxRates = financing.NewTaxTable(rates)
	}

	return cfg, nil
}
