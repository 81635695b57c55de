package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Lolobw32/ecom-oslan/internal/pricing"
	"github.com/Lolobw32/ecom-oslan/internal/resolve"
)

// Settings holds the storefront business tables that change without a
// redeploy: promo codes, shipping rule and product resolution keywords.
type Settings struct {
	DefaultSize      string
	Pricing          pricing.Rules
	ResolverKeywords []string
}

type settingsFile struct {
	DefaultSize string `yaml:"default_size"`
	Shipping    struct {
		FreeFrom *float64 `yaml:"free_from"`
		FlatFee  *float64 `yaml:"flat_fee"`
	} `yaml:"shipping"`
	Promos           map[string]float64 `yaml:"promos"`
	ResolverKeywords []string           `yaml:"resolver_keywords"`
}

func DefaultSettings() Settings {
	return Settings{
		DefaultSize:      "M",
		Pricing:          pricing.DefaultRules(),
		ResolverKeywords: resolve.DefaultKeywords(),
	}
}

// LoadSettings reads a YAML settings file. Sections absent from the file keep
// their defaults.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Settings{}, fmt.Errorf("read settings file: %w", err)
	}
	return ParseSettings(data)
}

func ParseSettings(data []byte) (Settings, error) {
	var f settingsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Settings{}, fmt.Errorf("parse settings file: %w", err)
	}

	s := DefaultSettings()
	if size := strings.TrimSpace(f.DefaultSize); size != "" {
		s.DefaultSize = size
	}
	if f.Shipping.FreeFrom != nil {
		if *f.Shipping.FreeFrom < 0 {
			return Settings{}, fmt.Errorf("shipping.free_from must not be negative")
		}
		s.Pricing.FreeShippingFrom = decimal.NewFromFloat(*f.Shipping.FreeFrom)
	}
	if f.Shipping.FlatFee != nil {
		if *f.Shipping.FlatFee < 0 {
			return Settings{}, fmt.Errorf("shipping.flat_fee must not be negative")
		}
		s.Pricing.FlatShippingFee = decimal.NewFromFloat(*f.Shipping.FlatFee)
	}
	if f.Promos != nil {
		s.Pricing.Promos = make(pricing.Promos, len(f.Promos))
		for code, fraction := range f.Promos {
			if fraction < 0 || fraction >= 1 {
				return Settings{}, fmt.Errorf("promo %q: fraction %v outside [0,1)", code, fraction)
			}
			s.Pricing.Promos[pricing.NormalizeCode(code)] = decimal.NewFromFloat(fraction)
		}
	}
	if f.ResolverKeywords != nil {
		s.ResolverKeywords = make([]string, 0, len(f.ResolverKeywords))
		for _, kw := range f.ResolverKeywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				s.ResolverKeywords = append(s.ResolverKeywords, kw)
			}
		}
	}
	return s, nil
}
