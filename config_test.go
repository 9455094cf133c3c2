package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultConfig(t *testing.T) {
	cfg, err := LoadDefaultConfig()
	if err != nil {
		t.Fatalf("LoadDefaultConfig: %v", err)
	}

	if got := cfg.CountryNames(); strings.Join(got, ",") != "Australia,France,Italy" {
		t.Errorf("Expected Australia,France,Italy, got %v", got)
	}
	if len(cfg.Contexts) != 9 {
		t.Errorf("Expected 9 contexts, got %d", len(cfg.Contexts))
	}
	if cfg.MaxLivesSaved() != 30 {
		t.Errorf("Expected max lives 30, got %d", cfg.MaxLivesSaved())
	}

	for _, country := range cfg.CountryNames() {
		for _, sev := range AllSeverities {
			key := ContextKey{Country: country, Severity: sev}
			if _, err := cfg.Coefficients(key); err != nil {
				t.Errorf("%s: %v", key, err)
			}
			published, err := cfg.PublishedWTS(key)
			if err != nil || len(published) != 5 {
				t.Errorf("%s: expected 5 published WTS entries, got %d (%v)", key, len(published), err)
			}
		}
	}

	def := cfg.DefaultInput()
	if def.Country != "Australia" || def.Severity != SeverityPooled || def.QALYTier != QALYModerate || def.LivesSaved != 10 {
		t.Errorf("Unexpected defaults: %+v", def)
	}
}

func TestConfig_Currency(t *testing.T) {
	cfg, _ := LoadDefaultConfig()
	tests := []struct {
		country, code, symbol string
	}{
		{"Australia", "AUD", "A$"},
		{"France", "EUR", "€"},
		{"Italy", "EUR", "€"},
	}
	for _, tt := range tests {
		cur, err := cfg.Currency(tt.country)
		if err != nil {
			t.Fatalf("%s: %v", tt.country, err)
		}
		if cur.Code != tt.code || cur.Symbol != tt.symbol {
			t.Errorf("%s: expected %s/%s, got %s/%s", tt.country, tt.code, tt.symbol, cur.Code, cur.Symbol)
		}
	}
	if _, err := cfg.Currency("Atlantis"); err == nil {
		t.Error("Expected an error for an unknown country")
	}
}

func TestParseConfig_Rejects(t *testing.T) {
	base := defaultConfigYAML

	tests := []struct {
		name    string
		yaml    string
		errPart string
	}{
		{
			name:    "unsupported schema version",
			yaml:    strings.Replace(base, `schema_version: "1.0.0"`, `schema_version: "2.1.0"`, 1),
			errPart: "not supported",
		},
		{
			name:    "malformed schema version",
			yaml:    strings.Replace(base, `schema_version: "1.0.0"`, `schema_version: "one"`, 1),
			errPart: "schema_version",
		},
		{
			name:    "unknown currency",
			yaml:    strings.Replace(base, "currency_code: AUD", "currency_code: XYZZ", 1),
			errPart: "currency",
		},
		{
			name:    "context for unlisted country",
			yaml:    strings.Replace(base, "  - country: Italy\n    severity: severe", "  - country: Spain\n    severity: severe", 1),
			errPart: "unknown country",
		},
		{
			name:    "rule that does not compile",
			yaml:    strings.Replace(base, `when: 'uptake >= 70.0'`, `when: 'uptake >=>= 70.0'`, 1),
			errPart: "recommendations",
		},
		{
			name:    "coefficient that is not a number",
			yaml:    strings.Replace(base, "lives: 0.0445604", "lives: lots", 1),
			errPart: "config schema",
		},
		{
			name:    "unknown top-level key",
			yaml:    strings.Replace(base, "cost_benefit:", "cost_benfit_typo: 1\ncost_benefit:", 1),
			errPart: "config schema",
		},
		{
			name:    "unknown cost basis",
			yaml:    strings.Replace(base, "basis: fixed", "basis: yearly", 1),
			errPart: "basis",
		},
		{
			name:    "invalid severity",
			yaml:    strings.Replace(base, "  - country: Italy\n    severity: severe", "  - country: Italy\n    severity: catastrophic", 1),
			errPart: "severity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.yaml == base {
				t.Fatal("test input did not change the config")
			}
			_, err := parseConfig([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("Expected error containing %q, got %v", tt.errPart, err)
			}
		})
	}
}

func TestConfig_MissingContextHasNoFallback(t *testing.T) {
	cfg, _ := LoadDefaultConfig()
	key := ContextKey{Country: "Australia", Severity: SeverityMild}

	cfg.Contexts = removeContext(cfg.Contexts, key)

	if _, err := cfg.Coefficients(key); err == nil {
		t.Error("Expected MissingCoefficientError, got coefficients")
	}
	if _, err := cfg.Coefficients(ContextKey{Country: "Australia", Severity: SeverityPooled}); err != nil {
		t.Errorf("pooled should still resolve: %v", err)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg, _ := LoadDefaultConfig()
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := SaveConfig(cfg.WithFixedSetupCost(30000), path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# Vaccine Mandate Policy Simulator Configuration") {
		t.Error("Expected the generated header")
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.CostBenefit.FixedSetupCost != 30000 {
		t.Errorf("Expected fixed cost 30000, got %v", loaded.CostBenefit.FixedSetupCost)
	}
	if len(loaded.Contexts) != len(cfg.Contexts) || len(loaded.Recommendations.Rules) != len(cfg.Recommendations.Rules) {
		t.Error("Saved config lost contexts or rules")
	}
	if cfg.CostBenefit.FixedSetupCost != 200000 {
		t.Errorf("WithFixedSetupCost modified the original: %v", cfg.CostBenefit.FixedSetupCost)
	}
}

func removeContext(contexts []ContextConfig, key ContextKey) []ContextConfig {
	out := make([]ContextConfig, 0, len(contexts))
	for _, cc := range contexts {
		if cc.Key() != key {
			out = append(out, cc)
		}
	}
	return out
}

func TestValidateConfigSchema(t *testing.T) {
	// Scenario: the built-in config and a document missing its countries
	if err := validateConfigSchema([]byte(defaultConfigYAML)); err != nil {
		t.Fatalf("built-in config should match the schema: %v", err)
	}

	err := validateConfigSchema([]byte("schema_version: \"1.0.0\"\ncontexts: []\n"))
	if err == nil {
		t.Fatal("Expected an error for a config without countries")
	}
	if !strings.Contains(err.Error(), "config schema") {
		t.Errorf("Expected a schema error, got %v", err)
	}

	if err := validateConfigSchema([]byte("countries: [unterminated")); err == nil {
		t.Error("Expected a YAML parse error")
	}
}

func TestValidateConfigSchema_NumberTypes(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{"Given whole lives saved, Then the document is accepted", strings.Replace(defaultConfigYAML, "lives_saved: 10", "lives_saved: 12", 1), false},
		{"Given fractional lives saved, Then the document is rejected", strings.Replace(defaultConfigYAML, "lives_saved: 10", "lives_saved: 2.5", 1), true},
		{"Given a negative maximum, Then the document is rejected", strings.Replace(defaultConfigYAML, "max_lives_saved: 30", "max_lives_saved: -1", 1), true},
		{"Given a p-value above one, Then the document is rejected", strings.Replace(defaultConfigYAML, "p: 0.032}", "p: 1.5}", 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.yaml == defaultConfigYAML {
				t.Fatal("test input did not change the config")
			}
			err := validateConfigSchema([]byte(tt.yaml))
			if tt.wantErr && err == nil {
				t.Error("Expected a schema error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
