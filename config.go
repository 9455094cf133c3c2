package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/text/currency"
	"gopkg.in/yaml.v3"
)

//go:embed default-config.yaml
var defaultConfigYAML string

// supportedSchema is the semver constraint a config file's schema_version must satisfy
const supportedSchema = "^1"

// CountryConfig maps a country to the currency its costs are expressed in
type CountryConfig struct {
	Name           string `yaml:"name" json:"name"`
	CurrencyCode   string `yaml:"currency_code" json:"currency_code"`     // ISO 4217, e.g. AUD
	CurrencySymbol string `yaml:"currency_symbol" json:"currency_symbol"` // Display symbol, e.g. A$
}

// WTSEntry is a published willingness-to-sacrifice estimate for one attribute level
type WTSEntry struct {
	Attribute string  `yaml:"attribute" json:"attribute"` // scope2, exemption2, exemption3, coverage2, coverage3
	WTS       float64 `yaml:"wts" json:"wts"`             // Lives per 100k
	SE        float64 `yaml:"se" json:"se"`               // Standard error
	P         float64 `yaml:"p" json:"p"`                 // p-value
}

// ContextConfig holds the coefficient set and WTS table for one country/severity pair
type ContextConfig struct {
	Country      string         `yaml:"country" json:"country"`
	Severity     Severity       `yaml:"severity" json:"severity"`
	Coefficients CoefficientSet `yaml:"coefficients" json:"coefficients"`
	WTS          []WTSEntry     `yaml:"wts,omitempty" json:"wts,omitempty"`
}

// Key returns the lookup key of this context
func (cc ContextConfig) Key() ContextKey {
	return ContextKey{Country: cc.Country, Severity: cc.Severity}
}

// CostAssumptions are the fixed policy assumptions of the cost-benefit model
type CostAssumptions struct {
	BasePopulation      float64              `yaml:"base_population" json:"base_population"`           // Population analysed (per 100k framing)
	ReferencePopulation float64              `yaml:"reference_population" json:"reference_population"` // Population the fixed cost is quoted for
	ValuePerQALY        float64              `yaml:"value_per_qaly" json:"value_per_qaly"`             // Local currency units
	CostPerPerson       float64              `yaml:"cost_per_person" json:"cost_per_person"`           // Per vaccinated person, incl. overhead
	FixedSetupCost      float64              `yaml:"fixed_setup_cost" json:"fixed_setup_cost"`         // Quoted for ReferencePopulation
	QALYPerLife         map[QALYTier]float64 `yaml:"qaly_per_life" json:"qaly_per_life"`
}

// CostItemConfig describes one line of the detailed cost breakdown
type CostItemConfig struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	UnitCost    float64 `yaml:"unit_cost" json:"unit_cost"`
	// Basis is "fixed" (Quantity units) or "per_participant" (Quantity per complying person)
	Basis    string  `yaml:"basis" json:"basis"`
	Quantity float64 `yaml:"quantity" json:"quantity"`
}

// RecommendationRule is one row of the recommendation table.
// When is a CEL expression over uptake, scope, exemption, coverage, severity, country and lives_saved.
type RecommendationRule struct {
	ID       string `yaml:"id" json:"id"`
	When     string `yaml:"when" json:"when"`
	Message  string `yaml:"message" json:"message"`
	Group    string `yaml:"group,omitempty" json:"group,omitempty"`       // Rules sharing a group form an if/else-if chain
	Override bool   `yaml:"override,omitempty" json:"override,omitempty"` // Replaces all other text when it matches
}

// RecommendationConfig holds the rule table and the text used when nothing matches
type RecommendationConfig struct {
	Prefix         string               `yaml:"prefix" json:"prefix"`
	NeutralMessage string               `yaml:"neutral_message" json:"neutral_message"`
	Rules          []RecommendationRule `yaml:"rules" json:"rules"`
}

// DefaultsConfig holds the initial UI selection and input limits
type DefaultsConfig struct {
	Country       string   `yaml:"country" json:"country"`
	Severity      Severity `yaml:"severity" json:"severity"`
	QALYTier      QALYTier `yaml:"qaly_tier" json:"qaly_tier"`
	LivesSaved    int      `yaml:"lives_saved" json:"lives_saved"`
	MaxLivesSaved int      `yaml:"max_lives_saved" json:"max_lives_saved"`
}

// Config is the complete injected configuration of the simulator
type Config struct {
	SchemaVersion   string               `yaml:"schema_version" json:"schema_version"`
	Title           string               `yaml:"title" json:"title"`
	Countries       []CountryConfig      `yaml:"countries" json:"countries"`
	Contexts        []ContextConfig      `yaml:"contexts" json:"contexts"`
	CostBenefit     CostAssumptions      `yaml:"cost_benefit" json:"cost_benefit"`
	CostItems       []CostItemConfig     `yaml:"cost_items" json:"cost_items"`
	Recommendations RecommendationConfig `yaml:"recommendations" json:"recommendations"`
	Defaults        DefaultsConfig       `yaml:"defaults" json:"defaults"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return parseConfig(data)
}

// LoadDefaultConfig loads the configuration compiled into the binary
func LoadDefaultConfig() (*Config, error) {
	return parseConfig([]byte(defaultConfigYAML))
}

func parseConfig(data []byte) (*Config, error) {
	if err := validateConfigSchema(data); err != nil {
		return nil, err
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if _, err := NewRecommender(config.Recommendations); err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}
	return &config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	header := []byte(`# Vaccine Mandate Policy Simulator Configuration
# Generated by the simulator - feel free to edit manually
#
# contexts:      pre-fitted coefficients per country and outbreak severity
# cost_benefit:  fixed policy assumptions (amounts in each country's local currency)
# recommendations.rules: CEL expressions evaluated in order; see default-config.yaml
#
# Run ./goMandateSimulator -help for all options.

`)
	content := append(header, data...)
	return os.WriteFile(filename, content, 0644)
}

// Validate checks internal consistency. Every context must reference a known
// country, every country must have a real ISO 4217 currency.
func (c *Config) Validate() error {
	var errs []error

	version := c.SchemaVersion
	if version == "" {
		version = "1.0.0"
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		errs = append(errs, fmt.Errorf("schema_version %q: %w", c.SchemaVersion, err))
	} else {
		constraint, _ := semver.NewConstraint(supportedSchema)
		if !constraint.Check(v) {
			errs = append(errs, fmt.Errorf("schema_version %s not supported (want %s)", v, supportedSchema))
		}
	}

	if len(c.Countries) == 0 {
		errs = append(errs, errors.New("no countries configured"))
	}
	known := make(map[string]bool, len(c.Countries))
	for _, country := range c.Countries {
		if country.Name == "" {
			errs = append(errs, errors.New("country with empty name"))
			continue
		}
		if known[country.Name] {
			errs = append(errs, fmt.Errorf("country %s listed twice", country.Name))
		}
		known[country.Name] = true
		if _, err := currency.ParseISO(country.CurrencyCode); err != nil {
			errs = append(errs, fmt.Errorf("country %s: currency %q: %w", country.Name, country.CurrencyCode, err))
		}
	}

	seen := make(map[ContextKey]bool, len(c.Contexts))
	for _, cc := range c.Contexts {
		key := cc.Key()
		if !known[cc.Country] {
			errs = append(errs, fmt.Errorf("context %s: unknown country", key))
		}
		if !cc.Severity.Valid() {
			errs = append(errs, fmt.Errorf("context %s: invalid severity", key))
		}
		if seen[key] {
			errs = append(errs, fmt.Errorf("context %s defined twice", key))
		}
		seen[key] = true
	}

	cb := c.CostBenefit
	if cb.BasePopulation <= 0 {
		errs = append(errs, errors.New("cost_benefit.base_population must be positive"))
	}
	if cb.ReferencePopulation <= 0 {
		errs = append(errs, errors.New("cost_benefit.reference_population must be positive"))
	}
	if cb.ValuePerQALY < 0 || cb.CostPerPerson < 0 || cb.FixedSetupCost < 0 {
		errs = append(errs, errors.New("cost_benefit amounts must not be negative"))
	}
	for _, tier := range AllQALYTiers {
		if q, ok := cb.QALYPerLife[tier]; !ok || q <= 0 {
			errs = append(errs, fmt.Errorf("cost_benefit.qaly_per_life.%s must be positive", tier))
		}
	}

	for _, item := range c.CostItems {
		if item.Basis != "fixed" && item.Basis != "per_participant" {
			errs = append(errs, fmt.Errorf("cost item %q: basis must be fixed or per_participant", item.Name))
		}
	}

	if c.Defaults.MaxLivesSaved < 0 {
		errs = append(errs, errors.New("defaults.max_lives_saved must not be negative"))
	}

	return errors.Join(errs...)
}

// Coefficients returns the coefficient set for a context.
// There is deliberately no fallback: a missing pair is a MissingCoefficientError.
func (c *Config) Coefficients(key ContextKey) (CoefficientSet, error) {
	for _, cc := range c.Contexts {
		if cc.Country == key.Country && cc.Severity == key.Severity {
			return cc.Coefficients, nil
		}
	}
	return CoefficientSet{}, &MissingCoefficientError{Key: key}
}

// PublishedWTS returns the published WTS table for a context
func (c *Config) PublishedWTS(key ContextKey) ([]WTSEntry, error) {
	for _, cc := range c.Contexts {
		if cc.Country == key.Country && cc.Severity == key.Severity {
			if len(cc.WTS) == 0 {
				break
			}
			out := make([]WTSEntry, len(cc.WTS))
			copy(out, cc.WTS)
			return out, nil
		}
	}
	return nil, &MissingCoefficientError{Key: key}
}

// FindCountry returns the country entry with the given name, or nil
func (c *Config) FindCountry(name string) *CountryConfig {
	for i := range c.Countries {
		if c.Countries[i].Name == name {
			return &c.Countries[i]
		}
	}
	return nil
}

// CountryNames returns configured countries in config order
func (c *Config) CountryNames() []string {
	names := make([]string, len(c.Countries))
	for i, country := range c.Countries {
		names[i] = country.Name
	}
	return names
}

// Currency returns the currency for a country
func (c *Config) Currency(country string) (Currency, error) {
	cc := c.FindCountry(country)
	if cc == nil {
		return Currency{}, &InvalidSelectionError{Field: "country", Value: country}
	}
	return Currency{Code: cc.CurrencyCode, Symbol: cc.CurrencySymbol}, nil
}

// MaxLivesSaved returns the upper bound for the lives-saved input (0 = unbounded)
func (c *Config) MaxLivesSaved() int {
	return c.Defaults.MaxLivesSaved
}

// DefaultInput returns the initial selection shown in the UI
func (c *Config) DefaultInput() ScenarioInput {
	tier := c.Defaults.QALYTier
	if tier == "" {
		tier = QALYModerate
	}
	country := c.Defaults.Country
	if country == "" && len(c.Countries) > 0 {
		country = c.Countries[0].Name
	}
	return ScenarioInput{
		Country:    country,
		Severity:   c.Defaults.Severity,
		Levels:     NewAttributeRegistry().DefaultLevels(),
		LivesSaved: c.Defaults.LivesSaved,
		QALYTier:   tier,
	}
}

// WithFixedSetupCost returns a copy of the config with a different fixed setup cost
func (c *Config) WithFixedSetupCost(amount float64) *Config {
	clone := *c
	clone.CostBenefit.QALYPerLife = make(map[QALYTier]float64, len(c.CostBenefit.QALYPerLife))
	for k, v := range c.CostBenefit.QALYPerLife {
		clone.CostBenefit.QALYPerLife[k] = v
	}
	clone.CostBenefit.FixedSetupCost = amount
	return &clone
}
