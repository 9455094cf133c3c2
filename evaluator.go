package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/gowebpki/jcs"
)

// Evaluator runs the probability, cost-benefit and recommendation steps
// against one configuration. It holds no mutable state and is safe for
// concurrent use.
type Evaluator struct {
	config      *Config
	recommender *Recommender
}

// NewEvaluator compiles the recommendation rules of cfg
func NewEvaluator(cfg *Config) (*Evaluator, error) {
	rec, err := NewRecommender(cfg.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}
	return &Evaluator{config: cfg, recommender: rec}, nil
}

// Config returns the configuration the evaluator was built with
func (e *Evaluator) Config() *Config {
	return e.config
}

// Validate rejects inputs the pipeline cannot evaluate. It does not check
// whether coefficients exist for the context.
func (e *Evaluator) Validate(in ScenarioInput) error {
	if e.config.FindCountry(in.Country) == nil {
		return &InvalidSelectionError{Field: "country", Value: in.Country}
	}
	if !in.Severity.Valid() {
		return &InvalidSelectionError{Field: "severity", Value: in.Severity.String()}
	}
	if err := in.Levels.Validate(); err != nil {
		return err
	}
	if in.LivesSaved < 0 || (e.config.MaxLivesSaved() > 0 && in.LivesSaved > e.config.MaxLivesSaved()) {
		return &InvalidSelectionError{Field: "lives_saved", Value: strconv.Itoa(in.LivesSaved)}
	}
	if _, ok := e.config.CostBenefit.QALYPerLife[in.QALYTier]; !ok {
		return &InvalidSelectionError{Field: "qaly_tier", Value: string(in.QALYTier)}
	}
	return nil
}

// Evaluate runs the full pipeline. Nothing past the coefficient lookup runs
// if it fails. The same input and config always produce the same Evaluation.
func (e *Evaluator) Evaluate(in ScenarioInput) (Evaluation, error) {
	if err := e.Validate(in); err != nil {
		return Evaluation{}, err
	}
	coefs, err := e.config.Coefficients(in.Key())
	if err != nil {
		return Evaluation{}, err
	}
	cur, err := e.config.Currency(in.Country)
	if err != nil {
		return Evaluation{}, err
	}

	p, err := ComputeUptakeProbability(coefs, in.Levels, in.LivesSaved)
	if err != nil {
		return Evaluation{}, err
	}
	mandate, optOut := Utilities(coefs, in.Levels, in.LivesSaved)

	result, err := ComputeCostBenefit(p, in.LivesSaved, in.QALYTier, cur, e.config.CostBenefit)
	if err != nil {
		return Evaluation{}, err
	}

	rec, err := e.recommender.Recommend(in, result.PredictedUptakePercent)
	if err != nil {
		return Evaluation{}, err
	}

	fp, err := Fingerprint(in)
	if err != nil {
		return Evaluation{}, err
	}

	return Evaluation{
		Input:          in,
		UtilityMandate: mandate,
		UtilityOptOut:  optOut,
		Probability:    p,
		Result:         result,
		Recommendation: rec,
		Fingerprint:    fp,
	}, nil
}

// CostBreakdown itemises the configured cost lines for an evaluation
func (e *Evaluator) CostBreakdown(ev Evaluation) []CostItem {
	return CostBreakdown(ev.Probability, e.config.CostBenefit, e.config.CostItems)
}

// WTS returns the published table for a context and the values derived from
// its coefficients
func (e *Evaluator) WTS(key ContextKey) (published, derived []WTSEntry, err error) {
	coefs, err := e.config.Coefficients(key)
	if err != nil {
		return nil, nil, err
	}
	published, err = e.config.PublishedWTS(key)
	if err != nil {
		published = nil
	}
	return published, DeriveWTS(coefs), nil
}

// Fingerprint is the hex SHA-256 of the RFC 8785 canonical JSON of in
func Fingerprint(in ScenarioInput) (string, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal input: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize input: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// WTSForScenarios collects a WTS table for every context used by scenarios,
// preferring the published estimates
func (e *Evaluator) WTSForScenarios(scenarios []SavedScenario) map[ContextKey][]WTSEntry {
	out := make(map[ContextKey][]WTSEntry)
	for _, s := range scenarios {
		key := s.Evaluation.Input.Key()
		if _, ok := out[key]; ok {
			continue
		}
		published, derived, err := e.WTS(key)
		if err != nil {
			continue
		}
		if len(published) > 0 {
			out[key] = published
		} else {
			out[key] = derived
		}
	}
	return out
}
