package main

// AttributeID identifies one policy attribute group
type AttributeID string

const (
	AttributeScope     AttributeID = "scope"
	AttributeExemption AttributeID = "exemption"
	AttributeCoverage  AttributeID = "coverage"
)

// AttributeValue is one selectable level within an attribute group
type AttributeValue struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Value     any    `json:"-"` // Scope, Exemption or Coverage
}

// Attribute is a single-choice policy attribute group
type Attribute struct {
	ID             AttributeID      `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Values         []AttributeValue `json:"values"`
	DefaultValueID string           `json:"default"`
}

// AttributeRegistry holds the policy attributes and generates combinations
type AttributeRegistry struct {
	attributes map[AttributeID]*Attribute
	order      []AttributeID // Determines generation order
}

// NewAttributeRegistry creates a registry with the three mandate attributes
func NewAttributeRegistry() *AttributeRegistry {
	r := &AttributeRegistry{
		attributes: make(map[AttributeID]*Attribute),
		order:      make([]AttributeID, 0),
	}

	r.Register(&Attribute{
		ID:          AttributeScope,
		Name:        "Scope",
		Description: "Which occupations the mandate applies to",
		Values: []AttributeValue{
			{ID: "reference", Name: ScopeReference.String(), ShortName: "HiRisk", Value: ScopeReference},
			{ID: "all_occupations", Name: ScopeAllOccupations.String(), ShortName: "All", Value: ScopeAllOccupations},
		},
		DefaultValueID: "reference",
	})

	r.Register(&Attribute{
		ID:          AttributeExemption,
		Name:        "Exemption Policy",
		Description: "Grounds on which people may be exempted",
		Values: []AttributeValue{
			{ID: "none", Name: ExemptionNone.String(), ShortName: "Med", Value: ExemptionNone},
			{ID: "medical_religious", Name: ExemptionMedicalReligious.String(), ShortName: "MedRel", Value: ExemptionMedicalReligious},
			{ID: "broad", Name: ExemptionBroad.String(), ShortName: "Broad", Value: ExemptionBroad},
		},
		DefaultValueID: "none",
	})

	r.Register(&Attribute{
		ID:          AttributeCoverage,
		Name:        "Coverage Requirement",
		Description: "Vaccination coverage at which the mandate is lifted",
		Values: []AttributeValue{
			{ID: "none", Name: CoverageNone.String(), ShortName: "Ref", Value: CoverageNone},
			{ID: "70", Name: CoverageSeventy.String(), ShortName: "70", Value: CoverageSeventy},
			{ID: "90", Name: CoverageNinety.String(), ShortName: "90", Value: CoverageNinety},
		},
		DefaultValueID: "none",
	})

	return r
}

// Register adds an attribute to the registry
func (r *AttributeRegistry) Register(a *Attribute) {
	r.attributes[a.ID] = a
	r.order = append(r.order, a.ID)
}

// Get returns an attribute by ID
func (r *AttributeRegistry) Get(id AttributeID) *Attribute {
	return r.attributes[id]
}

// GetAll returns all attributes in registration order
func (r *AttributeRegistry) GetAll() []*Attribute {
	result := make([]*Attribute, len(r.order))
	for i, id := range r.order {
		result[i] = r.attributes[id]
	}
	return result
}

// DefaultLevels returns the reference level of every attribute
func (r *AttributeRegistry) DefaultLevels() AttributeLevels {
	var levels AttributeLevels
	for _, a := range r.GetAll() {
		for _, v := range a.Values {
			if v.ID == a.DefaultValueID {
				levels = levels.with(v)
				break
			}
		}
	}
	return levels
}

// Combinations enumerates every AttributeLevels the registry can produce,
// the first attribute varying slowest
func (r *AttributeRegistry) Combinations() []AttributeLevels {
	combos := []AttributeLevels{{}}
	for _, a := range r.GetAll() {
		next := make([]AttributeLevels, 0, len(combos)*len(a.Values))
		for _, c := range combos {
			for _, v := range a.Values {
				next = append(next, c.with(v))
			}
		}
		combos = next
	}
	return combos
}

// with returns l with the level carried by v applied
func (l AttributeLevels) with(v AttributeValue) AttributeLevels {
	switch val := v.Value.(type) {
	case Scope:
		l.Scope = val
	case Exemption:
		l.Exemption = val
	case Coverage:
		l.Coverage = val
	}
	return l
}
