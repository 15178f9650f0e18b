package rrl

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mres-project/mres/schema"
)

// IDField is the column joining indicator rows to features.
const IDField = "id"

// fieldSpec describes one tagged struct field of a record variant.
type fieldSpec struct {
	name  string
	index int
	rule  string
}

var (
	// fieldTable holds the canonical field order of every hazard, derived from struct tags.
	fieldTable = make(map[schema.Hazard][]fieldSpec, len(schema.AllHazards))

	validate = newValidator()
)

// formulas documents each hazard's formula for display.
var formulas = map[schema.Hazard]string{
	schema.HeatHazard:    "((1 - res_1*res_2*res_3)*m_1 + (1 - rec_1)*m_2) * e_f",
	schema.SeismicHazard: "(1 - res_1^n_1*res_2^n_2*res_3^n_3*res_4^n_4)*m_1 + (1 - rec_1^n_5*rec_2^n_6*rec_3^n_7)*m_2",
	schema.WindHazard:    "(1 - res_1^n_1*res_2^n_2*res_3^n_3)*m_1 + (1 - rec_1^n_4*rec_2^n_5*rec_3^n_6)*m_2",
	schema.FloodHazard:   "(1 - res_1^n_1*res_2^n_2*res_3^n_3*res_4^n_4*res_5^n_5)*m_1 + (1 - rec_1^n_6*rec_2^n_7*rec_3^n_8*rec_4^n_9)*m_2",
}

func init() {
	for _, h := range schema.AllHazards {
		r, _ := newEmpty(h)
		fieldTable[h] = specsOf(reflect.TypeOf(r).Elem())
	}
}

// newValidator reports field errors under their column names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("field")
	})
	return v
}

func newEmpty(h schema.Hazard) (Record, error) {
	switch h {
	case schema.HeatHazard:
		return &Heat{}, nil
	case schema.SeismicHazard:
		return &Seismic{}, nil
	case schema.WindHazard:
		return &Wind{}, nil
	case schema.FloodHazard:
		return &Flood{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHazard, h)
	}
}

func specsOf(t reflect.Type) []fieldSpec {
	specs := make([]fieldSpec, 0, t.NumField())
	for i := range t.NumField() {
		sf := t.Field(i)
		name := sf.Tag.Get("field")
		if name == "" {
			continue
		}
		specs = append(specs, fieldSpec{name: name, index: i, rule: sf.Tag.Get("validate")})
	}
	return specs
}

// RequiredFields returns the columns a hazard table must contain, id first.
func RequiredFields(h schema.Hazard) ([]string, error) {
	specs, ok := fieldTable[h]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHazard, h)
	}
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.name
	}
	return names, nil
}

// IndicatorFields returns the numeric columns of a hazard, without id.
func IndicatorFields(h schema.Hazard) ([]string, error) {
	names, err := RequiredFields(h)
	if err != nil {
		return nil, err
	}
	return names[1:], nil
}

// ValidateHeaders checks that headers contain every required field of the hazard.
// Headers are trimmed and compared exactly. Extra headers are allowed.
func ValidateHeaders(h schema.Hazard, headers []string) error {
	required, err := RequiredFields(h)
	if err != nil {
		return &SchemaError{Hazard: h, Reason: "no indicator schema for this hazard", Err: err}
	}
	present := make(map[string]struct{}, len(headers))
	for _, header := range headers {
		present[strings.TrimSpace(header)] = struct{}{}
	}
	for _, field := range required {
		if _, ok := present[field]; !ok {
			return &SchemaError{Hazard: h, Field: field}
		}
	}
	return nil
}

// NewRecord builds and validates the record variant of a hazard from named values.
func NewRecord(h schema.Hazard, id int, values map[string]float64) (Record, error) {
	r, err := newEmpty(h)
	if err != nil {
		return nil, err
	}
	v := reflect.ValueOf(r).Elem()
	for _, spec := range fieldTable[h] {
		if spec.name == IDField {
			v.Field(spec.index).SetInt(int64(id))
			continue
		}
		value, ok := values[spec.name]
		if !ok {
			return nil, &ValidationError{Hazard: h, ID: id, Field: spec.name, Bound: requiredBound}
		}
		v.Field(spec.index).SetFloat(value)
	}
	if err := Validate(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks every field of the record against its declared bound.
// The first failing field in canonical order is reported.
func Validate(r Record) error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validating %s record %d: %w", r.Hazard(), r.BuildingID(), err)
	}
	first := fieldErrs[0]
	value, _ := first.Value().(float64)
	return &ValidationError{
		Hazard: r.Hazard(),
		ID:     r.BuildingID(),
		Field:  first.Field(),
		Value:  value,
		Bound:  describeBound(ruleFor(r.Hazard(), first.Field())),
	}
}

// Values returns the indicator fields of a record by column name, without id.
func Values(r Record) map[string]float64 {
	specs := fieldTable[r.Hazard()]
	v := reflect.ValueOf(r).Elem()
	values := make(map[string]float64, len(specs))
	for _, spec := range specs {
		if spec.name == IDField {
			continue
		}
		values[spec.name] = v.Field(spec.index).Float()
	}
	return values
}

// Formula returns the human-readable formula of a hazard.
func Formula(h schema.Hazard) string {
	return formulas[h]
}

// Definitions returns the field set and formula of every hazard.
func Definitions() []schema.FieldDefinition {
	defs := make([]schema.FieldDefinition, 0, len(schema.AllHazards))
	for _, h := range schema.AllHazards {
		fields, _ := RequiredFields(h)
		bounds := make(map[string]string, len(fields)-1)
		for _, f := range fields[1:] {
			bounds[f] = Bound(h, f)
		}
		defs = append(defs, schema.FieldDefinition{Hazard: h, Fields: fields, Bounds: bounds, Formula: Formula(h)})
	}
	return defs
}

// Bound returns the interval notation of a field's range, e.g. "[0,1]".
func Bound(h schema.Hazard, field string) string {
	return describeBound(ruleFor(h, field))
}

func ruleFor(h schema.Hazard, field string) string {
	for _, spec := range fieldTable[h] {
		if spec.name == field {
			return spec.rule
		}
	}
	return ""
}

// describeBound turns a validate rule such as "gt=0,lte=1" into "(0,1]".
func describeBound(rule string) string {
	if rule == "" {
		return ""
	}
	lower, upper := "[", "]"
	lo, hi := "", ""
	for part := range strings.SplitSeq(rule, ",") {
		key, val, _ := strings.Cut(part, "=")
		switch key {
		case "gt":
			lower, lo = "(", val
		case "gte":
			lower, lo = "[", val
		case "lt":
			upper, hi = ")", val
		case "lte":
			upper, hi = "]", val
		}
	}
	return lower + lo + "," + hi + upper
}
