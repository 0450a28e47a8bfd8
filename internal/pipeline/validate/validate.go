package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/GoSim-25-26J-441/entity-service/internal/pipeline"
)

// Location says where a field is read from.
type Location string

const (
	Path  Location = "path"
	Query Location = "query"
	Body  Location = "body"
)

// Type is the shape a raw value is coerced to before rules run.
type Type int

const (
	String Type = iota
	Number
	Integer
	Identifier
	Array
	Object
)

// Rule is a validator tag with the message reported when it fails.
type Rule struct {
	Tag     string
	Message string
}

// Field declares how one input is coerced and checked. Rules run in order
// and only the first failure per field is reported.
type Field struct {
	Name     string
	In       Location
	Type     Type
	Required bool
	Trim     bool
	// Message is reported when the value cannot be coerced to Type.
	Message         string
	RequiredMessage string
	Rules           []Rule
	// Items constrains every element of an Array field.
	Items *Field
}

// Schema is the declarative rule set for one route.
type Schema struct {
	Fields []Field
	// AnyOf requires at least one of the named body keys to be present.
	AnyOf        []string
	AnyOfMessage string
}

// Report is the outcome of validating one request.
type Report struct {
	Valid      map[string]any
	Violations []pipeline.FieldViolation
	// MalformedID is set when an identifier failed to parse.
	MalformedID bool
}

var entityNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_]+$`)

// Validator applies schemas using go-playground/validator tags.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("entityname", func(fl validator.FieldLevel) bool {
		return entityNamePattern.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Stage validates the request against s and stores coerced values in
// Context.Valid.
func (v *Validator) Stage(s Schema) pipeline.Stage {
	return pipeline.NewStage("validate", func(c *pipeline.Context) error {
		report := v.Check(s, c)
		c.Valid = report.Valid
		c.Violations = report.Violations
		if len(report.Violations) == 0 {
			return nil
		}
		if report.MalformedID {
			return pipeline.MalformedIdentifier("Invalid ID format", report.Violations)
		}
		return pipeline.Validation(report.Violations)
	})
}

func (v *Validator) Check(s Schema, c *pipeline.Context) Report {
	report := Report{Valid: make(map[string]any)}

	for _, f := range s.Fields {
		raw, present := lookup(c, f)
		if !present {
			if f.Required {
				report.add(f, requiredMessage(f))
			}
			continue
		}

		value, msg := v.field(f, raw)
		if msg != "" {
			report.add(f, msg)
			if f.Type == Identifier {
				report.MalformedID = true
			}
			continue
		}
		report.Valid[f.Name] = value
	}

	if len(s.AnyOf) > 0 && !anyPresent(c.Body, s.AnyOf) {
		report.Violations = append(report.Violations, pipeline.FieldViolation{
			Field:    string(Body),
			Location: string(Body),
			Message:  s.AnyOfMessage,
		})
	}
	return report
}

func (r *Report) add(f Field, msg string) {
	r.Violations = append(r.Violations, pipeline.FieldViolation{
		Field:    f.Name,
		Location: string(f.In),
		Message:  msg,
	})
}

// field coerces raw and runs the rules. It returns the first failure message.
func (v *Validator) field(f Field, raw any) (any, string) {
	value, ok := coerce(f, raw)
	if !ok {
		return nil, typeMessage(f)
	}
	for _, rule := range f.Rules {
		if err := v.v.Var(value, rule.Tag); err != nil {
			return nil, rule.Message
		}
	}
	if f.Type != Array || f.Items == nil {
		return value, ""
	}

	items := value.([]any)
	var strs []string
	if f.Items.Type == String {
		strs = make([]string, 0, len(items))
	}
	for i, item := range items {
		cleaned, msg := v.field(*f.Items, item)
		if msg != "" {
			return nil, msg
		}
		items[i] = cleaned
		if strs != nil {
			strs = append(strs, cleaned.(string))
		}
	}
	if strs != nil {
		return strs, ""
	}
	return items, ""
}

func lookup(c *pipeline.Context, f Field) (any, bool) {
	switch f.In {
	case Path:
		v, ok := c.Params[f.Name]
		return v, ok && v != ""
	case Query:
		if _, ok := c.Query[f.Name]; !ok {
			return nil, false
		}
		return c.Query.Get(f.Name), true
	default:
		v, ok := c.Body[f.Name]
		return v, ok && v != nil
	}
}

func anyPresent(body map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := body[k]; ok {
			return true
		}
	}
	return false
}

func coerce(f Field, raw any) (any, bool) {
	switch f.Type {
	case String:
		s, ok := raw.(string)
		if !ok {
			return nil, false
		}
		if f.Trim {
			s = strings.TrimSpace(s)
		}
		return s, true
	case Number:
		return toFloat(raw)
	case Integer:
		return toInt(raw)
	case Identifier:
		s, ok := raw.(string)
		if !ok {
			return nil, false
		}
		return parseID(s)
	case Array:
		items, ok := raw.([]any)
		if !ok {
			return nil, false
		}
		return append([]any(nil), items...), true
	case Object:
		obj, ok := raw.(map[string]any)
		return obj, ok
	}
	return nil, false
}

func toFloat(raw any) (any, bool) {
	var f float64
	switch t := raw.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		f = parsed
	default:
		return nil, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return f, true
}

func toInt(raw any) (any, bool) {
	switch t := raw.(type) {
	case int:
		return t, true
	case float64:
		if t != math.Trunc(t) || math.Abs(t) > math.MaxInt32 {
			return nil, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil || n > math.MaxInt32 || n < math.MinInt32 {
			return nil, false
		}
		return n, true
	}
	return nil, false
}

// ParseID accepts positive decimal integers only.
func ParseID(s string) (int64, bool) {
	v, ok := parseID(s)
	if !ok {
		return 0, false
	}
	return v.(int64), true
}

func parseID(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, false
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return id, true
}

func typeMessage(f Field) string {
	if f.Message != "" {
		return f.Message
	}
	return fmt.Sprintf("%s is invalid", f.Name)
}

func requiredMessage(f Field) string {
	if f.RequiredMessage != "" {
		return f.RequiredMessage
	}
	return fmt.Sprintf("%s is required", f.Name)
}
