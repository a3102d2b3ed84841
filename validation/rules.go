package validation

import "regexp"

// FieldType is the expected primitive type of a field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeEmail   FieldType = "email"
)

// Rule describes the constraints for a single named field. Zero values
// mean "no constraint" except Required.
type Rule struct {
	Required  bool
	Type      FieldType
	MinLength int
	MaxLength int
	Min       *float64
	Max       *float64
	Pattern   *regexp.Regexp
	Enum      []string
	// Message overrides the generated error message for any failure.
	Message string
}

// RuleSet maps field names to their rules.
type RuleSet map[string]Rule

// Merge returns a rule set combining r with overrides; overrides win on
// field-name collisions. Neither input is modified.
func (r RuleSet) Merge(overrides RuleSet) RuleSet {
	merged := make(RuleSet, len(r)+len(overrides))
	for name, rule := range r {
		merged[name] = rule
	}
	for name, rule := range overrides {
		merged[name] = rule
	}
	return merged
}

func numPtr(f float64) *float64 { return &f }

// BuiltinRules is the default rule table shared by every handler in the
// order management backend. Handlers pass schema-specific overrides to
// ValidateParams when a field needs tighter constraints.
var BuiltinRules = RuleSet{
	"username": {
		Type:      TypeString,
		MinLength: 3,
		MaxLength: 32,
		Pattern:   regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`),
		Message:   "username must be 3-32 characters of letters, digits, underscore, dot, or dash",
	},
	"password": {
		Type:      TypeString,
		MinLength: 8,
		MaxLength: 72,
	},
	"orgCode": {
		Type:      TypeString,
		MinLength: 2,
		MaxLength: 16,
		Pattern:   regexp.MustCompile(`^[A-Z0-9]+$`),
		Message:   "orgCode must be 2-16 uppercase letters or digits",
	},
	"email": {
		Type:      TypeEmail,
		MaxLength: 254,
	},
	"phone": {
		Type:      TypeString,
		Pattern:   regexp.MustCompile(`^\+?[0-9-]{6,20}$`),
		Message:   "phone must be a valid phone number",
	},
	"orderNo": {
		Type:      TypeString,
		MaxLength: 64,
		Pattern:   regexp.MustCompile(`^[A-Za-z0-9-]+$`),
	},
	"factoryName": {
		Type:      TypeString,
		MinLength: 1,
		MaxLength: 128,
	},
	"remark": {
		Type:      TypeString,
		MaxLength: 512,
	},
	"page": {
		Type: TypeNumber,
		Min:  numPtr(1),
	},
	"pageSize": {
		Type: TypeNumber,
		Min:  numPtr(1),
		Max:  numPtr(100),
	},
	"status": {
		Type: TypeString,
		Enum: []string{"draft", "sent", "received", "settled", "cancelled"},
	},
}
