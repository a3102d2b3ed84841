package gateway

import (
	"sync"

	"github.com/loomworks/authcore/validation"
)

// Builtin schema names.
const (
	SchemaLogin          = "login"
	SchemaChangePassword = "changePassword"
	SchemaOrderQuery     = "orderQuery"
)

// Schema names the required fields and rule overrides for one operation's
// parameters. Fields without an override fall back to the shared rule
// table.
type Schema struct {
	Required []string
	Rules    validation.RuleSet
}

// SchemaRegistry holds named validation schemas. The CRUD handlers
// register their own alongside the builtins.
type SchemaRegistry struct {
	mu      sync.RWMutex
	schemas map[string]Schema
}

// NewSchemaRegistry creates a registry seeded with the builtin schemas.
func NewSchemaRegistry() *SchemaRegistry {
	r := &SchemaRegistry{schemas: make(map[string]Schema)}
	r.Register(SchemaLogin, Schema{
		Required: []string{"orgCode", "username", "password"},
		Rules: validation.RuleSet{
			"password": {
				Required:  true,
				Type:      validation.TypeString,
				MinLength: 8,
				MaxLength: 72,
			},
		},
	})
	r.Register(SchemaChangePassword, Schema{
		Required: []string{"currentPassword", "newPassword"},
		Rules: validation.RuleSet{
			"currentPassword": {
				Required:  true,
				Type:      validation.TypeString,
				MaxLength: 72,
			},
			"newPassword": {
				Required:  true,
				Type:      validation.TypeString,
				MinLength: 8,
				MaxLength: 72,
			},
		},
	})
	r.Register(SchemaOrderQuery, Schema{
		Required: nil,
		Rules:    validation.RuleSet{},
	})
	return r
}

// Register adds or replaces a schema.
func (r *SchemaRegistry) Register(name string, schema Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[name] = schema
}

// Lookup returns the named schema.
func (r *SchemaRegistry) Lookup(name string) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}
