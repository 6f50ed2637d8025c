package forms

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownForm is returned by Get for ids that were never registered.
	ErrUnknownForm = errors.New("forms: unknown form")
	// ErrDuplicateSchema is returned when a form id is registered twice.
	ErrDuplicateSchema = errors.New("forms: duplicate schema")
	// ErrDuplicateField is returned when a schema repeats a field group.
	ErrDuplicateField = errors.New("forms: duplicate field group")
	// ErrEmptyFormID is returned for schemas without an id.
	ErrEmptyFormID = errors.New("forms: empty form id")
)

// FieldSpec declares one input of a form: the block (field group) and the
// action id inside it that carries the value.
type FieldSpec struct {
	FieldGroupID string
	ActionID     string
	Label        string
	Required     bool
}

// Schema lists the fields of a form in declaration order.
type Schema struct {
	FormID string
	Fields []FieldSpec
}

func (s Schema) check() error {
	if strings.TrimSpace(s.FormID) == "" {
		return ErrEmptyFormID
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if _, dup := seen[f.FieldGroupID]; dup {
			return fmt.Errorf("%w: %q in form %q", ErrDuplicateField, f.FieldGroupID, s.FormID)
		}
		seen[f.FieldGroupID] = struct{}{}
	}
	return nil
}

// Registry holds form schemas by id. Registration normally happens at
// startup; reads are safe from concurrent dispatches.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]Schema)}
}

// Register stores a schema. Fields are copied so later caller mutations do
// not leak into the registry.
func (r *Registry) Register(s Schema) error {
	if err := s.check(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[s.FormID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSchema, s.FormID)
	}
	s.Fields = append([]FieldSpec(nil), s.Fields...)
	r.schemas[s.FormID] = s
	return nil
}

// Get returns the schema registered under formID.
func (r *Registry) Get(formID string) (Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[formID]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownForm, formID)
	}
	return s, nil
}

// IDs returns the registered form ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.schemas))
	for id := range r.schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
