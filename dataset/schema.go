// Package dataset resolves tabular input into model-ready matrices through an
// explicit schema: every column has a role (identifier, target, predictor or
// ignored) fixed once at load time.
package dataset

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/hedonic/pkg/errors"
)

// Role is the part a column plays in the modeling problem.
type Role int

const (
	// RolePredictor columns form the feature matrix.
	RolePredictor Role = iota
	// RoleIdentifier is carried through unchanged and re-attached to predictions.
	RoleIdentifier
	// RoleTarget is the sale price.
	RoleTarget
	// RoleIgnored columns are read but never used.
	RoleIgnored
)

func (r Role) String() string {
	switch r {
	case RolePredictor:
		return "predictor"
	case RoleIdentifier:
		return "identifier"
	case RoleTarget:
		return "target"
	case RoleIgnored:
		return "ignored"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Column is one entry of a schema.
type Column struct {
	Name string
	Role Role
}

// Schema is an ordered list of typed column roles. The order of predictor
// columns in the schema is the column order of every feature matrix built
// from it, whatever the order in the source table.
type Schema struct {
	Columns []Column
}

// SchemaSpec describes a schema by column names.
type SchemaSpec struct {
	Identifier string   `yaml:"identifier"`
	Target     string   `yaml:"target"`
	Predictors []string `yaml:"predictors"`
	Ignore     []string `yaml:"ignore"`
}

// Build resolves the column roles against the header of the training table. When
// Predictors is empty every column that is not the identifier, the target or
// ignored becomes a predictor, in header order.
func (s SchemaSpec) Build(header []string) (Schema, error) {
	const op = "dataset.SchemaSpec.Build"

	if s.Target == "" {
		return Schema{}, errors.NewInvalidArgumentError(op, "target", "target column name is required", s.Target)
	}

	present := make(map[string]bool, len(header))
	for _, h := range header {
		if present[h] {
			return Schema{}, errors.NewInvalidArgumentError(op, "header", "duplicate column", h)
		}
		present[h] = true
	}
	for _, name := range append([]string{s.Identifier, s.Target}, s.Predictors...) {
		if name != "" && !present[name] {
			return Schema{}, errors.NewInvalidArgumentError(op, "column", "not found in header", name)
		}
	}

	ignored := make(map[string]bool, len(s.Ignore))
	for _, name := range s.Ignore {
		ignored[name] = true
	}

	var schema Schema
	if s.Identifier != "" {
		schema.Columns = append(schema.Columns, Column{Name: s.Identifier, Role: RoleIdentifier})
	}
	schema.Columns = append(schema.Columns, Column{Name: s.Target, Role: RoleTarget})

	if len(s.Predictors) > 0 {
		for _, name := range s.Predictors {
			if name == s.Identifier || name == s.Target {
				return Schema{}, errors.NewInvalidArgumentError(op, "predictors", "column already has another role", name)
			}
			schema.Columns = append(schema.Columns, Column{Name: name, Role: RolePredictor})
		}
	} else {
		for _, h := range header {
			switch {
			case h == s.Identifier || h == s.Target:
			case ignored[h]:
				schema.Columns = append(schema.Columns, Column{Name: h, Role: RoleIgnored})
			default:
				schema.Columns = append(schema.Columns, Column{Name: h, Role: RolePredictor})
			}
		}
	}

	if len(schema.Predictors()) == 0 {
		return Schema{}, errors.NewInvalidArgumentError(op, "predictors", "schema has no predictor columns", strings.Join(header, ","))
	}
	return schema, nil
}

// Predictors returns predictor names in schema order.
func (s Schema) Predictors() []string {
	var names []string
	for _, c := range s.Columns {
		if c.Role == RolePredictor {
			names = append(names, c.Name)
		}
	}
	return names
}

// Column returns the first column with the given role.
func (s Schema) Column(role Role) (Column, bool) {
	for _, c := range s.Columns {
		if c.Role == role {
			return c, true
		}
	}
	return Column{}, false
}

// binding maps schema roles to positions of one concrete header.
type binding struct {
	id         int
	target     int
	predictors []int
}

func (s Schema) bind(header []string, requireTarget bool) (binding, error) {
	const op = "dataset.Schema.bind"

	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[h] = i
	}

	b := binding{id: -1, target: -1}
	for _, c := range s.Columns {
		i, ok := pos[c.Name]
		switch c.Role {
		case RoleIdentifier:
			if !ok {
				return b, errors.NewInvalidArgumentError(op, "identifier", "column not found", c.Name)
			}
			b.id = i
		case RoleTarget:
			if ok {
				b.target = i
			} else if requireTarget {
				return b, errors.NewInvalidArgumentError(op, "target", "column not found", c.Name)
			}
		case RolePredictor:
			if !ok {
				return b, errors.NewInvalidArgumentError(op, "predictor", "column not found", c.Name)
			}
			b.predictors = append(b.predictors, i)
		}
	}
	return b, nil
}
