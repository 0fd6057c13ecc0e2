// Package schema maps Quickbase field types onto JSON-schema fragments and
// value-coercion rules used when serializing record values.
package schema

// Schema is a JSON-schema fragment describing one field, or a whole stream
// when it carries Properties.
type Schema struct {
	Type       []string           `json:"type,omitempty"`
	Format     string             `json:"format,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty"`
}

func simple(typ string) *Schema {
	return &Schema{Type: []string{typ, "null"}}
}

func formatted(typ, format string) *Schema {
	return &Schema{Type: []string{typ, "null"}, Format: format}
}

// Object builds a stream-level schema from per-field property schemas.
// Fields are never required: Quickbase omits empty cells.
func Object(properties map[string]*Schema) *Schema {
	return &Schema{
		Type:       []string{"object"},
		Properties: properties,
	}
}

func userObject() *Schema {
	return &Schema{
		Type: []string{"object", "null"},
		Properties: map[string]*Schema{
			"email":    simple("string"),
			"id":       simple("string"),
			"name":     simple("string"),
			"userName": simple("string"),
		},
	}
}

// Mapping pairs the interchange schema fragment for a Quickbase field type
// with the coercion applied to raw cell values of that type.
type Mapping struct {
	Schema *Schema
	Coerce func(any) any
}

// Lookup resolves a Quickbase field-type tag to its interchange mapping.
// Unrecognized tags deliberately fall back to an opaque string rather than
// failing: a new Quickbase field type must not halt a whole sync run.
func Lookup(fieldType string) Mapping {
	switch fieldType {
	case "checkbox":
		return Mapping{Schema: simple("boolean"), Coerce: coerceBool}
	case "currency", "numeric", "percent", "rating":
		return Mapping{Schema: simple("number"), Coerce: coerceNumber}
	case "duration", "recordid":
		return Mapping{Schema: simple("integer"), Coerce: coerceInteger}
	case "date":
		return Mapping{Schema: formatted("string", "date"), Coerce: coerceIdentity}
	case "timestamp", "datetime":
		return Mapping{Schema: formatted("string", "date-time"), Coerce: coerceDateTime}
	case "timeofday":
		return Mapping{Schema: formatted("string", "time"), Coerce: coerceIdentity}
	case "multitext":
		return Mapping{Schema: &Schema{Type: []string{"array", "null"}, Items: simple("string")}, Coerce: coerceIdentity}
	case "user":
		return Mapping{Schema: userObject(), Coerce: coerceIdentity}
	case "multiuser":
		return Mapping{Schema: &Schema{Type: []string{"array", "null"}, Items: userObject()}, Coerce: coerceIdentity}
	default:
		// text, file, and anything Quickbase invents later
		return Mapping{Schema: simple("string"), Coerce: coerceString}
	}
}
