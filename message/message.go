// Package message defines the three interchange message kinds exchanged
// between the extract and load stages: SCHEMA, RECORD and STATE.
package message

import (
	"github.com/MainspringEnergy/tap-quickbase-json/schema"
	"github.com/MainspringEnergy/tap-quickbase-json/state"
)

type Type string

const (
	TypeSchema Type = "SCHEMA"
	TypeRecord Type = "RECORD"
	TypeState  Type = "STATE"
)

// Message is one framed interchange message. Per stream the required order
// is exactly one SCHEMA, then every RECORD, then exactly one STATE.
//
// RECORD payloads deliberately carry no extraction timestamp so that
// re-running an unchanged stream reproduces byte-identical output.
type Message struct {
	Type               Type           `json:"type"`
	Stream             string         `json:"stream,omitempty"`
	Schema             *schema.Schema `json:"schema,omitempty"`
	Record             map[string]any `json:"record,omitempty"`
	Value              *state.State   `json:"value,omitempty"`
	KeyProperties      []string       `json:"key_properties,omitempty"`
	BookmarkProperties []string       `json:"bookmark_properties,omitempty"`
}

func NewSchema(stream string, s *schema.Schema, keyProperties, bookmarkProperties []string) *Message {
	return &Message{
		Type:               TypeSchema,
		Stream:             stream,
		Schema:             s,
		KeyProperties:      keyProperties,
		BookmarkProperties: bookmarkProperties,
	}
}

func NewRecord(stream string, record map[string]any) *Message {
	return &Message{
		Type:   TypeRecord,
		Stream: stream,
		Record: record,
	}
}

func NewState(s *state.State) *Message {
	return &Message{
		Type:  TypeState,
		Value: s,
	}
}
