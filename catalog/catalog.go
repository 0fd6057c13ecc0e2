// Package catalog discovers the streams available in a Quickbase app: one
// stream per table, with an inferred primary key and replication key.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/MainspringEnergy/tap-quickbase-json/client"
	"github.com/MainspringEnergy/tap-quickbase-json/config"
	"github.com/MainspringEnergy/tap-quickbase-json/internal/naming"
	"github.com/MainspringEnergy/tap-quickbase-json/logger"
	"github.com/MainspringEnergy/tap-quickbase-json/schema"
)

var (
	ErrNoKeyField       = errors.New("no record-id key field")
	ErrTooManyKeyFields = errors.New("multiple record-id key fields")
	ErrNoReplicationKey = errors.New("no date_modified field")
)

type Entry struct {
	Stream            string                   `json:"stream"`
	TableID           string                   `json:"table_id"`
	Schema            *schema.Schema           `json:"schema"`
	KeyProperties     []string                 `json:"key_properties"`
	ReplicationKey    string                   `json:"replication_key,omitempty"`
	ReplicationMethod config.ReplicationMethod `json:"replication_method"`
}

type Catalog struct {
	Streams []Entry `json:"streams"`
}

// StreamConfigs converts discovered entries into the sync configuration
// consumed by the orchestrator.
func (c *Catalog) StreamConfigs() []config.StreamConfig {
	streams := make([]config.StreamConfig, 0, len(c.Streams))
	for _, e := range c.Streams {
		streams = append(streams, config.StreamConfig{
			TableID:           e.TableID,
			Name:              e.Stream,
			ReplicationMethod: e.ReplicationMethod,
			CursorField:       e.ReplicationKey,
		})
	}
	return streams
}

// Discover lists the app's tables and derives a catalog entry per table.
// A table whose field catalog cannot be interpreted is logged and skipped;
// only a connection-fatal client error aborts discovery.
func Discover(ctx context.Context, c client.Client) (*Catalog, error) {
	tables, err := c.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover tables: %w", err)
	}

	cat := &Catalog{Streams: make([]Entry, 0, len(tables))}
	for _, table := range tables {
		entry, err := discoverTable(ctx, c, table)
		if err != nil {
			if client.IsConnectionFatal(err) {
				return nil, err
			}
			logger.Warn("skipping table during discovery", "table", table.ID, "name", table.Name, "error", err)
			continue
		}
		cat.Streams = append(cat.Streams, *entry)
	}

	logger.Info("discovery completed", "tables", len(tables), "streams", len(cat.Streams))
	return cat, nil
}

func discoverTable(ctx context.Context, c client.Client, table client.Table) (*Entry, error) {
	fields, err := c.Fields(ctx, table.ID)
	if err != nil {
		return nil, err
	}

	keyField, err := PrimaryKey(fields)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		Stream:            naming.Normalize(table.Name),
		TableID:           table.ID,
		Schema:            BuildSchema(fields),
		KeyProperties:     []string{keyField},
		ReplicationMethod: config.ReplicationIncremental,
	}

	replicationKey, err := ReplicationKey(fields)
	if err != nil {
		// Without a date_modified field the table can still sync, just
		// not incrementally.
		logger.Warn("table has no replication key, falling back to full-table sync", "table", table.ID, "name", table.Name)
		entry.ReplicationMethod = config.ReplicationFullTable
	} else {
		entry.ReplicationKey = replicationKey
	}

	return entry, nil
}

// BuildSchema maps a field catalog into a stream-level JSON schema keyed by
// normalized field labels.
func BuildSchema(fields []client.Field) *schema.Schema {
	properties := make(map[string]*schema.Schema, len(fields))
	for _, f := range fields {
		properties[naming.Normalize(f.Label)] = schema.Lookup(f.FieldType).Schema
	}
	return schema.Object(properties)
}

// PrimaryKey returns the normalized name of the table's record-id field.
// Quickbase tables carry exactly one; anything else is a misconfiguration
// the sync cannot work around.
func PrimaryKey(fields []client.Field) (string, error) {
	var keys []string
	for _, f := range fields {
		if f.FieldType == "recordid" {
			keys = append(keys, naming.Normalize(f.Label))
		}
	}

	switch len(keys) {
	case 1:
		return keys[0], nil
	case 0:
		return "", ErrNoKeyField
	default:
		return "", fmt.Errorf("%w: %v", ErrTooManyKeyFields, keys)
	}
}

// ReplicationKey returns the normalized name of the field used as the
// incremental cursor, conventionally the built-in Date Modified field.
func ReplicationKey(fields []client.Field) (string, error) {
	for _, f := range fields {
		if naming.Normalize(f.Label) == config.DefaultCursorField {
			return config.DefaultCursorField, nil
		}
	}
	return "", ErrNoReplicationKey
}
