// Package stream runs one sync pass for one configured stream: field
// catalog to SCHEMA, filtered paginated rows to RECORDs, bookmark to STATE.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/MainspringEnergy/tap-quickbase-json/catalog"
	"github.com/MainspringEnergy/tap-quickbase-json/client"
	"github.com/MainspringEnergy/tap-quickbase-json/config"
	"github.com/MainspringEnergy/tap-quickbase-json/internal/naming"
	"github.com/MainspringEnergy/tap-quickbase-json/logger"
	"github.com/MainspringEnergy/tap-quickbase-json/message"
	"github.com/MainspringEnergy/tap-quickbase-json/schema"
	"github.com/MainspringEnergy/tap-quickbase-json/state"
)

// ErrCursorFieldNotFound means an incremental stream's configured cursor
// field does not exist in the table's field catalog. Stream-fatal.
var ErrCursorFieldNotFound = errors.New("cursor field not found in table")

type Stream struct {
	cfg       config.StreamConfig
	startDate string
	client    client.Client
	writer    message.Writer
	state     *state.State
}

func New(cfg config.StreamConfig, startDate string, c client.Client, w message.Writer, st *state.State) *Stream {
	return &Stream{
		cfg:       cfg,
		startDate: startDate,
		client:    c,
		writer:    w,
		state:     st,
	}
}

func (s *Stream) Name() string {
	if s.cfg.Name != "" {
		return s.cfg.Name
	}
	return s.cfg.TableID
}

// rowMapping routes one selected field from a row into the emitted record.
type rowMapping struct {
	name   string
	coerce func(any) any
}

// Sync executes the stream's pass: fetch the field catalog, emit SCHEMA,
// build the replication filter, fetch and emit records page by page, then
// emit STATE with the advanced bookmark. Any returned error aborts only
// this stream unless the client classifies it as connection-fatal.
func (s *Stream) Sync(ctx context.Context) error {
	name := s.Name()

	fields, err := s.client.Fields(ctx, s.cfg.TableID)
	if err != nil {
		return fmt.Errorf("fetch field catalog: %w", err)
	}

	selected := selectFields(fields, s.cfg.SelectedFieldIDs)

	properties := make(map[string]*schema.Schema, len(selected))
	mappings := make(map[int]rowMapping, len(selected))
	for _, f := range selected {
		fieldName := naming.Normalize(f.Label)
		m := schema.Lookup(f.FieldType)
		properties[fieldName] = m.Schema
		mappings[f.ID] = rowMapping{name: fieldName, coerce: m.Coerce}
	}

	incremental := s.cfg.ReplicationMethod == config.ReplicationIncremental

	var keyProperties, bookmarkProperties []string
	if len(selected) > 0 {
		keyField, err := catalog.PrimaryKey(fields)
		if err != nil {
			return fmt.Errorf("derive primary key for table %s: %w", s.cfg.TableID, err)
		}
		if _, ok := properties[keyField]; ok {
			keyProperties = []string{keyField}
		}
		if incremental {
			bookmarkProperties = []string{s.cfg.CursorField}
		}
	}

	if err := s.writer.Write(message.NewSchema(name, schema.Object(properties), keyProperties, bookmarkProperties)); err != nil {
		return fmt.Errorf("write schema message: %w", err)
	}

	// A stream with nothing selected still announces itself and commits an
	// unchanged bookmark; it is never skipped silently.
	if len(selected) == 0 {
		logger.Info("stream has no selected fields", "stream", name)
		return s.writeState()
	}

	var where string
	var cursorID int
	if incremental {
		cursorID, err = s.cursorFieldID(fields)
		if err != nil {
			return err
		}
		where = onOrAfter(cursorID, s.bookmark(name))
	}

	queryIDs := queryFieldIDs(selected, cursorID)

	maxKey, err := s.fetchAndEmit(ctx, name, queryIDs, where, cursorID, mappings)
	if err != nil {
		return err
	}

	if incremental && maxKey != "" {
		s.state.Advance(name, maxKey)
	}
	return s.writeState()
}

// fetchAndEmit pulls pages until the reported total is reached, emitting a
// RECORD per row as it goes. Pages are never accumulated. Returns the
// maximum replication-key day observed.
func (s *Stream) fetchAndEmit(ctx context.Context, name string, fieldIDs []int, where string, cursorID int, mappings map[int]rowMapping) (string, error) {
	var maxKey string
	skip := 0
	cursorKey := strconv.Itoa(cursorID)

	logger.Info("fetching data", "stream", name, "table", s.cfg.TableID)

	for {
		resp, err := s.client.Query(ctx, client.QueryRequest{
			TableID:     s.cfg.TableID,
			FieldIDs:    fieldIDs,
			Where:       where,
			SortFieldID: cursorID,
			Skip:        skip,
		})
		if err != nil {
			return "", fmt.Errorf("fetch records: %w", err)
		}

		for _, row := range resp.Data {
			record := make(map[string]any, len(row))
			for rawID, cell := range row {
				fieldID, err := strconv.Atoi(rawID)
				if err != nil {
					continue
				}
				m, ok := mappings[fieldID]
				if !ok {
					continue
				}
				record[m.name] = m.coerce(cell.Value)
			}

			if err := s.writer.Write(message.NewRecord(name, record)); err != nil {
				return "", fmt.Errorf("write record message: %w", err)
			}

			if cursorID != 0 {
				if raw, ok := row[cursorKey].Value.(string); ok {
					if day := state.DateOnly(raw); day > maxKey {
						maxKey = day
					}
				}
			}
		}

		skip += resp.Metadata.NumRecords
		logger.Info("retrieved records", "stream", name, "fetched", skip, "total", resp.Metadata.TotalRecords)

		if resp.Metadata.NumRecords == 0 || skip >= resp.Metadata.TotalRecords {
			return maxKey, nil
		}
	}
}

func (s *Stream) writeState() error {
	if err := s.writer.Write(message.NewState(s.state)); err != nil {
		return fmt.Errorf("write state message: %w", err)
	}
	return nil
}

// bookmark resolves the stream's starting cursor: the persisted bookmark,
// or the configured global start date on a first run.
func (s *Stream) bookmark(name string) string {
	if b, ok := s.state.Get(name); ok {
		return b
	}
	return state.DateOnly(s.startDate)
}

func (s *Stream) cursorFieldID(fields []client.Field) (int, error) {
	for _, f := range fields {
		if naming.Normalize(f.Label) == s.cfg.CursorField {
			return f.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %s in table %s", ErrCursorFieldNotFound, s.cfg.CursorField, s.cfg.TableID)
}

// onOrAfter builds the Quickbase query-language clause selecting rows whose
// cursor field is on or after the bookmark day. OAF only takes dates, so a
// run started mid-day re-fetches that whole day; duplicates downstream are
// the documented cost of resumability here.
func onOrAfter(fieldID int, date string) string {
	return fmt.Sprintf("{'%d'.OAF.'%s'}", fieldID, date)
}

func selectFields(fields []client.Field, selectedIDs []int) []client.Field {
	if selectedIDs == nil {
		return fields
	}

	wanted := make(map[int]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		wanted[id] = struct{}{}
	}

	selected := make([]client.Field, 0, len(selectedIDs))
	for _, f := range fields {
		if _, ok := wanted[f.ID]; ok {
			selected = append(selected, f)
		}
	}
	return selected
}

// queryFieldIDs is the sorted select list for the record query. The cursor
// field rides along even when deselected: the bookmark needs its value,
// though it stays out of the emitted records.
func queryFieldIDs(selected []client.Field, cursorID int) []int {
	ids := make([]int, 0, len(selected)+1)
	seen := false
	for _, f := range selected {
		ids = append(ids, f.ID)
		if f.ID == cursorID {
			seen = true
		}
	}
	if cursorID != 0 && !seen {
		ids = append(ids, cursorID)
	}
	sort.Ints(ids)
	return ids
}
