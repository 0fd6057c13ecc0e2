package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/MainspringEnergy/tap-quickbase-json/client"
	"github.com/MainspringEnergy/tap-quickbase-json/config"
)

type fakeClient struct {
	tables    []client.Table
	tablesErr error
	fields    map[string][]client.Field
	fieldsErr map[string]error
}

func (f *fakeClient) Tables(ctx context.Context) ([]client.Table, error) {
	return f.tables, f.tablesErr
}

func (f *fakeClient) Fields(ctx context.Context, tableID string) ([]client.Field, error) {
	if err := f.fieldsErr[tableID]; err != nil {
		return nil, err
	}
	return f.fields[tableID], nil
}

func (f *fakeClient) Query(ctx context.Context, req client.QueryRequest) (*client.QueryResponse, error) {
	return nil, errors.New("not implemented")
}

var standardFields = []client.Field{
	{ID: 3, Label: "Record ID#", FieldType: "recordid"},
	{ID: 5, Label: "Title", FieldType: "text"},
	{ID: 9, Label: "Date Modified", FieldType: "timestamp"},
}

func TestDiscoverBuildsEntries(t *testing.T) {
	fc := &fakeClient{
		tables: []client.Table{{ID: "bqtbl1", Name: "Work Orders"}},
		fields: map[string][]client.Field{"bqtbl1": standardFields},
	}

	cat, err := Discover(context.Background(), fc)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(cat.Streams) != 1 {
		t.Fatalf("streams = %d, want 1", len(cat.Streams))
	}

	entry := cat.Streams[0]
	if entry.Stream != "work_orders" {
		t.Errorf("stream name = %q", entry.Stream)
	}
	if entry.ReplicationMethod != config.ReplicationIncremental {
		t.Errorf("method = %q", entry.ReplicationMethod)
	}
	if entry.ReplicationKey != "date_modified" {
		t.Errorf("replication key = %q", entry.ReplicationKey)
	}
	if len(entry.KeyProperties) != 1 || entry.KeyProperties[0] != "record_id_nbr" {
		t.Errorf("key properties = %v", entry.KeyProperties)
	}
	if _, ok := entry.Schema.Properties["title"]; !ok {
		t.Error("schema missing title property")
	}
}

func TestDiscoverFallsBackToFullTable(t *testing.T) {
	fc := &fakeClient{
		tables: []client.Table{{ID: "bqtbl1", Name: "Lookups"}},
		fields: map[string][]client.Field{"bqtbl1": {
			{ID: 3, Label: "Record ID#", FieldType: "recordid"},
			{ID: 5, Label: "Code", FieldType: "text"},
		}},
	}

	cat, err := Discover(context.Background(), fc)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	entry := cat.Streams[0]
	if entry.ReplicationMethod != config.ReplicationFullTable {
		t.Errorf("method = %q, want full table without date_modified", entry.ReplicationMethod)
	}
	if entry.ReplicationKey != "" {
		t.Errorf("replication key = %q, want empty", entry.ReplicationKey)
	}
}

func TestDiscoverSkipsBrokenTables(t *testing.T) {
	fc := &fakeClient{
		tables: []client.Table{
			{ID: "bqbad", Name: "No Key"},
			{ID: "bqgone", Name: "Missing"},
			{ID: "bqok", Name: "Approvals"},
		},
		fields: map[string][]client.Field{
			"bqbad": {{ID: 5, Label: "Title", FieldType: "text"}},
			"bqok":  standardFields,
		},
		fieldsErr: map[string]error{"bqgone": client.ErrTableNotFound},
	}

	cat, err := Discover(context.Background(), fc)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(cat.Streams) != 1 || cat.Streams[0].TableID != "bqok" {
		t.Fatalf("streams = %+v, want only bqok", cat.Streams)
	}
}

func TestDiscoverAbortsOnConnectionFatal(t *testing.T) {
	fc := &fakeClient{
		tables:    []client.Table{{ID: "bqtbl1", Name: "Work Orders"}},
		fieldsErr: map[string]error{"bqtbl1": client.ErrAuthentication},
	}

	if _, err := Discover(context.Background(), fc); !errors.Is(err, client.ErrAuthentication) {
		t.Fatalf("err = %v, want authentication failure to abort discovery", err)
	}
}

func TestPrimaryKey(t *testing.T) {
	if _, err := PrimaryKey([]client.Field{{ID: 5, Label: "Title", FieldType: "text"}}); !errors.Is(err, ErrNoKeyField) {
		t.Errorf("err = %v, want ErrNoKeyField", err)
	}

	_, err := PrimaryKey([]client.Field{
		{ID: 3, Label: "Record ID#", FieldType: "recordid"},
		{ID: 4, Label: "Legacy ID", FieldType: "recordid"},
	})
	if !errors.Is(err, ErrTooManyKeyFields) {
		t.Errorf("err = %v, want ErrTooManyKeyFields", err)
	}

	key, err := PrimaryKey(standardFields)
	if err != nil || key != "record_id_nbr" {
		t.Errorf("key = %q, err = %v", key, err)
	}
}

func TestStreamConfigs(t *testing.T) {
	cat := &Catalog{Streams: []Entry{
		{Stream: "work_orders", TableID: "bqtbl1", ReplicationMethod: config.ReplicationIncremental, ReplicationKey: "date_modified"},
		{Stream: "lookups", TableID: "bqtbl2", ReplicationMethod: config.ReplicationFullTable},
	}}

	streams := cat.StreamConfigs()
	if len(streams) != 2 {
		t.Fatalf("streams = %d", len(streams))
	}
	if streams[0].CursorField != "date_modified" || streams[0].ReplicationMethod != config.ReplicationIncremental {
		t.Errorf("incremental stream config = %+v", streams[0])
	}
	if streams[1].ReplicationMethod != config.ReplicationFullTable {
		t.Errorf("full-table stream config = %+v", streams[1])
	}
}
