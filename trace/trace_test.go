package trace

import (
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/asu-gkg/htsim-go/viz"
)

func TestWriteAndOpenEventsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	meta := viz.Meta{Kind: viz.KindMeta, Nodes: []viz.MetaNode{{ID: 0, Kind: "host", Name: "h0"}}}
	events := []viz.Event{
		{TNs: 0, Kind: viz.KindTxStart, PktID: 1},
		{TNs: 100, Kind: viz.KindDelivered, PktID: 1},
	}

	if err := WriteEvents(path, meta, events); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}

	r, err := OpenEvents(path)
	if err != nil {
		t.Fatalf("OpenEvents: %v", err)
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("Unmarshal trace array: %v", err)
	}
	if len(raw) != 3 {
		t.Fatalf("trace has %d records, want 3 (meta + 2 events)", len(raw))
	}

	var gotMeta viz.Meta
	if err := json.Unmarshal(raw[0], &gotMeta); err != nil {
		t.Fatalf("Unmarshal meta: %v", err)
	}
	if gotMeta.Kind != viz.KindMeta || len(gotMeta.Nodes) != 1 {
		t.Fatalf("meta = %+v, want kind=meta with 1 node", gotMeta)
	}
}
