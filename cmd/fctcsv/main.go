// fctcsv converts a viz-JSON trace file (optionally zstd-compressed) into a
// CSV of per-rank collective completion times, the same way the teacher's
// csvtool converts ArchiveRecord files to CSV.
package main

import (
	"encoding/json"
	"io"
	"log"
	"os"

	"github.com/m-lab/go/rtx"

	"github.com/asu-gkg/htsim-go/stats"
	"github.com/asu-gkg/htsim-go/trace"
	"github.com/asu-gkg/htsim-go/viz"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var logFatal = log.Fatal

// readRecords parses every event record out of a trace array, skipping the
// leading Meta record.
func readRecords(rdr io.Reader) ([]stats.CollectiveRecord, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(rdr).Decode(&raw); err != nil {
		return nil, err
	}
	c := stats.NewCollector(nil)
	for i, r := range raw {
		if i == 0 {
			continue // Meta record
		}
		var e viz.Event
		if err := json.Unmarshal(r, &e); err != nil {
			return nil, err
		}
		c.Emit(e)
	}
	return c.Records(), nil
}

func main() {
	args := os.Args[1:]
	if len(args) != 1 {
		logFatal("Usage: fctcsv <trace.json|trace.json.zst>")
	}

	source, err := trace.OpenEvents(args[0])
	rtx.Must(err, "Could not open file %q", args[0])
	defer source.Close()

	records, err := readRecords(source)
	rtx.Must(err, "Could not read trace events")
	rtx.Must(stats.MarshalCollectiveCSV(os.Stdout, records), "Could not convert trace to CSV")
}
