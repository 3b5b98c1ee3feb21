package stats

import (
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// WriteCollectiveCSV writes records out in the same gocsv.Marshal style the
// teacher's csvtool uses for snapshot rows, one row per rank-completion of a
// collective.
func WriteCollectiveCSV(path string, records []CollectiveRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return marshalCSV(f, records)
}

// MarshalCollectiveCSV writes records as CSV to w, for callers that want to
// stream to stdout rather than a named file.
func MarshalCollectiveCSV(w io.Writer, records []CollectiveRecord) error {
	return marshalCSV(w, records)
}

// WriteFlowCSV writes per-flow completion records out the same way
// WriteCollectiveCSV does, one row per completed TCP/DCTCP connection.
func WriteFlowCSV(path string, records []FlowRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return marshalCSV(f, records)
}

// MarshalFlowCSV writes records as CSV to w.
func MarshalFlowCSV(w io.Writer, records []FlowRecord) error {
	return marshalCSV(w, records)
}

func marshalCSV(w io.Writer, records interface{}) error {
	return gocsv.Marshal(records, w)
}
