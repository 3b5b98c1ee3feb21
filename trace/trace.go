package trace

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/asu-gkg/htsim-go/viz"
)

// WriteEvents writes meta followed by every event to path as a JSON array,
// piping through an external zstd process when path ends in .zst.
func WriteEvents(path string, meta viz.Meta, events []viz.Event) error {
	w, closer, err := openWriter(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	if _, err := w.Write([]byte("[\n")); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(meta); err != nil {
		return err
	}
	for _, e := range events {
		if _, err := w.Write([]byte(",")); err != nil {
			return err
		}
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	_, err = w.Write([]byte("]\n"))
	return err
}

// openWriter opens path directly, or pipes writes through an external zstd
// process when path ends in .zst, matching cmd/csvtool's symmetric openFile
// convention for reads.
func openWriter(path string) (io.Writer, io.Closer, error) {
	if strings.HasSuffix(path, ".zst") {
		w, err := NewWriter(path)
		if err != nil {
			return nil, nil, err
		}
		return w, w, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

// OpenEvents opens path for reading, transparently decompressing when path
// ends in .zst.
func OpenEvents(path string) (io.ReadCloser, error) {
	if strings.HasSuffix(path, ".zst") {
		return NewReader(path), nil
	}
	return os.Open(path)
}
