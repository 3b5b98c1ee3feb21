package trace

import (
	"errors"
	"os"
	"testing"
)

func TestNewWriterErrorOnOsPipe(t *testing.T) {
	osPipe = func() (*os.File, *os.File, error) {
		return nil, nil, errors.New("error for testing")
	}
	defer func() { osPipe = os.Pipe }()

	_, err := NewWriter("file")
	if err == nil {
		t.Error("should have failed when os.Pipe fails")
	}
}

func TestNewWriterErrorOnUncreatableFile(t *testing.T) {
	_, err := NewWriter("/this/file/is/uncreatable/file.zst")
	if err == nil {
		t.Error("should have failed on an uncreatable file")
	}
}

func TestZstdFailure(t *testing.T) {
	dir := t.TempDir()

	zstdCommand = "/this/binary/is/nonexistent"
	defer func() { zstdCommand = "zstd" }()

	wc, err := NewWriter(dir + "/file.zst")
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	wc.Close()
	if err := wc.Close(); err == nil {
		t.Error("closing the pipe twice should surface an error")
	}
}
