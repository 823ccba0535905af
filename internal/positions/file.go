package positions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// FileSource reads a JSON Document from disk, or stdin when Path is "-".
type FileSource struct {
	Path string
}

// Load implements Source.
func (f FileSource) Load(ctx context.Context) (*Snapshot, error) {
	var r io.Reader
	if f.Path == "-" {
		r = os.Stdin
	} else {
		file, err := os.Open(f.Path)
		if err != nil {
			return nil, fmt.Errorf("open positions file: %w", err)
		}
		defer file.Close()
		r = file
	}
	return Decode(r)
}

// Decode parses a JSON Document into a snapshot.
func Decode(r io.Reader) (*Snapshot, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	return FromDocument(doc)
}
