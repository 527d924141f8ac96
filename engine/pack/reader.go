package pack

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spaghettifunk/anima-packer/engine/codec"
	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/math"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

var (
	ErrBadMagic           = fmt.Errorf("%w: bad pack magic", core.ErrCorruptInput)
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported pack version", core.ErrCorruptInput)
	ErrTruncated          = codec.ErrTruncated
)

// Header is the fixed prefix of a pack file.
type Header struct {
	Version uint32
	Count   uint32
}

// Entry is a record of a previous pack, kept so an unchanged source can be
// emitted again without re-encoding.
type Entry struct {
	ID   uint64
	Kind resources.AssetKind
	Raw  []byte
}

// Index maps asset names to the records of a previous pack.
type Index map[string]Entry

func (idx Index) Lookup(name string) (Entry, bool) {
	e, ok := idx[name]
	return e, ok
}

func readHeader(r *codec.Reader) (Header, error) {
	magic := r.Raw(len(resources.PackMagic))
	if r.Err() != nil {
		return Header{}, ErrBadMagic
	}
	if !bytes.Equal(magic, []byte(resources.PackMagic)) {
		return Header{}, ErrBadMagic
	}
	h := Header{Version: r.U32(), Count: r.U32()}
	if err := r.Err(); err != nil {
		return Header{}, err
	}
	if h.Version != resources.PackVersion {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	return h, nil
}

// ReadAll parses a whole pack and returns its records in file order.
func ReadAll(data []byte) (Header, []codec.Record, error) {
	r := codec.NewReader(data)
	h, err := readHeader(r)
	if err != nil {
		return Header{}, nil, err
	}
	records := make([]codec.Record, 0, math.Clamp(int(h.Count), 0, r.Remaining()/18))
	for i := uint32(0); i < h.Count; i++ {
		rec, err := codec.ReadRecord(r)
		if err != nil {
			return Header{}, nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	if err := r.Done(); err != nil {
		return Header{}, nil, err
	}
	return h, records, nil
}

// ReadIndex builds a name index of a pack. With duplicate names the last
// record wins.
func ReadIndex(data []byte) (Index, error) {
	_, records, err := ReadAll(data)
	if err != nil {
		return nil, err
	}
	idx := make(Index, len(records))
	for _, rec := range records {
		idx[rec.Name] = Entry{ID: rec.ID, Kind: rec.Kind, Raw: rec.Raw}
	}
	return idx, nil
}

// ReadIndexFile indexes the pack at path. A missing file is an empty index.
func ReadIndexFile(path string) (Index, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Index{}, nil
	}
	if err != nil {
		return nil, err
	}
	return ReadIndex(data)
}
