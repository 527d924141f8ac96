package codec

import (
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

// Record is one asset entry of a pack. Raw holds the full encoded record
// when it was read from an existing pack.
type Record struct {
	ID      uint64
	Kind    resources.AssetKind
	Name    string
	Payload []byte
	Raw     []byte
}

// EncodeRecord lays out id u64, kind u16, name, payload_len u32, payload.
func EncodeRecord(id uint64, kind resources.AssetKind, name string, payload []byte) []byte {
	w := NewWriter(8 + 2 + 4 + len(name) + 4 + len(payload))
	w.U64(id)
	w.U16(uint16(kind))
	w.Str(name)
	w.U32(uint32(len(payload)))
	w.Raw(payload)
	return w.Bytes()
}

// ReadRecord consumes one record from r. Payload and Raw share memory with the reader buffer.
func ReadRecord(r *Reader) (Record, error) {
	start := r.Offset()
	rec := Record{
		ID:   r.U64(),
		Kind: resources.AssetKind(r.U16()),
		Name: r.Str(),
	}
	n := r.Count(1)
	rec.Payload = r.take(n)
	if r.Err() != nil {
		return Record{}, r.Err()
	}
	rec.Raw = r.buf[start:r.Offset()]
	return rec, nil
}
