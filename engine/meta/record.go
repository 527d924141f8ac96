package meta

import (
	"encoding/json"
	"fmt"

	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/math"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

const (
	keyHash             = "hash"
	keyAssetID          = "asset_id"
	keySkeleton         = "skeleton"
	keyOverrideSkeletal = "override_skeletal"
	keySockets          = "sockets"
)

// SocketSpec is a socket as written in a sidecar. Transform holds 16
// row-major floats.
type SocketSpec struct {
	Name      string    `json:"name"`
	Bone      string    `json:"bone"`
	Transform []float32 `json:"transform"`
}

// Record is the typed content of a sidecar file. Keys the packer does not
// know about are kept in Extra and written back untouched.
type Record struct {
	Hash             string
	AssetID          uint64
	Skeleton         string
	OverrideSkeletal *bool
	Sockets          []SocketSpec
	Extra            map[string]json.RawMessage
}

// HasID reports whether a previous build assigned an id.
func (r *Record) HasID() bool {
	return r.AssetID != core.InvalidID
}

// SocketList converts the sidecar sockets into resources.Socket values.
func (r *Record) SocketList() ([]resources.Socket, error) {
	out := make([]resources.Socket, 0, len(r.Sockets))
	for _, s := range r.Sockets {
		m, ok := math.NewMat4FromSlice(s.Transform)
		if !ok {
			return nil, fmt.Errorf("%w: socket %q transform has %d values, want 16", core.ErrCorruptInput, s.Name, len(s.Transform))
		}
		out = append(out, resources.Socket{Name: s.Name, Bone: s.Bone, Transform: m})
	}
	return out, nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = Record{}
	decode := func(key string, dst interface{}) error {
		raw, ok := fields[key]
		if !ok {
			return nil
		}
		delete(fields, key)
		if string(raw) == "null" {
			return nil
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("sidecar key %q: %w", key, err)
		}
		return nil
	}
	if err := decode(keyHash, &r.Hash); err != nil {
		return err
	}
	if err := decode(keyAssetID, &r.AssetID); err != nil {
		return err
	}
	if err := decode(keySkeleton, &r.Skeleton); err != nil {
		return err
	}
	if err := decode(keyOverrideSkeletal, &r.OverrideSkeletal); err != nil {
		return err
	}
	if err := decode(keySockets, &r.Sockets); err != nil {
		return err
	}
	if len(fields) > 0 {
		r.Extra = fields
	}
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Extra)+5)
	for k, v := range r.Extra {
		out[k] = v
	}
	out[keyHash] = r.Hash
	if r.HasID() {
		out[keyAssetID] = r.AssetID
	}
	if r.Skeleton != "" {
		out[keySkeleton] = r.Skeleton
	}
	if r.OverrideSkeletal != nil {
		out[keyOverrideSkeletal] = *r.OverrideSkeletal
	}
	if r.Sockets != nil {
		out[keySockets] = r.Sockets
	}
	return json.Marshal(out)
}
