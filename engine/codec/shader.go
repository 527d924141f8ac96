package codec

import (
	"github.com/spaghettifunk/anima-packer/engine/assets/loaders"
)

// EncodeShader writes the vertex, fragment and geometry stages as
// NUL-terminated blobs. A missing geometry stage is an empty blob.
func EncodeShader(src *loaders.ShaderSources) []byte {
	w := NewWriter(len(src.Vertex) + len(src.Fragment) + len(src.Geometry) + 15)
	w.CStr(src.Vertex)
	w.CStr(src.Fragment)
	if src.HasGeometry {
		w.CStr(src.Geometry)
	} else {
		w.U32(0)
	}
	return w.Bytes()
}

func DecodeShader(payload []byte) (*loaders.ShaderSources, error) {
	r := NewReader(payload)
	src := &loaders.ShaderSources{
		Vertex:   r.CStr(),
		Fragment: r.CStr(),
	}
	if r.Remaining() >= 4 {
		n := r.Count(1)
		if n > 0 {
			raw := r.take(n)
			if len(raw) > 0 && raw[len(raw)-1] == 0 {
				raw = raw[:len(raw)-1]
			}
			src.Geometry = string(raw)
			src.HasGeometry = true
		}
	}
	return src, r.Done()
}

func EncodeComputeShader(source string) []byte {
	w := NewWriter(len(source) + 5)
	w.CStr(source)
	return w.Bytes()
}

func DecodeComputeShader(payload []byte) (string, error) {
	r := NewReader(payload)
	s := r.CStr()
	return s, r.Done()
}
