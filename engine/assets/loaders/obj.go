package loaders

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spaghettifunk/anima-packer/engine/math"
)

type objCorner struct {
	position, texco, normal int
}

type objBuilder struct {
	positions []math.Vec3
	texcos    []math.Vec2
	normals   []math.Vec3

	meshes  []*SceneMesh
	current *SceneMesh
	corners map[objCorner]uint32
	missing bool
}

// decodeOBJ reads a Wavefront OBJ file. Each object or group becomes a mesh,
// polygons are fan triangulated and texture coordinates get a top-left origin.
func decodeOBJ(path string) (*Scene, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	b := &objBuilder{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		ident, val := fields[0], fields[1:]
		if err := b.parseLine(ident, val); err != nil {
			return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return b.finish()
}

func (b *objBuilder) parseLine(ident string, val []string) error {
	switch ident {
	case "v", "vn":
		v, err := parseFloats(val, 3)
		if err != nil {
			return err
		}
		vec := math.NewVec3(v[0], v[1], v[2])
		if ident == "v" {
			b.positions = append(b.positions, vec)
		} else {
			b.normals = append(b.normals, vec)
		}
	case "vt":
		v, err := parseFloats(val, 2)
		if err != nil {
			return err
		}
		b.texcos = append(b.texcos, math.NewVec2(v[0], 1-v[1]))
	case "o", "g":
		name := strings.Join(val, " ")
		if b.current == nil || len(b.current.Indices) > 0 {
			b.startMesh(name)
		} else if name != "" {
			b.current.Name = name
		}
	case "f":
		return b.parseFace(val)
	default:
		// materials, smoothing groups and free-form geometry are not packed
	}
	return nil
}

func (b *objBuilder) startMesh(name string) {
	b.closeMesh()
	b.current = &SceneMesh{Name: name}
	b.corners = make(map[objCorner]uint32)
	b.missing = false
}

func (b *objBuilder) closeMesh() {
	if b.current == nil || len(b.current.Indices) == 0 {
		return
	}
	if b.missing {
		b.current.generateNormals()
	}
	b.meshes = append(b.meshes, b.current)
}

func (b *objBuilder) parseFace(val []string) error {
	if len(val) < 3 {
		return fmt.Errorf("face with %d vertices", len(val))
	}
	if b.current == nil {
		b.startMesh("default")
	}

	polygon := make([]uint32, 0, len(val))
	for _, s := range val {
		c, err := b.parseCorner(s)
		if err != nil {
			return err
		}
		polygon = append(polygon, b.vertex(c))
	}
	for i := 1; i+1 < len(polygon); i++ {
		b.current.Indices = append(b.current.Indices, polygon[0], polygon[i], polygon[i+1])
	}
	return nil
}

func (b *objBuilder) parseCorner(s string) (objCorner, error) {
	idx := strings.Split(s, "/")
	c := objCorner{position: -1, texco: -1, normal: -1}
	var err error
	if c.position, err = resolveIndex(idx[0], len(b.positions)); err != nil {
		return c, err
	}
	if len(idx) > 1 && idx[1] != "" {
		if c.texco, err = resolveIndex(idx[1], len(b.texcos)); err != nil {
			return c, err
		}
	}
	if len(idx) > 2 && idx[2] != "" {
		if c.normal, err = resolveIndex(idx[2], len(b.normals)); err != nil {
			return c, err
		}
	}
	return c, nil
}

func (b *objBuilder) vertex(c objCorner) uint32 {
	if i, ok := b.corners[c]; ok {
		return i
	}
	m := b.current
	i := uint32(len(m.Positions))
	m.Positions = append(m.Positions, b.positions[c.position])

	uv := math.Vec2{}
	if c.texco >= 0 {
		uv = b.texcos[c.texco]
	}
	m.TexCoords = append(m.TexCoords, uv)

	n := math.Vec3{}
	if c.normal >= 0 {
		n = b.normals[c.normal]
	} else {
		b.missing = true
	}
	m.Normals = append(m.Normals, n)

	b.corners[c] = i
	return i
}

func (b *objBuilder) finish() (*Scene, error) {
	b.closeMesh()
	if len(b.meshes) == 0 {
		return nil, fmt.Errorf("obj contains no faces")
	}
	for _, m := range b.meshes {
		if err := m.validate(); err != nil {
			return nil, err
		}
	}
	return &Scene{Meshes: b.meshes, InverseRoot: math.NewMat4Identity()}, nil
}

// resolveIndex converts a one-based (or negative, relative) OBJ index to zero-based.
func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad index %q", s)
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	}
	return 0, fmt.Errorf("index %d out of range (%d defined)", i, count)
}

func parseFloats(val []string, n int) ([]float32, error) {
	if len(val) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(val))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(val[i], 32)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", val[i])
		}
		out[i] = float32(f)
	}
	return out, nil
}
