package resources

import (
	"sort"

	"github.com/spaghettifunk/anima-packer/engine/math"
)

/**
 * @brief A joint of a skeleton. Parent is the id of the parent bone or -1.
 */
type Bone struct {
	Name   string
	ID     int32
	Parent int32
	/** @brief Mesh space to bone space transform. */
	Offset math.Mat4
}

/**
 * @brief A named bone hierarchy shared by skeletal models and animations.
 * Immutable once built.
 */
type Skeleton struct {
	Name        string
	InverseRoot math.Mat4

	bones  []Bone
	byName map[string]int
}

// NewSkeleton copies bones and orders them by id. A later bone with an
// already used name is dropped.
func NewSkeleton(name string, bones []Bone, inverseRoot math.Mat4) *Skeleton {
	s := &Skeleton{
		Name:        name,
		InverseRoot: inverseRoot,
		byName:      make(map[string]int, len(bones)),
	}
	sorted := append([]Bone(nil), bones...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, b := range sorted {
		if _, dup := s.byName[b.Name]; dup {
			continue
		}
		s.byName[b.Name] = len(s.bones)
		s.bones = append(s.bones, b)
	}
	return s
}

func (s *Skeleton) Bone(name string) (Bone, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Bone{}, false
	}
	return s.bones[i], true
}

// Bones returns the bones ordered by id.
func (s *Skeleton) Bones() []Bone {
	return append([]Bone(nil), s.bones...)
}

func (s *Skeleton) Len() int {
	return len(s.bones)
}

/**
 * @brief An attachment point on a skeletal model.
 */
type Socket struct {
	Name      string
	Bone      string
	Transform math.Mat4
}
