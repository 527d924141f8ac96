package codec

import (
	"fmt"
	"sort"

	"github.com/spaghettifunk/anima-packer/engine/assets/loaders"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

// Texture slots of a bone row group.
const (
	SlotPosition = 0
	SlotRotation = 1
	SlotScale    = 2
	slotsPerBone = 3
)

// DefaultTicksPerSecond is used when a scene does not declare a tick rate.
const DefaultTicksPerSecond = 25

// Animation is a decoded animation payload. Texels has shape
// (BoneCount*3, len(Timestamps), 4).
type Animation struct {
	Duration       float32
	TicksPerSecond float32
	BoneCount      uint32
	Timestamps     []float32
	Texels         []float32
}

// Texel returns the four components of one bone slot at one frame.
func (a *Animation) Texel(bone, slot, frame int) [4]float32 {
	var out [4]float32
	i := texelIndex(bone, slot, frame, len(a.Timestamps))
	copy(out[:], a.Texels[i:i+4])
	return out
}

func texelIndex(bone, slot, frame, frames int) int {
	return ((bone*slotsPerBone+slot)*frames + frame) * 4
}

// ValidRotationOrder reports whether order is a permutation of "xyzw".
func ValidRotationOrder(order string) bool {
	if len(order) != 4 {
		return false
	}
	seen := map[rune]bool{}
	for _, c := range order {
		switch c {
		case 'x', 'y', 'z', 'w':
		default:
			return false
		}
		seen[c] = true
	}
	return len(seen) == 4
}

// EncodeAnimation bakes anim into a texture against skel. Rotation
// components are written in rotationOrder. Channels whose node is not a bone
// of skel are skipped and reported as warnings.
func EncodeAnimation(anim *loaders.SceneAnimation, skel *resources.Skeleton, rotationOrder string) ([]byte, []string, error) {
	if !ValidRotationOrder(rotationOrder) {
		return nil, nil, fmt.Errorf("rotation order %q is not a permutation of xyzw", rotationOrder)
	}
	tps := anim.TicksPerSecond
	if tps <= 0 {
		tps = DefaultTicksPerSecond
	}

	ticks := keyTimes(anim)
	frameOf := make(map[float32]int, len(ticks))
	for i, t := range ticks {
		frameOf[t] = i
	}
	frames := len(ticks)
	bones := skel.Len()
	texels := make([]float32, bones*slotsPerBone*frames*4)

	var warnings []string
	for _, ch := range anim.Channels {
		bone, ok := skel.Bone(ch.Node)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("bone %q not found in skeleton %q", ch.Node, skel.Name))
			continue
		}
		id := int(bone.ID)
		if id < 0 || id >= bones {
			warnings = append(warnings, fmt.Sprintf("bone %q has id %d outside the skeleton range", ch.Node, id))
			continue
		}
		for _, k := range ch.Positions {
			i := texelIndex(id, SlotPosition, frameOf[k.Time], frames)
			texels[i], texels[i+1], texels[i+2] = k.Value.X, k.Value.Y, k.Value.Z
		}
		for _, k := range ch.Rotations {
			i := texelIndex(id, SlotRotation, frameOf[k.Time], frames)
			for c := 0; c < 4; c++ {
				texels[i+c] = k.Value.Component(rotationOrder[c])
			}
		}
		for _, k := range ch.Scales {
			i := texelIndex(id, SlotScale, frameOf[k.Time], frames)
			texels[i], texels[i+1], texels[i+2] = k.Value.X, k.Value.Y, k.Value.Z
		}
	}

	w := NewWriter(16 + frames*4 + 4 + len(texels)*4)
	w.F32(anim.Duration)
	w.F32(tps)
	w.U32(uint32(bones))
	w.U32(uint32(frames))
	for _, t := range ticks {
		w.F32(t / tps)
	}
	w.U32(uint32(len(texels)))
	w.F32s(texels)
	return w.Bytes(), warnings, nil
}

// keyTimes returns the sorted union of all key times of anim.
func keyTimes(anim *loaders.SceneAnimation) []float32 {
	set := map[float32]struct{}{}
	for _, ch := range anim.Channels {
		for _, k := range ch.Positions {
			set[k.Time] = struct{}{}
		}
		for _, k := range ch.Rotations {
			set[k.Time] = struct{}{}
		}
		for _, k := range ch.Scales {
			set[k.Time] = struct{}{}
		}
	}
	out := make([]float32, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func DecodeAnimation(payload []byte) (*Animation, error) {
	r := NewReader(payload)
	a := &Animation{
		Duration:       r.F32(),
		TicksPerSecond: r.F32(),
		BoneCount:      r.U32(),
	}
	a.Timestamps = r.F32s(r.Count(4))
	a.Texels = r.F32s(r.Count(4))
	if err := r.Done(); err != nil {
		return nil, err
	}
	if want := int(a.BoneCount) * slotsPerBone * len(a.Timestamps) * 4; want != len(a.Texels) {
		return nil, fmt.Errorf("animation texture has %d floats, want %d", len(a.Texels), want)
	}
	return a, nil
}
