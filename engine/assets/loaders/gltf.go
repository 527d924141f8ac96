package loaders

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/spaghettifunk/anima-packer/engine/math"
)

// decodeGLTF reads a glTF 2.0 document (.gltf or .glb). Only the first skin
// is used as the bone set; animation times are kept in seconds with one tick
// per second.
func decodeGLTF(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}

	scene := &Scene{InverseRoot: math.NewMat4Identity()}
	parents := nodeParents(doc)

	jointBones := map[int]int{}
	if len(doc.Skins) > 0 {
		if err := readSkin(doc, doc.Skins[0], parents, jointBones, scene); err != nil {
			return nil, err
		}
	}

	for i, node := range doc.Nodes {
		if node.Mesh == nil {
			continue
		}
		if *node.Mesh >= len(doc.Meshes) {
			return nil, fmt.Errorf("node %d references missing mesh %d", i, *node.Mesh)
		}
		skinned := node.Skin != nil && *node.Skin == 0
		mesh := doc.Meshes[*node.Mesh]
		for p, prim := range mesh.Primitives {
			name := mesh.Name
			if len(mesh.Primitives) > 1 {
				name = fmt.Sprintf("%s.%d", mesh.Name, p)
			}
			sm, err := readPrimitive(doc, prim, name, skinned)
			if err != nil {
				return nil, fmt.Errorf("mesh %q: %w", name, err)
			}
			scene.Meshes = append(scene.Meshes, sm)
		}
	}

	for _, anim := range doc.Animations {
		a, err := readAnimation(doc, anim)
		if err != nil {
			return nil, fmt.Errorf("animation %q: %w", anim.Name, err)
		}
		scene.Animations = append(scene.Animations, a)
	}

	return scene, nil
}

func nodeName(doc *gltf.Document, i int) string {
	if n := doc.Nodes[i].Name; n != "" {
		return n
	}
	return fmt.Sprintf("node_%d", i)
}

func nodeParents(doc *gltf.Document) map[int]int {
	parents := make(map[int]int, len(doc.Nodes))
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			parents[c] = i
		}
	}
	return parents
}

func localMatrix(n *gltf.Node) math.Mat4 {
	if n.Matrix != [16]float64{} && n.Matrix != identity64 {
		var cm [16]float32
		for i, v := range n.Matrix {
			cm[i] = float32(v)
		}
		return math.NewMat4FromColumnMajor(cm)
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return math.NewMat4TRS(
		math.NewVec3(float32(t[0]), float32(t[1]), float32(t[2])),
		math.Quaternion{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])},
		math.NewVec3(float32(s[0]), float32(s[1]), float32(s[2])),
	)
}

var identity64 = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func readSkin(doc *gltf.Document, skin *gltf.Skin, parents map[int]int, jointBones map[int]int, scene *Scene) error {
	var inverseBinds [][4][4]float32
	if skin.InverseBindMatrices != nil {
		data, err := modeler.ReadAccessor(doc, doc.Accessors[*skin.InverseBindMatrices], nil)
		if err != nil {
			return fmt.Errorf("inverse bind matrices: %w", err)
		}
		m, ok := data.([][4][4]float32)
		if !ok || len(m) < len(skin.Joints) {
			return fmt.Errorf("inverse bind matrices: unexpected accessor layout %T", data)
		}
		inverseBinds = m
	}

	for i, j := range skin.Joints {
		jointBones[j] = i
	}
	for i, j := range skin.Joints {
		bone := SceneBone{Name: nodeName(doc, j), Parent: -1, Offset: math.NewMat4Identity()}
		for p, ok := parents[j]; ok; p, ok = parents[p] {
			if b, isJoint := jointBones[p]; isJoint {
				bone.Parent = b
				break
			}
		}
		if inverseBinds != nil {
			// The accessor reader already yields [row][col].
			for r := 0; r < 4; r++ {
				copy(bone.Offset.Data[r*4:r*4+4], inverseBinds[i][r][:])
			}
		}
		scene.Bones = append(scene.Bones, bone)
	}

	// The scene root sits above the topmost joint; its inverse maps model space back.
	if len(skin.Joints) > 0 {
		root := skin.Joints[0]
		for p, ok := parents[root]; ok; p, ok = parents[p] {
			root = p
		}
		world := localMatrix(doc.Nodes[root])
		if inv, ok := world.Inverse(); ok {
			scene.InverseRoot = inv
		}
	}
	return nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive, name string, skinned bool) (*SceneMesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, err
	}

	m := &SceneMesh{Name: name}
	m.Positions = make([]math.Vec3, len(positions))
	for i, p := range positions {
		m.Positions[i] = math.NewVec3(p[0], p[1], p[2])
	}

	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, err
		}
		m.TexCoords = make([]math.Vec2, len(uvs))
		for i, uv := range uvs {
			m.TexCoords[i] = math.NewVec2(uv[0], uv[1])
		}
	}

	if prim.Indices != nil {
		if m.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return nil, err
		}
	} else {
		m.Indices = make([]uint32, len(positions))
		for i := range m.Indices {
			m.Indices[i] = uint32(i)
		}
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, err
		}
		m.Normals = make([]math.Vec3, len(normals))
		for i, n := range normals {
			m.Normals[i] = math.NewVec3(n[0], n[1], n[2])
		}
	} else {
		m.generateNormals()
	}

	jIdx, hasJoints := prim.Attributes[gltf.JOINTS_0]
	wIdx, hasWeights := prim.Attributes[gltf.WEIGHTS_0]
	if skinned && hasJoints && hasWeights {
		joints, err := modeler.ReadJoints(doc, doc.Accessors[jIdx], nil)
		if err != nil {
			return nil, err
		}
		weights, err := modeler.ReadWeights(doc, doc.Accessors[wIdx], nil)
		if err != nil {
			return nil, err
		}
		m.BoneIDs = make([][4]int32, len(joints))
		m.Weights = make([][4]float32, len(joints))
		for v := range joints {
			for k := 0; k < 4; k++ {
				if weights[v][k] > 0 {
					m.BoneIDs[v][k] = int32(joints[v][k])
					m.Weights[v][k] = weights[v][k]
				} else {
					m.BoneIDs[v][k] = -1
				}
			}
		}
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func readAnimation(doc *gltf.Document, anim *gltf.Animation) (*SceneAnimation, error) {
	out := &SceneAnimation{Name: anim.Name, TicksPerSecond: 1}
	byNode := map[int]int{}

	for _, ch := range anim.Channels {
		if ch.Target.Node == nil || ch.Sampler >= len(anim.Samplers) {
			continue
		}
		sampler := anim.Samplers[ch.Sampler]
		input, err := modeler.ReadAccessor(doc, doc.Accessors[sampler.Input], nil)
		if err != nil {
			return nil, err
		}
		times, ok := input.([]float32)
		if !ok {
			return nil, fmt.Errorf("sampler input is %T, want float scalars", input)
		}
		output, err := modeler.ReadAccessor(doc, doc.Accessors[sampler.Output], nil)
		if err != nil {
			return nil, err
		}

		node := *ch.Target.Node
		ci, ok := byNode[node]
		if !ok {
			ci = len(out.Channels)
			byNode[node] = ci
			out.Channels = append(out.Channels, AnimationChannel{Node: nodeName(doc, node)})
		}
		channel := &out.Channels[ci]

		switch ch.Target.Path {
		case gltf.TRSTranslation, gltf.TRSScale:
			values, ok := output.([][3]float32)
			if !ok || len(values) < len(times) {
				return nil, fmt.Errorf("sampler output is %T, want vec3", output)
			}
			keys := make([]VectorKey, len(times))
			for i, t := range times {
				keys[i] = VectorKey{Time: t, Value: math.NewVec3(values[i][0], values[i][1], values[i][2])}
			}
			if ch.Target.Path == gltf.TRSTranslation {
				channel.Positions = keys
			} else {
				channel.Scales = keys
			}
		case gltf.TRSRotation:
			values, ok := output.([][4]float32)
			if !ok || len(values) < len(times) {
				return nil, fmt.Errorf("sampler output is %T, want float vec4", output)
			}
			keys := make([]QuatKey, len(times))
			for i, t := range times {
				v := values[i]
				keys[i] = QuatKey{Time: t, Value: math.Quaternion{X: v[0], Y: v[1], Z: v[2], W: v[3]}}
			}
			channel.Rotations = keys
		default:
			continue
		}

		if n := len(times); n > 0 && times[n-1] > out.Duration {
			out.Duration = times[n-1]
		}
	}
	return out, nil
}
