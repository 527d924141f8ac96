package systems

import (
	"github.com/spaghettifunk/anima-packer/engine/assets"
	"github.com/spaghettifunk/anima-packer/engine/assets/loaders"
	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

// SkeletonTable maps a skeleton name (the base name of the model that
// defines it) to the skeleton. It is read-only once the pre-pass finished.
type SkeletonTable map[string]*resources.Skeleton

func (t SkeletonTable) Lookup(name string) (*resources.Skeleton, bool) {
	s, ok := t[name]
	return s, ok
}

// ModelInput is everything the model stage may read: the skeletons and the
// scenes the pre-pass already decoded, keyed by source path.
type ModelInput struct {
	Skeletons SkeletonTable
	Scenes    map[string]*loaders.Scene
}

// SkeletonFromScene builds a skeleton out of the bones of scene. Bone ids
// are the scene bone indices.
func SkeletonFromScene(name string, scene *loaders.Scene) *resources.Skeleton {
	bones := make([]resources.Bone, len(scene.Bones))
	for i, b := range scene.Bones {
		bones[i] = resources.Bone{
			Name:   b.Name,
			ID:     int32(i),
			Parent: int32(b.Parent),
			Offset: b.Offset,
		}
	}
	return resources.NewSkeleton(name, bones, scene.InverseRoot)
}

// DefinesSkeleton reports whether a scene registers a skeleton: it has no
// animation and every one of its meshes is skinned.
func DefinesSkeleton(scene *loaders.Scene) bool {
	return len(scene.Animations) == 0 && scene.AllMeshesSkinned()
}

/**
 * @brief Decodes every model once, ahead of all builds, and collects the
 * skeletons they define.
 */
type SkeletonResolver struct {
	jobSystem *JobSystem
	scenes    loaders.SceneDecoder
}

func NewSkeletonResolver(js *JobSystem, scenes loaders.SceneDecoder) *SkeletonResolver {
	return &SkeletonResolver{jobSystem: js, scenes: scenes}
}

// Resolve decodes files in parallel and returns once all of them are done.
// Skeletons are registered in discovery order, so when two models share a
// base name the first one in files wins. A model that fails to decode is
// logged and left out; the model stage reports it again.
func (sr *SkeletonResolver) Resolve(files []assets.SourceFile) ModelInput {
	in := ModelInput{
		Skeletons: SkeletonTable{},
		Scenes:    make(map[string]*loaders.Scene, len(files)),
	}
	decoded := make([]*loaders.Scene, len(files))

	jobs := make([]Job, 0, len(files))
	for i, f := range files {
		i, f := i, f
		jobs = append(jobs, Job{
			Name: "skeleton " + f.Rel,
			Run: func() error {
				scene, err := sr.scenes.DecodeScene(f.Path)
				if err != nil {
					return err
				}
				decoded[i] = scene
				return nil
			},
		})
	}
	sr.jobSystem.SubmitAll(jobs)

	for i, f := range files {
		scene := decoded[i]
		if scene == nil {
			continue
		}
		in.Scenes[f.Path] = scene
		if !DefinesSkeleton(scene) {
			continue
		}
		if _, dup := in.Skeletons[f.Name]; dup {
			core.LogWarn("skeleton %q is defined again by %s, keeping the first one", f.Name, f.Rel)
			continue
		}
		in.Skeletons[f.Name] = SkeletonFromScene(f.Name, scene)
		core.LogDebug("registered skeleton %q with %d bones", f.Name, len(scene.Bones))
	}
	return in
}
