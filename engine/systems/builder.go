package systems

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/anima-packer/engine/assets"
	"github.com/spaghettifunk/anima-packer/engine/assets/loaders"
	"github.com/spaghettifunk/anima-packer/engine/codec"
	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/meta"
	"github.com/spaghettifunk/anima-packer/engine/pack"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

// TextureTable maps texture asset names to ids. It is complete and
// read-only before the stage that consumes it starts.
type TextureTable map[string]uint64

func (t TextureTable) TextureID(name string) (uint64, bool) {
	id, ok := t[name]
	return id, ok
}

func newTextureTable(results []*Result) TextureTable {
	table := make(TextureTable, len(results))
	for _, r := range results {
		if !r.Failed() {
			table[r.File.Name] = r.ID
		}
	}
	return table
}

// encoded is what a codec produced for one file.
type encoded struct {
	kind     resources.AssetKind
	payload  []byte
	warnings []string
}

type encodeFunc func(file assets.SourceFile, rec *meta.Record) (*encoded, error)

// builder runs the per-file build decision. It is shared by all workers and
// only holds read-only state plus concurrency-safe collaborators.
type builder struct {
	opts     Options
	store    *meta.Store
	index    pack.Index
	ids      *core.IDGenerator
	decoders loaders.Decoders
	prompter core.Prompter

	shaders     loaders.ShaderLoader
	computes    loaders.ComputeShaderLoader
	materials   loaders.MaterialLoader
	bitmapFonts loaders.BitmapFontLoader
	systemFonts loaders.SystemFontLoader
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// loadRecord reads the sidecar of file. A corrupt sidecar is put to the
// operator, who may continue with an empty record.
func (b *builder) loadRecord(file assets.SourceFile) (*meta.Record, error) {
	rec, err := b.store.Load(file.Path)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, core.ErrCorruptInput) {
		return nil, err
	}
	ok, perr := b.prompter.Confirm(fmt.Sprintf("%s. Continue with an empty sidecar?", err))
	if perr != nil {
		return nil, fmt.Errorf("%w: %v", err, perr)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %v", core.ErrAborted, err)
	}
	return &meta.Record{}, nil
}

// build decides between reusing the previous record of file and encoding it
// anew, then writes hash and id back to the sidecar.
func (b *builder) build(file assets.SourceFile, force bool, encode encodeFunc) *Result {
	fail := func(err error) *Result {
		if core.Kind(err) == core.ErrUnknown {
			err = fmt.Errorf("%w: %v", core.ErrDecodeFailure, err)
		}
		core.LogDebug("%s failed: %s", file.Rel, err)
		return failedResult(file, err)
	}

	hash, err := hashFile(file.Path)
	if err != nil {
		return fail(err)
	}
	rec, err := b.loadRecord(file)
	if err != nil {
		return fail(err)
	}

	prev, havePrev := b.index.Lookup(file.Name)
	usable := havePrev && file.Class.Produces(prev.Kind) && (!rec.HasID() || rec.AssetID == prev.ID)

	if usable && !force && rec.Hash == hash {
		rec.AssetID = prev.ID
		if err := b.store.Save(file.Path, rec); err != nil {
			return fail(err)
		}
		return &Result{File: file, Status: core.StatusSkipped, ID: prev.ID, Kind: prev.Kind, Record: prev.Raw}
	}

	id := rec.AssetID
	if id == core.InvalidID && havePrev && file.Class.Produces(prev.Kind) {
		id = prev.ID
	}
	if id == core.InvalidID {
		id = b.ids.Next()
	}

	prevHash := rec.Hash
	rec.AssetID = id
	out, encErr := encode(file, rec)
	if encErr != nil {
		// The sidecar hash only ever names content that was encoded.
		rec.Hash = prevHash
		if err := b.store.Save(file.Path, rec); err != nil {
			core.LogWarn("save sidecar of %s: %s", file.Rel, err)
		}
		return fail(encErr)
	}
	rec.Hash = hash
	if err := b.store.Save(file.Path, rec); err != nil {
		return fail(err)
	}

	for _, w := range out.warnings {
		core.LogWarn("%s: %s", file.Rel, w)
	}
	status := core.StatusAdded
	if havePrev {
		status = core.StatusUpdated
	}
	return &Result{
		File:     file,
		Status:   status,
		ID:       id,
		Kind:     out.kind,
		Record:   codec.EncodeRecord(id, out.kind, file.Name, out.payload),
		Warnings: out.warnings,
	}
}

// forget clears hash and id of a sidecar so the next build starts fresh.
func (b *builder) forget(file assets.SourceFile) {
	rec, err := b.store.Load(file.Path)
	if err != nil {
		return
	}
	rec.Hash = ""
	rec.AssetID = core.InvalidID
	if err := b.store.Save(file.Path, rec); err != nil {
		core.LogWarn("reset sidecar of %s: %s", file.Rel, err)
	}
}

func (b *builder) encodeTexture(file assets.SourceFile, _ *meta.Record) (*encoded, error) {
	if file.Class == resources.ClassHDR {
		img, err := b.decoders.HDR.DecodeHDR(file.Path)
		if err != nil {
			return nil, err
		}
		return &encoded{kind: resources.AssetKindTexture, payload: codec.EncodeHDRTexture(img, b.opts.HDRGamma)}, nil
	}
	img, err := b.decoders.Image.DecodeImage(file.Path)
	if err != nil {
		return nil, err
	}
	return &encoded{kind: resources.AssetKindTexture, payload: codec.EncodeTexture(img)}, nil
}

func (b *builder) encodeOther(file assets.SourceFile, textures TextureTable) (*encoded, error) {
	switch file.Class {
	case resources.ClassShader:
		src, err := b.shaders.Load(file.Path)
		if err != nil {
			return nil, err
		}
		return &encoded{kind: resources.AssetKindShader, payload: codec.EncodeShader(src)}, nil

	case resources.ClassComputeShader:
		src, err := b.computes.Load(file.Path)
		if err != nil {
			return nil, err
		}
		return &encoded{kind: resources.AssetKindComputeShader, payload: codec.EncodeComputeShader(src)}, nil

	case resources.ClassMaterial:
		refs, err := b.materials.Load(file.Path)
		if err != nil {
			return nil, err
		}
		payload, err := codec.EncodeMaterial(refs, textures)
		if err != nil {
			return nil, err
		}
		return &encoded{kind: resources.AssetKindMaterial, payload: payload}, nil

	case resources.ClassFont:
		if strings.EqualFold(filepath.Ext(file.Path), ".fnt") {
			font, err := b.bitmapFonts.Load(file.Path)
			if err != nil {
				return nil, err
			}
			payload, err := codec.EncodeBitmapFont(font, textures)
			if err != nil {
				return nil, err
			}
			return &encoded{kind: resources.AssetKindFont, payload: payload}, nil
		}
		font, err := b.systemFonts.Load(file.Path)
		if err != nil {
			return nil, err
		}
		return &encoded{kind: resources.AssetKindFont, payload: codec.EncodeSystemFont(font)}, nil
	}
	return nil, fmt.Errorf("%w: no codec for %s sources", core.ErrUnsupportedFormat, file.Class)
}

func (b *builder) encodeModel(file assets.SourceFile, rec *meta.Record, in ModelInput) (*encoded, error) {
	scene, ok := in.Scenes[file.Path]
	if !ok {
		var err error
		if scene, err = b.decoders.Scene.DecodeScene(file.Path); err != nil {
			return nil, err
		}
	}

	if len(scene.Animations) > 0 {
		if rec.Skeleton == "" {
			return nil, fmt.Errorf("%w: animation needs a skeleton in its sidecar", core.ErrMissingDependency)
		}
		skel, ok := in.Skeletons.Lookup(rec.Skeleton)
		if !ok {
			return nil, fmt.Errorf("%w: skeleton %q is not registered", core.ErrMissingDependency, rec.Skeleton)
		}
		var warnings []string
		if len(scene.Animations) > 1 {
			warnings = append(warnings, fmt.Sprintf("%d animations found, only %q is packed", len(scene.Animations), scene.Animations[0].Name))
		}
		payload, animWarnings, err := codec.EncodeAnimation(scene.Animations[0], skel, b.opts.RotationOrder)
		if err != nil {
			return nil, err
		}
		return &encoded{kind: resources.AssetKindAnimation, payload: payload, warnings: append(warnings, animWarnings...)}, nil
	}

	skeletal := scene.AllMeshesSkinned()
	if rec.OverrideSkeletal != nil {
		skeletal = *rec.OverrideSkeletal
	}
	if !skeletal {
		payload, err := codec.EncodeModel(scene)
		if err != nil {
			return nil, err
		}
		return &encoded{kind: resources.AssetKindModel, payload: payload}, nil
	}

	var skel *resources.Skeleton
	if rec.Skeleton != "" {
		if skel, ok = in.Skeletons.Lookup(rec.Skeleton); !ok {
			return nil, fmt.Errorf("%w: skeleton %q is not registered", core.ErrMissingDependency, rec.Skeleton)
		}
	} else if skel, ok = in.Skeletons.Lookup(file.Name); !ok {
		skel = SkeletonFromScene(file.Name, scene)
	}
	sockets, err := rec.SocketList()
	if err != nil {
		return nil, err
	}
	payload, err := codec.EncodeSkeletalModel(scene, skel, sockets)
	if err != nil {
		return nil, err
	}
	return &encoded{kind: resources.AssetKindSkeletalModel, payload: payload}, nil
}
