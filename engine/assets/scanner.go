package assets

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

// SourceFile is a classified input file.
type SourceFile struct {
	/** @brief Path as found by the walk, rooted at the scan root. */
	Path string
	/** @brief Slash separated path relative to the scan root. */
	Rel string
	/** @brief Asset name: base name without extension, NFC normalized. */
	Name  string
	Class resources.SourceClass
}

func (f SourceFile) Stage() resources.Stage {
	return f.Class.Stage()
}

// SidecarPather maps a source path to its sidecar path.
type SidecarPather interface {
	Path(source string) string
	IsSidecar(path string) bool
}

// ScanResult lists the accepted sources in lexical walk order.
type ScanResult struct {
	Files []SourceFile
	/** @brief Sources rejected before building, e.g. because they share a sidecar. */
	Rejected []*core.FileError
	/** @brief Files with an extension no class claims. */
	Ignored int
}

// ByStage returns the files of one stage, keeping walk order.
func (r *ScanResult) ByStage(stage resources.Stage) []SourceFile {
	var out []SourceFile
	for _, f := range r.Files {
		if f.Stage() == stage {
			out = append(out, f)
		}
	}
	return out
}

// Scanner walks a content tree and classifies files by extension.
type Scanner struct {
	table    *resources.ExtensionTable
	sidecars SidecarPather
	ignore   map[string]bool
}

// NewScanner returns a scanner. Paths in ignore (typically the output pack
// and its lock) are skipped.
func NewScanner(table *resources.ExtensionTable, sidecars SidecarPather, ignore ...string) *Scanner {
	s := &Scanner{table: table, sidecars: sidecars, ignore: map[string]bool{}}
	for _, p := range ignore {
		if abs, err := filepath.Abs(p); err == nil {
			s.ignore[abs] = true
		}
	}
	return s
}

// Ignores reports whether path is never treated as a source.
func (s *Scanner) Ignores(path string) bool {
	if s.sidecars.IsSidecar(path) {
		return true
	}
	abs, err := filepath.Abs(path)
	return err == nil && s.ignore[abs]
}

// Classify returns the class of a single path.
func (s *Scanner) Classify(path string) resources.SourceClass {
	if s.Ignores(path) {
		return resources.ClassUnknown
	}
	return s.table.Classify(path)
}

// Scan walks root recursively in lexical order.
func (s *Scanner) Scan(root string) (*ScanResult, error) {
	res := &ScanResult{}
	owners := map[string]string{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		class := s.Classify(path)
		if class == resources.ClassUnknown {
			if !s.Ignores(path) {
				res.Ignored++
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sidecar := s.sidecars.Path(path)
		if owner, taken := owners[sidecar]; taken {
			res.Rejected = append(res.Rejected, &core.FileError{
				Path:  path,
				Stage: class.Stage().String(),
				Err:   fmt.Errorf("%w: %s already belongs to %s", core.ErrSharedSidecar, sidecar, owner),
			})
			return nil
		}
		owners[sidecar] = path
		res.Files = append(res.Files, SourceFile{
			Path:  path,
			Rel:   filepath.ToSlash(rel),
			Name:  AssetName(path),
			Class: class,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return res, nil
}

// AssetName is the base name of path without its extension, in NFC form.
func AssetName(path string) string {
	base := filepath.Base(path)
	return norm.NFC.String(strings.TrimSuffix(base, filepath.Ext(base)))
}
