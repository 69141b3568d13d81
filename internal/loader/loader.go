// Package loader turns an image directory into an ordered list of groups,
// either from a manifest (groups.json / groups.yaml) or by chunking the
// images found under the directory.
package loader

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"grouprank/domain/group"
	"grouprank/internal"
	"grouprank/internal/errors"

	"gopkg.in/yaml.v3"
)

// ManifestNames lists the manifest files looked up in a directory, in order.
// The first one that exists is authoritative.
var ManifestNames = []string{"groups.json", "groups.yaml", "groups.yml"}

// ImageExtensions is the allow-list used when auto-chunking.
var ImageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".jfif": true, ".avif": true, ".heic": true, ".heif": true,
}

// DefaultChunkSize is used when a non-positive chunk size is requested.
const DefaultChunkSize = 6

type manifestEntry struct {
	Instruction    string   `json:"instruction" yaml:"instruction"`
	InstructionCN  string   `json:"instruction_cn" yaml:"instruction_cn"`
	Images         []string `json:"images" yaml:"images"`
	ReferenceImage string   `json:"reference_image" yaml:"reference_image"`
}

// Loader reads group definitions from disk
type Loader struct {
	logger *internal.Logger
}

// New creates a loader. A nil logger falls back to the default logger.
func New(logger *internal.Logger) *Loader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Loader{logger: logger}
}

// Load returns the groups for dir. It never fails: a malformed manifest is
// logged and the directory is auto-chunked instead, and a missing or empty
// directory yields no groups.
func (l *Loader) Load(dir string, chunkSize int) ([]group.Group, group.Source) {
	if name, ok := FindManifest(dir); ok {
		groups, err := l.loadManifest(dir, name)
		if err != nil {
			l.logger.Error("[Loader] %v", err)
		} else if len(groups) > 0 {
			source := group.SourceManifest
			if filepath.Ext(name) != ".json" {
				source = group.SourceYAMLManifest
			}
			l.logger.Info("[Loader] Loaded %d groups from %s", len(groups), name)
			return groups, source
		} else {
			l.logger.Warn("[Loader] %s has no entries, falling back to auto-chunking", name)
		}
	}

	groups := l.autoChunk(dir, chunkSize)
	if len(groups) == 0 {
		l.logger.Warn("[Loader] No images found under %s", dir)
		return groups, group.SourceEmpty
	}
	l.logger.Info("[Loader] Auto-created %d groups from %s", len(groups), dir)
	return groups, group.SourceAutoChunk
}

// FindManifest returns the first manifest file name present in dir.
func FindManifest(dir string) (string, bool) {
	for _, name := range ManifestNames {
		info, err := os.Stat(filepath.Join(dir, name))
		if err == nil && !info.IsDir() {
			return name, true
		}
	}
	return "", false
}

func (l *Loader) loadManifest(dir, name string) ([]group.Group, error) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOFailure(fmt.Sprintf("failed to read %s", path), err)
	}

	var entries []manifestEntry
	if filepath.Ext(name) == ".json" {
		err = json.Unmarshal(data, &entries)
	} else {
		err = yaml.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, errors.ParseFailure(fmt.Sprintf("failed to parse %s", path), err)
	}

	groups := make([]group.Group, 0, len(entries))
	for i, entry := range entries {
		images := make([]string, 0, len(entry.Images))
		for _, p := range entry.Images {
			resolved := ResolvePath(dir, p)
			if fileExists(resolved) {
				images = append(images, resolved)
			} else {
				l.logger.Debug("[Loader] Dropping missing image %s from group %d", resolved, i)
			}
		}

		ref := ""
		if entry.ReferenceImage != "" {
			ref = ResolvePath(dir, entry.ReferenceImage)
			if !fileExists(ref) {
				l.logger.Debug("[Loader] Clearing missing reference image %s from group %d", ref, i)
				ref = ""
			}
		}

		groups = append(groups, group.Group{
			ID:             i,
			Instruction:    entry.Instruction,
			InstructionCN:  entry.InstructionCN,
			Images:         images,
			ReferenceImage: ref,
		})
	}
	return groups, nil
}

func (l *Loader) autoChunk(dir string, chunkSize int) []group.Group {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped rather than aborting the walk.
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if ImageExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			paths = append(paths, NormalizePath(path))
		}
		return nil
	})
	if err != nil {
		l.logger.Warn("[Loader] Walking %s stopped early: %v", dir, err)
	}
	sort.Strings(paths)

	groups := make([]group.Group, 0, (len(paths)+chunkSize-1)/chunkSize)
	for start := 0; start < len(paths); start += chunkSize {
		end := min(start+chunkSize, len(paths))
		id := len(groups)
		groups = append(groups, group.Group{
			ID:          id,
			Instruction: PlaceholderInstruction(id),
			Images:      paths[start:end:end],
		})
	}
	return groups
}

// PlaceholderInstruction is used for groups that come without a manifest.
func PlaceholderInstruction(id int) string {
	return fmt.Sprintf("No instruction provided for group %d", id)
}

// ResolvePath joins relative manifest paths onto dir and normalizes the result.
func ResolvePath(dir, p string) string {
	p = filepath.FromSlash(p)
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	return NormalizePath(p)
}

// NormalizePath cleans p and converts it to forward-slash form.
func NormalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

func fileExists(p string) bool {
	info, err := os.Stat(filepath.FromSlash(p))
	return err == nil && !info.IsDir()
}
