// Package loader discovers and parses the YAML table specifications of a
// project directory. Files may hold multiple YAML documents or a "tables:"
// list; the group of a table is inferred from the first-level subdirectory
// the file lives in, falling back to the declared "group" field.
package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lineagekit/lineagekit/internal/spec"
)

// DefaultGroup is assigned to tables declared in the project root without an
// explicit group field.
const DefaultGroup = "default"

// document is the on-disk shape of one YAML document: either a single table
// spec or a "tables:" list declaring several.
type document struct {
	spec.TableSpec `yaml:",inline"`
	Tables         []spec.TableSpec `yaml:"tables"`
}

// LoadOptions configures project loading.
type LoadOptions struct {
	// Logger receives non-fatal irregularities (empty files). Defaults to
	// slog.Default.
	Logger *slog.Logger
}

// LoadDir loads all table specifications from a project directory.
// The first invalid file aborts the load; no partial result is returned.
func LoadDir(dir string) ([]spec.TableSpec, error) {
	return LoadDirWithOptions(dir, LoadOptions{})
}

// LoadDirWithOptions loads a project directory with full configuration.
func LoadDirWithOptions(dir string, opts LoadOptions) ([]spec.TableSpec, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("project directory %s: %w", dir, err)
	}

	paths, err := findSpecFiles(dir)
	if err != nil {
		return nil, err
	}

	var specs []spec.TableSpec
	for _, path := range paths {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}

		fileSpecs, err := loadFile(path, inferGroup(rel))
		if err != nil {
			return nil, &LoadError{File: rel, Err: err}
		}
		if len(fileSpecs) == 0 {
			logger.Warn("spec file declares no tables, skipping", "file", rel)
			continue
		}
		specs = append(specs, fileSpecs...)
	}

	return specs, nil
}

// findSpecFiles walks the project directory for YAML files, sorted for a
// deterministic load order.
func findSpecFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(d.Name())
		if ext == ".yml" || ext == ".yaml" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// inferGroup derives the group from the file's first-level subdirectory.
// Files in the project root have no inferred group.
func inferGroup(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) > 1 {
		return parts[0]
	}
	return ""
}

// loadFile parses every YAML document of one spec file and validates the
// resulting table specifications.
func loadFile(path, inferredGroup string) ([]spec.TableSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var specs []spec.TableSpec
	dec := yaml.NewDecoder(f)
	for {
		var doc document
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}

		entries := doc.Tables
		if entries == nil {
			if doc.Table == "" && doc.Group == "" && len(doc.Columns) == 0 {
				continue // empty document
			}
			entries = []spec.TableSpec{doc.TableSpec}
		}

		for _, entry := range entries {
			applyGroup(&entry, inferredGroup)
			if err := entry.Validate(); err != nil {
				return nil, err
			}
			specs = append(specs, entry)
		}
	}

	return specs, nil
}

// applyGroup resolves a table's group: the directory-inferred group wins,
// then the declared field, then DefaultGroup for root-level files.
func applyGroup(s *spec.TableSpec, inferredGroup string) {
	switch {
	case inferredGroup != "":
		s.Group = inferredGroup
	case s.Group == "":
		s.Group = DefaultGroup
	}
}

// LoadError represents a failure to load one spec file.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
