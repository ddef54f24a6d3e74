// Package frontend loads astmodel.Program values from disk. It is the one
// concrete realization of spec.md §1's external "language frontend"
// boundary: the core never parses JS/TS source text, so this package's only
// job is reading the frontend's already-parsed tree back off disk in the
// interchange shape astmodel.Node already defines.
package frontend

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"jsflow/internal/astmodel"
	"jsflow/internal/diagnostics"
)

// sourceSuffix is the extension a frontend dump uses for one file's parsed AST.
const sourceSuffix = ".ast.json"

// Load reads a Program from repoDir, tsconfigPath, or both, per spec.md §6's
// "one of --repo <dir> or --tsconfig <file> (or both)". repoDir is walked for
// every *.ast.json file, each decoded as one astmodel.SourceFile. tsconfigPath
// is decoded directly as a whole astmodel.Program (a manifest naming every
// source file its project includes). Results are merged and the file list is
// sorted by path so downstream indexing sees a deterministic order regardless
// of how the frontend or filesystem enumerated them.
func Load(repoDir, tsconfigPath string) (astmodel.Program, error) {
	var files []astmodel.SourceFile

	if repoDir != "" {
		found, err := loadRepoDir(repoDir)
		if err != nil {
			return astmodel.Program{}, err
		}
		files = append(files, found...)
	}

	if tsconfigPath != "" {
		extra, err := loadTsconfig(tsconfigPath)
		if err != nil {
			return astmodel.Program{}, err
		}
		files = append(files, extra...)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return astmodel.Program{Files: files}, nil
}

func loadRepoDir(dir string) ([]astmodel.SourceFile, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, sourceSuffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.IO, dir, err)
	}
	sort.Strings(paths)

	files := make([]astmodel.SourceFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, diagnostics.Wrap(diagnostics.IO, p, err)
		}
		var sf astmodel.SourceFile
		if err := json.Unmarshal(data, &sf); err != nil {
			return nil, diagnostics.Wrap(diagnostics.IO, p, err)
		}
		files = append(files, sf)
	}
	return files, nil
}

func loadTsconfig(path string) ([]astmodel.SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.IO, path, err)
	}
	var program astmodel.Program
	if err := json.Unmarshal(data, &program); err != nil {
		return nil, diagnostics.Wrap(diagnostics.IO, path, err)
	}
	return program.Files, nil
}
