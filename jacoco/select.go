package jacoco

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobwas/glob"
)

// SelectClassFiles walks dirs and returns the class files whose path
// relative to their class directory matches an include pattern and no
// exclude pattern. An empty include list matches everything. Patterns use
// '/' or the host separator; '*' stays within a directory, '**' crosses
// directories.
func SelectClassFiles(dirs, includes, excludes []string) ([]string, error) {
	inc, err := compileAll(includes)
	if err != nil {
		return nil, err
	}
	exc, err := compileAll(excludes)
	if err != nil {
		return nil, err
	}

	var result []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) && path == dir {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".class") {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if len(includes) > 0 && !matchAny(inc, rel) {
				return nil
			}
			if matchAny(exc, rel) {
				return nil
			}
			result = append(result, path)
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "selecting class files in %s", dir)
		}
	}
	return result, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		// The empty sentinel pattern selects nothing.
		if p == "" {
			continue
		}
		g, err := glob.Compile(filepath.ToSlash(p), '/')
		if err != nil {
			return nil, errors.Wrapf(err, "compiling pattern %q", p)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
