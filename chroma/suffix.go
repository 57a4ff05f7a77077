// Package chroma resolves source file suffixes from language names using
// chroma's lexer registry.
package chroma

import (
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/cockroachdb/errors"
)

// SourceSuffix returns the primary source suffix for language, such as
// ".java" for "Java". Lookup accepts lexer names and aliases and ignores
// case.
func SourceSuffix(language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		return "", errors.Newf("unknown language %q", language)
	}
	// Get falls back to matching file names, so "foo.java" would resolve too.
	for _, pattern := range lexer.Config().Filenames {
		if suffix, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(suffix, ".") && !strings.ContainsAny(suffix, "*?[") {
			return suffix, nil
		}
	}
	return "", errors.Newf("language %q has no file suffix", lexer.Config().Name)
}
