package bundle

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/Financial-Times/serverless-plugin-about/internal/service"
)

// defaultExcludes are never shipped unless re-included.
var defaultExcludes = []string{".git/**"}

// Rule decides which files a bundle ships. A file is shipped when it matches an
// include pattern, or when it matches no exclude pattern.
type Rule struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewRule compiles a packaging rule. Patterns use '/' as separator; '*' stays within a
// path segment and '**' crosses segments.
func NewRule(pkg *service.Package) (*Rule, error) {
	r := &Rule{}

	excludes := append([]string{}, defaultExcludes...)
	var includes []string
	if pkg != nil {
		excludes = append(excludes, pkg.Exclude...)
		includes = pkg.Include
	}

	for _, pattern := range excludes {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling exclude pattern %q: %w", pattern, err)
		}
		r.exclude = append(r.exclude, g)
	}

	for _, pattern := range includes {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling include pattern %q: %w", pattern, err)
		}
		r.include = append(r.include, g)
	}

	return r, nil
}

// Ships reports whether the slash-separated relative path is part of the bundle.
func (r *Rule) Ships(path string) bool {
	for _, g := range r.include {
		if g.Match(path) {
			return true
		}
	}
	for _, g := range r.exclude {
		if g.Match(path) {
			return false
		}
	}
	return true
}
