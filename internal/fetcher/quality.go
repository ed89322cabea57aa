package fetcher

import (
	"sort"
	"strings"

	"github.com/blackwell-systems/gitrate/internal/model"
)

// DefaultQualityFiles are root file names that signal tooling conventions:
// ignore files, linter and formatter configs, manifests, container and CI
// descriptors. A trailing "*" makes the entry a prefix match.
var DefaultQualityFiles = []string{
	".gitignore",
	".gitattributes",
	".editorconfig",
	".eslintrc*",
	".prettierrc*",
	".golangci.yml",
	".golangci.yaml",
	".flake8",
	".pylintrc",
	".rubocop.yml",
	".pre-commit-config.yaml",
	"pyproject.toml",
	"setup.cfg",
	"tox.ini",
	"requirements.txt",
	"package.json",
	"tsconfig.json",
	"go.mod",
	"cargo.toml",
	"pom.xml",
	"build.gradle",
	"gemfile",
	"composer.json",
	"makefile",
	"dockerfile",
	"docker-compose.yml",
	"docker-compose.yaml",
	".dockerignore",
	".travis.yml",
	".gitlab-ci.yml",
	"jenkinsfile",
}

// MatchQualityFiles returns the sorted names of root files that match one of
// patterns, case-insensitively.
func MatchQualityFiles(entries []model.ContentEntry, patterns []string) model.QualityFiles {
	var out model.QualityFiles
	for _, e := range entries {
		if e.Kind != model.KindFile {
			continue
		}
		name := strings.ToLower(e.Name)
		for _, p := range patterns {
			p = strings.ToLower(p)
			if prefix, ok := strings.CutSuffix(p, "*"); ok {
				if strings.HasPrefix(name, prefix) {
					out = append(out, e.Name)
					break
				}
			} else if name == p {
				out = append(out, e.Name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}
