// Package repourl turns loosely formatted GitHub repository references into
// an owner/name pair.
//
// Accepted forms include https://github.com/owner/repo, www.github.com/owner/repo,
// github.com/owner/repo, git@github.com:owner/repo.git and any of these with a
// query string, fragment or trailing path segments. Parsing is done with plain
// string operations because the accepted input is looser than a URL grammar.
package repourl

import "strings"

// Host is the hosting domain every reference must name.
const Host = "github.com"

const sshPrefix = "git@" + Host + ":"

// User-visible messages returned as InputError.
const (
	MsgEmpty       = "Please paste a GitHub repository URL."
	MsgInvalid     = "That doesn't look like a valid GitHub repository URL."
	MsgWrongHost   = "Please provide a GitHub repository URL (github.com)."
	MsgMissingPath = "That URL is missing the owner/repo path."
	MsgNotRoot     = "Please paste the repository root URL like https://github.com/owner/repo"
)

// reservedNames are second path segments that point at a repository
// sub-page rather than a repository.
var reservedNames = map[string]bool{
	"issues":   true,
	"pull":     true,
	"pulls":    true,
	"wiki":     true,
	"actions":  true,
	"settings": true,
	"security": true,
	"projects": true,
}

// InputError is returned when the input cannot be resolved to a repository.
// Its message is safe to show to the user as-is.
type InputError struct {
	Input   string
	Message string
}

func (e *InputError) Error() string { return e.Message }

// Ref identifies a repository on the host.
type Ref struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FullName returns "owner/name".
func (r Ref) FullName() string { return r.Owner + "/" + r.Name }

// URL returns the canonical https URL of the repository.
func (r Ref) URL() string { return "https://" + Host + "/" + r.FullName() }

func (r Ref) String() string { return r.FullName() }

// Key returns the case-folded cache key for the repository.
func (r Ref) Key() string { return strings.ToLower(r.FullName()) }

// Parse extracts the owner and repository name from input. On failure the
// returned Ref is zero and the error is an *InputError.
func Parse(input string) (Ref, error) {
	fail := func(msg string) (Ref, error) {
		return Ref{}, &InputError{Input: input, Message: msg}
	}

	s := strings.TrimSpace(input)
	if s == "" {
		return fail(MsgEmpty)
	}
	s = cutAt(s, "?")
	s = strings.TrimSpace(cutAt(s, "#"))
	if s == "" {
		return fail(MsgEmpty)
	}

	if strings.HasPrefix(s, sshPrefix) {
		segs := segments(strings.TrimPrefix(s, sshPrefix))
		if len(segs) < 2 {
			return fail(MsgInvalid)
		}
		owner := strings.TrimSpace(segs[0])
		name := strings.TrimSuffix(strings.TrimSpace(segs[1]), ".git")
		if owner == "" || name == "" {
			return fail(MsgInvalid)
		}
		return Ref{Owner: owner, Name: name}, nil
	}

	if !strings.Contains(strings.ToLower(s), Host) {
		return fail(MsgWrongHost)
	}

	for _, scheme := range []string{"https://", "http://"} {
		if t, ok := trimPrefixFold(s, scheme); ok {
			s = t
			break
		}
	}
	s, _ = trimPrefixFold(s, "www.")

	idx := strings.Index(strings.ToLower(s), Host)
	path := strings.TrimPrefix(s[idx+len(Host):], "/")
	if path == "" {
		return fail(MsgMissingPath)
	}
	segs := segments(path)
	if len(segs) < 2 {
		return fail(MsgMissingPath)
	}

	owner := strings.TrimSpace(segs[0])
	name := strings.TrimSuffix(strings.TrimSpace(segs[1]), ".git")
	if reservedNames[strings.ToLower(name)] {
		return fail(MsgNotRoot)
	}
	if owner == "" || name == "" {
		return fail(MsgInvalid)
	}
	return Ref{Owner: owner, Name: name}, nil
}

// cutAt drops everything from the first occurrence of sep.
func cutAt(s, sep string) string {
	before, _, _ := strings.Cut(s, sep)
	return before
}

func trimPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

// segments splits a path on "/" and drops empty parts.
func segments(path string) []string {
	var out []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
