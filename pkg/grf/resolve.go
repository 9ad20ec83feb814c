package grf

import (
	"regexp"
	"strings"
)

// Resolution is the outcome of resolving a query path against the
// archive's indices.
type Resolution struct {
	Found      bool
	Ambiguous  bool
	ExactName  string
	Candidates []string // populated when Ambiguous
}

// resolve implements the exact / case-insensitive / ambiguous lookup
// described by the path resolver: an exact match wins outright; failing
// that, a normalized-name bucket with exactly one candidate resolves to
// it, two or more is ambiguous, and zero is not-found.
func (idx *index) resolve(query string) Resolution {
	if e, ok := idx.byExactName[query]; ok {
		return Resolution{Found: true, ExactName: e.Name}
	}

	candidates := idx.byNormalizedName[normalizeName(query)]
	switch len(candidates) {
	case 0:
		return Resolution{}
	case 1:
		return Resolution{Found: true, ExactName: candidates[0]}
	default:
		return Resolution{Ambiguous: true, Candidates: candidates}
	}
}

// FindCriteria are the conjunctive filters supported by Find.
type FindCriteria struct {
	Extension  string // matched via the extension index; fast path when alone
	Substring  string // matched against the normalized name
	Suffix     string // matched against the normalized name
	Regexp     *regexp.Regexp // matched against the exact name
	MaxResults int            // 0 means unlimited
}

// find evaluates criteria against the archive's entries, in
// central-directory order, honoring MaxResults.
func (idx *index) find(c FindCriteria) []string {
	var candidates []string

	onlyExtension := c.Extension != "" && c.Substring == "" && c.Suffix == "" && c.Regexp == nil
	if onlyExtension {
		candidates = append(candidates, idx.byExtension[strings.ToLower(c.Extension)]...)
		return capResults(candidates, c.MaxResults)
	}

	normSubstr := normalizeName(c.Substring)
	normSuffix := normalizeName(c.Suffix)

	for _, e := range idx.entries {
		if c.Extension != "" && extensionOf(e.Name) != strings.ToLower(c.Extension) {
			continue
		}
		norm := normalizeName(e.Name)
		if c.Substring != "" && !strings.Contains(norm, normSubstr) {
			continue
		}
		if c.Suffix != "" && !strings.HasSuffix(norm, normSuffix) {
			continue
		}
		if c.Regexp != nil && !c.Regexp.MatchString(e.Name) {
			continue
		}
		candidates = append(candidates, e.Name)
		if c.MaxResults > 0 && len(candidates) >= c.MaxResults {
			break
		}
	}

	return candidates
}

// findGlob translates a shell-style glob into an anchored,
// case-insensitive regexp ("*" matches any run of characters, including
// slashes; "?" matches one) and matches it against the exact name via
// find. An invalid pattern returns nil.
func (idx *index) findGlob(pattern string, maxResults int) []string {
	re, err := globToRegexp(pattern)
	if err != nil {
		return nil
	}
	return idx.find(FindCriteria{Regexp: re, MaxResults: maxResults})
}

func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

func capResults(names []string, max int) []string {
	if max > 0 && len(names) > max {
		return names[:max]
	}
	return names
}
