package callgraph

import "strings"

// normalizePath applies spec.md §4.8's lenient normalizations: backslashes to
// '/', collapsed "//", and a stripped leading "./" or "/".
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	p = strings.TrimPrefix(p, "/")
	return p
}

func pathSegments(p string) []string {
	return strings.Split(normalizePath(p), "/")
}

func equalSegs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// resolveLenient implements spec.md §4.8's lenient fallback chain: normalized
// exact match, then case-insensitive, then basename+segment-suffix match
// (the most-specific unique suffix). matched is the candidate's original
// (un-normalized) path, level names which fallback succeeded (used to decide
// whether a warning diagnostic is owed), and ok reports overall success.
func resolveLenient(target string, indexed []string) (matched string, level string, ok bool) {
	norm := normalizePath(target)

	for _, cand := range indexed {
		if normalizePath(cand) == norm {
			return cand, "normalized", true
		}
	}

	lowerNorm := strings.ToLower(norm)
	for _, cand := range indexed {
		if strings.ToLower(normalizePath(cand)) == lowerNorm {
			return cand, "case-insensitive", true
		}
	}

	targetSegs := pathSegments(target)
	for suffixLen := len(targetSegs); suffixLen >= 1; suffixLen-- {
		targetSuffix := targetSegs[len(targetSegs)-suffixLen:]
		var matches []string
		for _, cand := range indexed {
			segs := pathSegments(cand)
			if len(segs) < suffixLen {
				continue
			}
			if equalSegs(segs[len(segs)-suffixLen:], targetSuffix) {
				matches = append(matches, cand)
			}
		}
		if len(matches) == 1 {
			return matches[0], "suffix", true
		}
		if len(matches) > 1 {
			// Ambiguous at this specificity; a shorter suffix only admits more
			// candidates, so resolution fails here rather than continuing.
			return "", "suffix", false
		}
	}
	return "", "", false
}

// nearestCandidates returns up to n of indexed's paths ordered by longest
// common prefix with target (a simple, deterministic proximity heuristic for
// the strict-mode failure report), ties broken lexicographically.
func nearestCandidates(target string, indexed []string, n int) []string {
	type scored struct {
		path  string
		score int
	}
	scores := make([]scored, len(indexed))
	for i, p := range indexed {
		scores[i] = scored{path: p, score: commonPrefixLen(target, p)}
	}
	for i := 1; i < len(scores); i++ {
		for j := i; j > 0; j-- {
			a, b := scores[j-1], scores[j]
			if a.score < b.score || (a.score == b.score && a.path > b.path) {
				scores[j-1], scores[j] = scores[j], scores[j-1]
			} else {
				break
			}
		}
	}
	if len(scores) > n {
		scores = scores[:n]
	}
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.path
	}
	return out
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
