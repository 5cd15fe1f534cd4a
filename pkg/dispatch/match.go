package dispatch

import "strings"

// nameMatch reports whether pattern matches anywhere in name,
// case-insensitively. '*' matches any run of characters and '?' any
// single character. A plain pattern therefore behaves as a substring
// test. This deliberately stays far short of a regexp engine; the
// listing fallback only needs loose name filtering.
func nameMatch(pattern, name string) bool {
	p := strings.ToLower(pattern)
	n := strings.ToLower(name)
	for start := 0; start <= len(n); start++ {
		if matchHere(p, n[start:]) {
			return true
		}
	}
	return false
}

func matchHere(p, n string) bool {
	if p == "" {
		return true
	}
	if p[0] == '*' {
		for i := 0; i <= len(n); i++ {
			if matchHere(p[1:], n[i:]) {
				return true
			}
		}
		return false
	}
	if n == "" {
		return false
	}
	if p[0] == '?' || p[0] == n[0] {
		return matchHere(p[1:], n[1:])
	}
	return false
}
