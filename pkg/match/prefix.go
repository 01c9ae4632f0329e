package match

import "strings"

// IsGlobPattern reports whether pattern contains an unescaped glob
// metacharacter (* ? [ {).
func IsGlobPattern(pattern string) bool {
	return firstMeta(pattern) != -1
}

// DerivePrefix returns the static directory portion of a glob pattern,
// with escapes removed. A pattern without metacharacters is returned
// unescaped in full.
//
//	"docs/2024/**/*.md" → "docs/2024/"
//	"*.json"            → ""
//	"data/file\*.txt"   → "data/file*.txt"
func DerivePrefix(pattern string) string {
	i := firstMeta(pattern)
	if i == -1 {
		return unescape(pattern)
	}
	slash := strings.LastIndex(pattern[:i], "/")
	if slash < 0 {
		return ""
	}
	return unescape(pattern[:slash+1])
}

func firstMeta(pattern string) int {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			if i+1 < len(pattern) {
				i++
			}
		case '*', '?', '[', '{':
			return i
		}
	}
	return -1
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && strings.IndexByte(`*?[]{}\`, s[i+1]) >= 0 {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
