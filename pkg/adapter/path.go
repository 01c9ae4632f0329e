package adapter

import (
	"path"
	"strings"
)

// Separator is the pseudo-directory separator for object keys.
const Separator = "/"

// normalizePrefix trims surrounding separators and appends exactly one.
// An empty prefix stays empty.
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, Separator)
	if prefix == "" {
		return ""
	}
	return prefix + Separator
}

// ApplyPrefix converts an adapter path into an object key.
//
// Leading separators on p are dropped so the join never produces "//".
// A trailing separator is preserved.
func (a *Adapter) ApplyPrefix(p string) string {
	return a.prefix + strings.TrimLeft(p, Separator)
}

// StripPrefix converts an object key back into an adapter path.
// Keys outside the prefix are returned unchanged.
func (a *Adapter) StripPrefix(key string) string {
	return strings.TrimPrefix(key, a.prefix)
}

// dirKey returns the marker key of a directory: prefixed, one trailing separator.
func (a *Adapter) dirKey(dirname string) string {
	return strings.TrimRight(a.ApplyPrefix(dirname), Separator) + Separator
}

// listPrefix returns the key prefix to list for dirname. The bucket root
// (empty dirname) lists the configured prefix itself.
func (a *Adapter) listPrefix(dirname string) string {
	if strings.Trim(dirname, Separator) == "" {
		return a.prefix
	}
	return a.dirKey(dirname)
}

// parentDir returns the parent directory of p, or "" at top level.
func parentDir(p string) string {
	d := path.Dir(strings.TrimRight(p, Separator))
	if d == "." || d == Separator {
		return ""
	}
	return d
}
