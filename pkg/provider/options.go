package provider

import (
	"maps"
	"strings"
)

// Options carries per-request backend options keyed by header name.
//
// Providers translate the Option* keys they understand into native request
// fields and ignore the rest.
type Options map[string]string

// Request option names understood by providers.
const (
	OptionCacheControl         = "Cache-Control"
	OptionExpires              = "Expires"
	OptionServerSideEncryption = "x-amz-server-side-encryption"
	OptionMetadataDirective    = "x-amz-metadata-directive"
	OptionACL                  = "x-amz-acl"
	OptionContentType          = "Content-Type"
	OptionContentDisposition   = "Content-Disposition"
	OptionContentLanguage      = "Content-Language"
	OptionContentEncoding      = "Content-Encoding"
	OptionContentLength        = "Content-Length"

	// OptionCheckMD5 requests backend-side integrity verification of an
	// upload. Value "true" enables it.
	OptionCheckMD5 = "x-bucketfs-check-md5"
)

// Canned ACL values.
const (
	ACLPrivate    = "private"
	ACLPublicRead = "public-read"
	// ACLDefault means the object inherits the bucket ACL.
	ACLDefault = "default"
)

// Clone returns a shallow copy of o. A nil Options clones to an empty map.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	maps.Copy(out, o)
	return out
}

// Has reports whether name is set.
func (o Options) Has(name string) bool {
	_, ok := o[name]
	return ok
}

var knownOptions = []string{
	OptionCacheControl,
	OptionExpires,
	OptionServerSideEncryption,
	OptionMetadataDirective,
	OptionACL,
	OptionContentType,
	OptionContentDisposition,
	OptionContentLanguage,
	OptionContentEncoding,
	OptionContentLength,
	OptionCheckMD5,
}

// CanonicalOption returns the Option* constant matching name
// case-insensitively. Other names, such as x-amz-meta-* fields, are
// returned lower-cased.
func CanonicalOption(name string) string {
	for _, known := range knownOptions {
		if strings.EqualFold(name, known) {
			return known
		}
	}
	return strings.ToLower(name)
}

// Canonical returns a copy of o with every name passed through
// CanonicalOption.
func (o Options) Canonical() Options {
	out := make(Options, len(o))
	for name, value := range o {
		out[CanonicalOption(name)] = value
	}
	return out
}
