package adapter

import "github.com/3leaps/bucketfs/pkg/provider"

// Visibility is the public/private collapse of an object ACL.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ACLFromVisibility maps public to public-read and anything else to private.
func ACLFromVisibility(v Visibility) string {
	if v == VisibilityPublic {
		return provider.ACLPublicRead
	}
	return provider.ACLPrivate
}

// VisibilityFromACL maps public-read to public and any other ACL to private.
func VisibilityFromACL(acl string) Visibility {
	if acl == provider.ACLPublicRead {
		return VisibilityPublic
	}
	return VisibilityPrivate
}

// ParseVisibility validates a user-supplied visibility string.
func ParseVisibility(s string) (Visibility, bool) {
	switch Visibility(s) {
	case VisibilityPublic, VisibilityPrivate:
		return Visibility(s), true
	}
	return "", false
}
