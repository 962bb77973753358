// Package scheme handles the qualified persistent-identifier forms the index
// accepts: ARKs, DOIs, and UUID URNs. It normalizes identifiers to their
// canonical casing, classifies them, converts between DOIs and their shadow
// ARK form, and recognizes the reserved test namespaces.
package scheme

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Scheme names returned by Of.
const (
	ARK  = "ark"
	DOI  = "doi"
	UUID = "uuid"
)

// Test namespaces. Identifiers under these prefixes never count toward
// statistics.
const (
	TestArkPrefix      = "ark:/99999/fk4"
	TestDOIPrefix      = "doi:10.5072/FK2"
	TestCrossrefPrefix = "doi:10.15072/FK2"
)

// Public resolvers for the URL form of an identifier.
const (
	resolverARK = "https://n2t.net"
	resolverDOI = "https://doi.org"
)

var (
	ErrUnknownScheme = errors.New("unknown identifier scheme")
	ErrMalformed     = errors.New("malformed identifier")
)

// Of returns the scheme of a qualified identifier ("ark", "doi", "uuid"),
// or the empty string if the scheme is not recognized. The scheme prefix
// matches case-insensitively; Normalize lowercases it.
func Of(identifier string) string {
	lower := strings.ToLower(identifier)
	switch {
	case strings.HasPrefix(lower, "ark:/"):
		return ARK
	case strings.HasPrefix(lower, "doi:"):
		return DOI
	case strings.HasPrefix(lower, "uuid:"):
		return UUID
	default:
		return ""
	}
}

// Normalize returns the canonical form of a qualified identifier: ARKs are
// lowercased, DOIs keep the "doi:" prefix with the remainder uppercased, and
// UUID URNs are reduced to their canonical hex form. The identifier must
// carry a name part after its namespace.
func Normalize(identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	switch Of(identifier) {
	case ARK:
		body := identifier[len("ark:/"):]
		naan, name, ok := strings.Cut(body, "/")
		if !ok || naan == "" || name == "" {
			return "", fmt.Errorf("%w: %q", ErrMalformed, identifier)
		}
		return "ark:/" + strings.ToLower(body), nil
	case DOI:
		body := identifier[len("doi:"):]
		if !strings.HasPrefix(body, "10.") {
			return "", fmt.Errorf("%w: %q", ErrMalformed, identifier)
		}
		registrant, name, ok := strings.Cut(body[len("10."):], "/")
		if !ok || registrant == "" || name == "" {
			return "", fmt.Errorf("%w: %q", ErrMalformed, identifier)
		}
		return "doi:" + strings.ToUpper(body), nil
	case UUID:
		u, err := uuid.Parse(identifier[len("uuid:"):])
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrMalformed, identifier)
		}
		return "uuid:" + u.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScheme, identifier)
	}
}

// IsShadowArk reports whether the identifier is the shadow ARK form of a
// DOI: an ARK whose NAAN is "b" followed by the DOI registrant digits.
// Shadow ARKs are an internal aliasing device and are never indexed.
func IsShadowArk(identifier string) bool {
	if !strings.HasPrefix(identifier, "ark:/b") {
		return false
	}
	naan, _, ok := strings.Cut(identifier[len("ark:/"):], "/")
	if !ok || len(naan) < 2 {
		return false
	}
	for _, c := range naan[1:] {
		if (c < '0' || c > '9') && c != '.' {
			return false
		}
	}
	return true
}

// DOIToShadow converts a qualified DOI to its shadow ARK form:
// "doi:10.NNNN/SUFFIX" becomes "ark:/bNNNN/suffix".
func DOIToShadow(doi string) (string, error) {
	normalized, err := Normalize(doi)
	if err != nil {
		return "", err
	}
	if Of(normalized) != DOI {
		return "", fmt.Errorf("%w: %q is not a DOI", ErrMalformed, doi)
	}
	body := normalized[len("doi:10."):]
	registrant, name, _ := strings.Cut(body, "/")
	return "ark:/b" + registrant + "/" + strings.ToLower(name), nil
}

// ShadowToDOI converts a shadow ARK back to its qualified DOI form.
func ShadowToDOI(shadow string) (string, error) {
	if !IsShadowArk(shadow) {
		return "", fmt.Errorf("%w: %q is not a shadow ARK", ErrMalformed, shadow)
	}
	body := shadow[len("ark:/b"):]
	registrant, name, _ := strings.Cut(body, "/")
	return "doi:10." + registrant + "/" + strings.ToUpper(name), nil
}

// IsTest reports whether a qualified identifier falls under one of the
// reserved test namespaces.
func IsTest(identifier string) bool {
	return strings.HasPrefix(identifier, TestArkPrefix) ||
		strings.HasPrefix(identifier, TestDOIPrefix) ||
		strings.HasPrefix(identifier, TestCrossrefPrefix)
}

// URLForm returns the resolver URL of a qualified identifier, or "[None]"
// if no resolver serves its scheme. ARKs resolve with their scheme prefix,
// DOIs without it.
func URLForm(identifier string) string {
	switch Of(identifier) {
	case ARK:
		return resolverARK + "/" + escapePath(identifier)
	case DOI:
		return resolverDOI + "/" + escapePath(identifier[len("doi:"):])
	default:
		return "[None]"
	}
}

// DefaultTargetURL returns the target URL an identifier resolves to when its
// owner has set none: the service's own view page.
func DefaultTargetURL(baseURL, identifier string) string {
	return strings.TrimSuffix(baseURL, "/") + "/id/" + escapePath(identifier)
}

// TombstoneTargetURL returns the target URL for an unavailable identifier.
func TombstoneTargetURL(baseURL, identifier string) string {
	return strings.TrimSuffix(baseURL, "/") + "/tombstone/id/" + escapePath(identifier)
}

// escapePath percent-encodes an identifier for use in a URL path, keeping
// ":" and "/" literal.
func escapePath(s string) string {
	escaped := url.PathEscape(s)
	escaped = strings.ReplaceAll(escaped, "%2F", "/")
	return strings.ReplaceAll(escaped, "%3A", ":")
}
