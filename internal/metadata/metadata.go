// Package metadata works with the element/value maps that travel on the
// update queue: the compressed internal labels the identifier service stores
// ("_o", "_is", ...), the citation profiles layered on top of them, and the
// projection of a title and creator out of a map for the search index.
package metadata

import "strings"

// labelMapping maps compressed (stored) element labels to their expanded
// forms.
var labelMapping = map[string]string{
	"_o":  "_owner",
	"_g":  "_ownergroup",
	"_co": "_coowners",
	"_c":  "_created",
	"_u":  "_updated",
	"_t":  "_target",
	"_p":  "_profile",
	"_is": "_status",
	"_x":  "_export",
	"_d":  "_datacenter",
	"_cr": "_crossref",
}

// reverseMapping maps expanded labels back to their compressed forms.
var reverseMapping = func() map[string]string {
	m := make(map[string]string, len(labelMapping))
	for compressed, expanded := range labelMapping {
		m[expanded] = compressed
	}
	return m
}()

// Metadata profiles.
const (
	ProfileERC      = "erc"
	ProfileDC       = "dc"
	ProfileDataCite = "datacite"
)

// Citation element candidates per profile, in projection priority order.
// The identifier's own profile is consulted first; the remaining profiles
// serve as fallbacks when an element was filled under another profile.
var (
	titleElements = map[string]string{
		ProfileERC:      "erc.what",
		ProfileDC:       "dc.title",
		ProfileDataCite: "datacite.title",
	}
	creatorElements = map[string]string{
		ProfileERC:      "erc.who",
		ProfileDC:       "dc.creator",
		ProfileDataCite: "datacite.creator",
	}
	profileOrder = []string{ProfileERC, ProfileDC, ProfileDataCite}
)

// Expand returns a copy of the map with compressed internal labels replaced
// by their expanded forms. Unrecognized keys pass through unchanged.
func Expand(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if expanded, ok := labelMapping[k]; ok {
			k = expanded
		}
		out[k] = v
	}
	return out
}

// Compress returns a copy of the map with expanded internal labels replaced
// by their compressed (stored) forms. Unrecognized keys pass through
// unchanged.
func Compress(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if compressed, ok := reverseMapping[k]; ok {
			k = compressed
		}
		out[k] = v
	}
	return out
}

// Profile returns the citation profile of an identifier's metadata: the
// explicit "_p" element when present, otherwise the scheme default (ERC for
// ARKs and UUID URNs, DataCite for DOIs). The map may be in compressed or
// expanded form.
func Profile(identifier string, m map[string]string) string {
	if p := firstOf(m, "_p", "_profile"); p != "" {
		return p
	}
	if strings.HasPrefix(identifier, "doi:") {
		return ProfileDataCite
	}
	return ProfileERC
}

// Map projects the denormalized (title, creator) pair out of a metadata map
// for the search index. The identifier's profile is consulted first, the
// other profiles in a fixed order after it. ERC missing-value codes such as
// "(:unav)" count as absent; an inline ANVL "erc" block supplies ERC
// elements the map lacks.
func Map(identifier string, m map[string]string) (title, creator string) {
	profile := Profile(identifier, m)

	order := make([]string, 0, len(profileOrder))
	order = append(order, profile)
	for _, p := range profileOrder {
		if p != profile {
			order = append(order, p)
		}
	}

	erc := parseERCBlock(m["erc"])
	lookup := func(elements map[string]string, ercKey string) string {
		for _, p := range order {
			if v := value(m[elements[p]]); v != "" {
				return v
			}
		}
		return value(erc[ercKey])
	}

	return lookup(titleElements, "what"), lookup(creatorElements, "who")
}

// IsMissingValue reports whether a value is an ERC missing-value code of the
// form "(:code)", e.g. "(:unav)" unavailable or "(:unap)" not applicable.
func IsMissingValue(v string) bool {
	v = strings.TrimSpace(v)
	return strings.HasPrefix(v, "(:") && strings.HasSuffix(v, ")")
}

// value normalizes an element value: trimmed, with missing-value codes
// reduced to the empty string.
func value(v string) string {
	v = strings.TrimSpace(v)
	if IsMissingValue(v) {
		return ""
	}
	return v
}

// parseERCBlock parses an inline ANVL block of "label: value" lines.
// Malformed lines are skipped.
func parseERCBlock(block string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(block, "\n") {
		label, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		out[label] = strings.TrimSpace(val)
	}
	return out
}

// firstOf returns the first non-empty value among the given keys.
func firstOf(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
