package types

import "errors"

// Identifier status values. The enumeration matches the identifier service
// this index serves: reserved identifiers are minted but not yet live, public
// identifiers resolve normally, unavailable identifiers resolve to a
// tombstone.
const (
	StatusReserved    = "reserved"
	StatusPublic      = "public"
	StatusUnavailable = "unavailable"
)

// validStatuses is the set of recognized status values.
var validStatuses = map[string]bool{
	StatusReserved:    true,
	StatusPublic:      true,
	StatusUnavailable: true,
}

// Identifier entity errors.
var (
	ErrEmptyIdentifier  = errors.New("identifier must not be empty")
	ErrEmptyOwner       = errors.New("owner must not be empty")
	ErrTimeOrder        = errors.New("update time precedes create time")
	ErrInvalidStatus    = errors.New("invalid status value")
	ErrShadowIdentifier = errors.New("shadow identifiers are not indexed")
)

// Identifier is one row of the search index: a qualified, normalized
// persistent identifier with its ownership and the descriptive fields
// projected out of its citation metadata.
type Identifier struct {
	Identifier    string   // Scheme-qualified, normalized name. Primary key.
	Owner         string   // Agent identifier of the owner (required).
	CoOwners      []string // Agent identifiers of co-owners, if any.
	CreateTime    int64    // Creation instant, Unix seconds.
	UpdateTime    int64    // Last-update instant, Unix seconds.
	Status        string   // One of the Status constants.
	MappedTitle   string   // Title projected from citation metadata, if any.
	MappedCreator string   // Creator projected from citation metadata, if any.
}

// Validate checks the record invariants: non-empty identifier and owner,
// update time not before create time, and a recognized status. Returns a
// sentinel error from this package on failure.
func (id *Identifier) Validate() error {
	if id.Identifier == "" {
		return ErrEmptyIdentifier
	}
	if id.Owner == "" {
		return ErrEmptyOwner
	}
	if id.UpdateTime < id.CreateTime {
		return ErrTimeOrder
	}
	if !validStatuses[id.Status] {
		return ErrInvalidStatus
	}
	return nil
}

// SetStatus sets the lifecycle status.
// Returns ErrInvalidStatus if the value is not recognized.
func (id *Identifier) SetStatus(status string) error {
	if !validStatuses[status] {
		return ErrInvalidStatus
	}
	id.Status = status
	return nil
}

// OwnedBy reports whether the given agent is the owner or a co-owner.
func (id *Identifier) OwnedBy(agent string) bool {
	if agent == id.Owner {
		return true
	}
	for _, co := range id.CoOwners {
		if agent == co {
			return true
		}
	}
	return false
}

// AllOwners returns the owner followed by the co-owners, deduplicated and
// with empty entries dropped. Each returned agent corresponds to exactly one
// ownership row for this identifier.
func (id *Identifier) AllOwners() []string {
	seen := make(map[string]bool, len(id.CoOwners)+1)
	owners := make([]string, 0, len(id.CoOwners)+1)
	for _, agent := range append([]string{id.Owner}, id.CoOwners...) {
		if agent == "" || seen[agent] {
			continue
		}
		seen[agent] = true
		owners = append(owners, agent)
	}
	return owners
}

// HasMetadata reports whether both projected citation fields are present.
// Statistics bucket identifiers by this predicate.
func (id *Identifier) HasMetadata() bool {
	return id.MappedTitle != "" && id.MappedCreator != ""
}
