package types

import "errors"

// Shoulder types: the identifier scheme a shoulder mints under.
const (
	ShoulderTypeARK = "ARK"
	ShoulderTypeDOI = "DOI"
)

// validShoulderTypes is the set of recognized shoulder types.
var validShoulderTypes = map[string]bool{
	ShoulderTypeARK: true,
	ShoulderTypeDOI: true,
}

// Shoulder entity errors.
var (
	ErrEmptyPrefix         = errors.New("shoulder prefix must not be empty")
	ErrInvalidShoulderType = errors.New("invalid shoulder type")
)

// Shoulder is a registered identifier namespace: every identifier minted
// under it extends its prefix. A shoulder may name a minter (the key of its
// minter state) or be mint-less, in which case names are assigned externally.
type Shoulder struct {
	Prefix          string // Scheme-qualified namespace, e.g. "ark:/99999/fk4". Primary key.
	Type            string // One of the ShoulderType constants.
	Name            string // Display name of the namespace holder.
	Minter          string // Minter state key; empty for mint-less shoulders.
	Datacenter      string // DOI registration datacenter symbol, if any.
	CrossrefEnabled bool   // DOI shoulder registers through Crossref.
	IsTest          bool   // Test namespace, excluded from statistics.
	IsSupershoulder bool   // Prefix covers sub-shoulders.
	Active          bool   // Accepts new identifiers.
	Manager         string // Administrative owner of the namespace.
}

// Validate checks the prefix is present and the type is recognized.
func (s *Shoulder) Validate() error {
	if s.Prefix == "" {
		return ErrEmptyPrefix
	}
	if !validShoulderTypes[s.Type] {
		return ErrInvalidShoulderType
	}
	return nil
}
