package types

// OwnershipEntry is one row of the ownership fan-out: one (agent, identifier)
// pair per owner or co-owner of an identifier. The table is a derived index
// over the identifier table's Owner/CoOwners fields and is rebuilt inside the
// same transaction as every identifier write; it is never written directly.
type OwnershipEntry struct {
	Owner      string // Agent identifier (owner or co-owner).
	Identifier string // Identifier the agent has rights over.
}
