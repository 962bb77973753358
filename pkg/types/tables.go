package types

// Standard table names for Store.GetTable. The identifier and ownership
// tables keep the legacy names and column casing of the search database they
// mirror; the remaining tables follow house naming.
const (
	TableIdentifiers = "identifier"
	TableOwnership   = "ownership"
	TableQueue       = "update_queue"
	TableShoulders   = "shoulders"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	TableIdentifiers,
	TableOwnership,
	TableQueue,
	TableShoulders,
}
