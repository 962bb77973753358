package sqlite

// Table definitions for the identifier index store. The identifier and
// ownership tables are the legacy contract and keep their original column
// names; supplementary tables use snake_case.

const createIdentifier = `CREATE TABLE IF NOT EXISTS identifier (
	identifier TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	coOwners TEXT,
	createTime INTEGER NOT NULL,
	updateTime INTEGER NOT NULL,
	status TEXT NOT NULL,
	mappedTitle TEXT,
	mappedCreator TEXT
);`

const createOwnership = `CREATE TABLE IF NOT EXISTS ownership (
	owner TEXT NOT NULL,
	identifier TEXT NOT NULL
);`

const createUpdateQueue = `CREATE TABLE IF NOT EXISTS update_queue (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	identifier TEXT NOT NULL,
	metadata TEXT,
	operation TEXT NOT NULL,
	enqueue_time INTEGER NOT NULL
);`

const createShoulders = `CREATE TABLE IF NOT EXISTS shoulders (
	prefix TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	name TEXT NOT NULL,
	minter TEXT,
	datacenter TEXT,
	crossref_enabled INTEGER NOT NULL DEFAULT 0,
	is_test INTEGER NOT NULL DEFAULT 0,
	is_supershoulder INTEGER NOT NULL DEFAULT 0,
	active INTEGER NOT NULL DEFAULT 1,
	manager TEXT
);`

const createStatistics = `CREATE TABLE IF NOT EXISTS statistics (
	month TEXT NOT NULL,
	owner TEXT NOT NULL,
	type TEXT NOT NULL,
	has_metadata INTEGER NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY (month, owner, type, has_metadata)
);`

const createStoreMeta = `CREATE TABLE IF NOT EXISTS store_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

const idxIdentifierOwner = `CREATE INDEX IF NOT EXISTS identifier_owner_idx ON identifier (owner);`

const idxOwnershipOwner = `CREATE INDEX IF NOT EXISTS ownership_owner_idx ON ownership (owner);`

const idxOwnershipIdentifier = `CREATE INDEX IF NOT EXISTS ownership_identifier_idx ON ownership (identifier);`

const idxQueueIdentifier = `CREATE INDEX IF NOT EXISTS update_queue_identifier_idx ON update_queue (identifier);`

const idxShouldersType = `CREATE INDEX IF NOT EXISTS shoulders_type_idx ON shoulders (type);`

// schemaDDL lists the CREATE TABLE statements executed on attach, in
// dependency order.
var schemaDDL = []string{
	createIdentifier,
	createOwnership,
	createUpdateQueue,
	createShoulders,
	createStatistics,
	createStoreMeta,
}

// indexDDL lists the CREATE INDEX statements executed after the tables
// exist.
var indexDDL = []string{
	idxIdentifierOwner,
	idxOwnershipOwner,
	idxOwnershipIdentifier,
	idxQueueIdentifier,
	idxShouldersType,
}
