// Package minter mints identifier names under registered shoulders. Each
// minter's spray state lives in a Badger database keyed by minter name, and
// every mint advances the state in a single transaction, so concurrent mints
// never hand out the same name twice.
package minter

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// keyPrefix namespaces minter state inside the Badger keyspace.
const keyPrefix = "minter/"

var (
	ErrNotFound = errors.New("minter not found")
	ErrExists   = errors.New("minter already exists")
)

// Store holds minter states in a Badger database.
type Store struct {
	db *badger.DB
}

// Open opens the minter database in dir, creating it as needed. An empty dir
// opens an in-memory database, which is what the tests use.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening minter database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create registers a new minter under the given name with the given
// template. Returns ErrExists if the name is taken.
func (s *Store) Create(name, template string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrBadTemplate)
	}
	st, err := newState(template)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(keyPrefix + name)
		_, err := txn.Get(key)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrExists, name)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return writeState(txn, key, st)
	})
}

// Get returns a copy of the named minter's state.
func (s *Store) Get(name string) (*State, error) {
	var st *State
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		st, err = readState(txn, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Remove deletes the named minter.
func (s *Store) Remove(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(keyPrefix + name)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// Names lists the registered minters.
func (s *Store) Names() ([]string, error) {
	names := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			names = append(names, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing minters: %w", err)
	}
	return names, nil
}

// Mint mints one name from the named minter.
func (s *Store) Mint(name string) (string, error) {
	minted, err := s.MintMany(name, 1)
	if err != nil {
		return "", err
	}
	return minted[0], nil
}

// MintMany mints count names in one transaction. Either all names are
// minted and the state advances past them, or none are.
func (s *Store) MintMany(name string, count int) ([]string, error) {
	if count < 1 {
		return nil, fmt.Errorf("mint count must be positive, got %d", count)
	}
	minted := make([]string, 0, count)
	err := s.db.Update(func(txn *badger.Txn) error {
		st, err := readState(txn, name)
		if err != nil {
			return err
		}
		for i := 0; i < count; i++ {
			next, err := st.next()
			if err != nil {
				return err
			}
			minted = append(minted, next)
		}
		return writeState(txn, []byte(keyPrefix+name), st)
	})
	if err != nil {
		return nil, err
	}
	return minted, nil
}

// Preview returns the next count names without advancing the minter.
func (s *Store) Preview(name string, count int) ([]string, error) {
	if count < 1 {
		return nil, fmt.Errorf("preview count must be positive, got %d", count)
	}
	minted := make([]string, 0, count)
	err := s.db.View(func(txn *badger.Txn) error {
		st, err := readState(txn, name)
		if err != nil {
			return err
		}
		for i := 0; i < count; i++ {
			next, err := st.next()
			if err != nil {
				return err
			}
			minted = append(minted, next)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return minted, nil
}

// Forward mints names until the taken predicate rejects one, advancing the
// state past every name it hands out. It returns the first available name.
// Used when the minter state has fallen behind identifiers created
// elsewhere.
func (s *Store) Forward(name string, taken func(string) (bool, error)) (string, error) {
	var minted string
	err := s.db.Update(func(txn *badger.Txn) error {
		st, err := readState(txn, name)
		if err != nil {
			return err
		}
		for {
			next, err := st.next()
			if err != nil {
				return err
			}
			used, err := taken(next)
			if err != nil {
				return err
			}
			if !used {
				minted = next
				break
			}
		}
		return writeState(txn, []byte(keyPrefix+name), st)
	})
	if err != nil {
		return "", err
	}
	return minted, nil
}

// readState fetches and decodes one minter state inside a transaction. The
// decoded copy is the caller's to mutate.
func readState(txn *badger.Txn, name string) (*State, error) {
	item, err := txn.Get([]byte(keyPrefix + name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading minter state: %w", err)
	}
	var st State
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &st)
	})
	if err != nil {
		return nil, fmt.Errorf("decoding minter state: %w", err)
	}
	return &st, nil
}

// writeState encodes and stores one minter state inside a transaction.
func writeState(txn *badger.Txn, key []byte, st *State) error {
	val, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding minter state: %w", err)
	}
	return txn.Set(key, val)
}
