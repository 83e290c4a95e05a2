package kvstore

import "github.com/dgraph-io/badger/v4"

func (s *Store) DB() *badger.DB { return s.db }

func RecordKey(key []byte) []byte {
	return append(append([]byte{}, recordPrefix...), key...)
}
