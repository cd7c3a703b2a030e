package history

import (
	"encoding/binary"
	"encoding/json"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("turns")

// BoltStore persists the conversation log to a BoltDB file on disk.
// Keys are big-endian bucket sequence numbers, so byte order is insertion
// order. bbolt's file lock rejects a second opener, which is the only
// cross-process guard this single-writer design relies on.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) a BoltDB database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	// Ensure the bucket exists.
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Append(turn Turn) error {
	raw, err := json.Marshal(turn)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		seq, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		return bkt.Put(seqKey(seq), raw)
	})
}

func (b *BoltStore) ForEach(fn func(Turn) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			var turn Turn
			if err := json.Unmarshal(v, &turn); err != nil {
				return err
			}
			return fn(turn)
		})
	})
}

func (b *BoltStore) All() ([]Turn, error) {
	return collect(b)
}

func (b *BoltStore) Clear() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketName); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
}

func (b *BoltStore) Summary() (Summary, error) {
	return summarize(b)
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}

// seqKey encodes a bucket sequence number as a fixed-width big-endian key.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
