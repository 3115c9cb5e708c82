package gridsync

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var resultsBucketName = []byte("results")

// BoltResultStore archives finished-race results in a bolt database, keyed
// by race ID, so a manager process can read them back without touching the
// JSON files on disk.
type BoltResultStore struct {
	db *bolt.DB
}

func NewBoltResultStore(path string) (*BoltResultStore, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second * 5})

	if err != nil {
		return nil, errors.Wrap(err, "could not open results store")
	}

	return &BoltResultStore{db: db}, nil
}

func (rs *BoltResultStore) Save(results *RaceResults) error {
	return rs.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(resultsBucketName)

		if err != nil {
			return errors.Wrap(err, "could not create results bucket")
		}

		encoded, err := json.Marshal(results)

		if err != nil {
			return errors.Wrap(err, "could not encode results")
		}

		return bucket.Put([]byte(results.RaceID.String()), encoded)
	})
}

func (rs *BoltResultStore) Load(raceID string) (*RaceResults, error) {
	var results *RaceResults

	err := rs.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(resultsBucketName)

		if bucket == nil {
			return ErrResultsNotFound
		}

		encoded := bucket.Get([]byte(raceID))

		if encoded == nil {
			return ErrResultsNotFound
		}

		return json.Unmarshal(encoded, &results)
	})

	if err != nil {
		return nil, err
	}

	return results, nil
}

func (rs *BoltResultStore) List() ([]*RaceResults, error) {
	var out []*RaceResults

	err := rs.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(resultsBucketName)

		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(_, encoded []byte) error {
			var results *RaceResults

			if err := json.Unmarshal(encoded, &results); err != nil {
				return err
			}

			out = append(out, results)

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (rs *BoltResultStore) Close() error {
	return rs.db.Close()
}
