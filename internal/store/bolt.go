package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/dukerupert/shoplist/internal/model"
)

var listsBucket = []byte("lists")

// BoltBackend keeps list documents in a bbolt file, one key per list.
type BoltBackend struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the bolt file at path.
func OpenBolt(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(listsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltBackend{db: db}, nil
}

func (b *BoltBackend) Close() error {
	return b.db.Close()
}

func (b *BoltBackend) Create(_ context.Context, list *model.List) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(listsBucket)
		if bucket.Get([]byte(list.ID)) != nil {
			return fmt.Errorf("create list %s: already exists", list.ID)
		}
		return putList(bucket, list)
	})
}

func (b *BoltBackend) Load(_ context.Context, listID string) (*model.List, error) {
	var list *model.List
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		list, err = getList(tx.Bucket(listsBucket), listID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (b *BoltBackend) Update(_ context.Context, listID string, fn func(*model.List) error) (*model.List, error) {
	var list *model.List
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(listsBucket)
		var err error
		list, err = getList(bucket, listID)
		if err != nil {
			return err
		}
		if err := fn(list); err != nil {
			return err
		}
		return putList(bucket, list)
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (b *BoltBackend) Delete(_ context.Context, listID string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(listsBucket)
		if bucket.Get([]byte(listID)) == nil {
			return ErrListNotFound
		}
		return bucket.Delete([]byte(listID))
	})
}

func getList(bucket *bolt.Bucket, listID string) (*model.List, error) {
	data := bucket.Get([]byte(listID))
	if data == nil {
		return nil, ErrListNotFound
	}
	var list model.List
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode list %s: %w", listID, err)
	}
	if list.Items == nil {
		list.Items = []model.Item{}
	}
	return &list, nil
}

func putList(bucket *bolt.Bucket, list *model.List) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode list: %w", err)
	}
	return bucket.Put([]byte(list.ID), data)
}
