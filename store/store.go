// Copyright 2025 The cd-player Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package store persists user preferences in a small bbolt database.
package store

import (
	"time"

	"github.com/cockroachdb/errors"
	"go.etcd.io/bbolt"
)

var (
	prefsBucket = []byte("prefs")
	lastSinkKey = []byte("lastSinkId")
)

// Store is the durable preference record. It is read once at startup
// and written only when the user explicitly selects a sink.
type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	options := &bbolt.Options{Timeout: 1 * time.Second}
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, errors.Wrap(err, "open preference database")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(prefsBucket)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "create prefs bucket")
	}

	return &Store{db: db}, nil
}

// LastSinkID returns the persisted sink id, or "" when none was saved.
func (s *Store) LastSinkID() (string, error) {
	var id string
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(prefsBucket).Get(lastSinkKey); v != nil {
			id = string(v)
		}
		return nil
	})
	return id, err
}

func (s *Store) SetLastSinkID(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(prefsBucket).Put(lastSinkKey, []byte(id))
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
