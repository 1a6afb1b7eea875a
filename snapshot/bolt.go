/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/Comcast/spok/util"

	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned for an unknown snapshot.
var ErrNotFound = errors.New("snapshot not found")

var bucket = []byte("snapshots")

// Store keeps Snapshots in a BoltDB file.
type Store struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

// NewStore makes a Store.  Call Open before using it.
func NewStore(filename string) *Store {
	return &Store{
		filename: filename,
	}
}

func (s *Store) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db

	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) logf(format string, args ...interface{}) {
	if s.Debug {
		util.Logf("snapshot.Store."+format, args...)
	}
}

// Put writes (or replaces) the snapshot.
func (s *Store) Put(ctx context.Context, snap *Snapshot) error {
	s.logf("Put %s (%d records)", snap.Name, len(snap.Records))
	js, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(snap.Name), js)
	})
}

// Get returns the named snapshot or ErrNotFound.
func (s *Store) Get(ctx context.Context, name string) (*Snapshot, error) {
	s.logf("Get %s", name)
	var snap *Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		bs := tx.Bucket(bucket).Get([]byte(name))
		if bs == nil {
			return ErrNotFound
		}
		snap = &Snapshot{}
		return json.Unmarshal(bs, snap)
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Delete removes the named snapshot or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.logf("Delete %s", name)
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b.Get([]byte(name)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(name))
	})
}

// Names returns the names of the snapshots in order.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	var acc []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			acc = append(acc, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logf("Names found %d", len(acc))
	return acc, nil
}
