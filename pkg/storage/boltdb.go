package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/Qetrox/esp32-gps-follower/pkg/types"
)

var (
	// Single bucket of documents; each resource is one key
	bucketDocuments = []byte("documents")

	keyFix      = []byte("fix")
	keyNetworks = []byte("networks")
	keyPOIs     = []byte("pois")
	keyUIConfig = []byte("uiconfig")
)

// BoltStore implements Store using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the document database under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "follower.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDocuments)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// put marshals a document and overwrites it under key in one transaction.
func (s *BoltStore) put(key []byte, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDocuments).Put(key, data)
	})
}

// get unmarshals the document under key into out, or returns ErrNotFound.
func (s *BoltStore) get(key []byte, out any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketDocuments).Get(key)
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, out)
	})
}

func (s *BoltStore) PutFix(fix *types.Fix) error {
	return s.put(keyFix, fix)
}

func (s *BoltStore) GetFix() (*types.Fix, error) {
	var fix types.Fix
	if err := s.get(keyFix, &fix); err != nil {
		return nil, err
	}
	return &fix, nil
}

func (s *BoltStore) PutNetworks(networks []types.WifiNetwork) error {
	if networks == nil {
		networks = []types.WifiNetwork{}
	}
	return s.put(keyNetworks, networks)
}

func (s *BoltStore) GetNetworks() ([]types.WifiNetwork, error) {
	var networks []types.WifiNetwork
	if err := s.get(keyNetworks, &networks); err != nil {
		return nil, err
	}
	return networks, nil
}

func (s *BoltStore) PutPOIs(pois types.POIList) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDocuments).Put(keyPOIs, pois)
	})
}

func (s *BoltStore) GetPOIs() (types.POIList, error) {
	return s.getRaw(keyPOIs)
}

func (s *BoltStore) PutUIConfig(cfg types.UIConfig) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDocuments).Put(keyUIConfig, cfg)
	})
}

func (s *BoltStore) GetUIConfig() (types.UIConfig, error) {
	return s.getRaw(keyUIConfig)
}

// getRaw copies an opaque document out of the transaction; bolt memory is
// only valid while the transaction is open.
func (s *BoltStore) getRaw(key []byte) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketDocuments).Get(key)
		if data == nil {
			return ErrNotFound
		}
		out = append(json.RawMessage(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
