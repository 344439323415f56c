package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/chatgate/internal/client/storage"
)

// SaveTrail запоминает момент последнего просмотра аудита, ключ - URL сервера
func (s *Storage) SaveTrail(ctx context.Context, t *storage.ServerTrail) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTrails)
		if bucket == nil {
			return fmt.Errorf("trails bucket not found")
		}

		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal trail: %w", err)
		}
		return bucket.Put([]byte(t.ServerURL), data)
	})
}

func (s *Storage) GetTrail(ctx context.Context, serverURL string) (*storage.ServerTrail, error) {
	var t *storage.ServerTrail

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTrails)
		if bucket == nil {
			return fmt.Errorf("trails bucket not found")
		}

		data := bucket.Get([]byte(serverURL))
		if data == nil {
			return storage.ErrTrailNotFound
		}

		t = &storage.ServerTrail{}
		if err := json.Unmarshal(data, t); err != nil {
			return fmt.Errorf("failed to unmarshal trail: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}
