package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"license-server/internal/data/entity"
	"license-server/pkg/objectstore"

	"go.uber.org/zap"
)

// ActivationKey is the single activation slot. Every activation overwrites it.
const ActivationKey = "license.key"

type ActivationRepository interface {
	Save(ctx context.Context, record *entity.ActivationRecord) error
	Get(ctx context.Context) (*entity.ActivationRecord, error)
}

type activationRepository struct {
	mu    sync.Mutex
	store objectstore.Store
	log   *zap.Logger
}

func NewActivationRepository(store objectstore.Store, log *zap.Logger) ActivationRepository {
	return &activationRepository{
		store: store,
		log:   log.With(zap.String("repository", "activation")),
	}
}

func (r *activationRepository) Save(ctx context.Context, record *entity.ActivationRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode activation record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Put(ctx, ActivationKey, data); err != nil {
		r.log.Error("Failed to write activation record",
			zap.Error(err),
			zap.String("fingerprint", record.Fingerprint),
		)
		return fmt.Errorf("write activation record: %w", err)
	}
	return nil
}

// Get returns nil, nil when nothing has been activated yet.
func (r *activationRepository) Get(ctx context.Context) (*entity.ActivationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.store.Get(ctx, ActivationKey)
	if errors.Is(err, objectstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read activation record: %w", err)
	}

	var record entity.ActivationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode activation record: %w", err)
	}
	return &record, nil
}
