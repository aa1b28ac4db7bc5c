package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"license-server/internal/data/entity"
	"license-server/pkg/objectstore"
	"license-server/pkg/utils"

	"go.uber.org/zap"
)

const (
	licenseKeyPrefix = "license-requests/"

	// SnapshotKey holds the whole fingerprint -> request mapping, rewritten
	// after every change for readers that expect a single document.
	SnapshotKey = "license_requests.json"
)

type LicenseRequestRepository interface {
	Load(ctx context.Context) (int, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*entity.LicenseRequest, error)
	FindByRequestID(ctx context.Context, requestID string) (*entity.LicenseRequest, error)
	Save(ctx context.Context, req *entity.LicenseRequest) error
	List(ctx context.Context) map[string]*entity.LicenseRequest
	CountByStatus(ctx context.Context, status entity.LicenseStatus) int
}

type licenseRequestRepository struct {
	mu          sync.RWMutex
	requests    map[string]*entity.LicenseRequest // by fingerprint
	byRequestID map[string]string                 // requestId -> fingerprint

	snapshotMu sync.Mutex
	store      objectstore.Store
	log        *zap.Logger
}

func NewLicenseRequestRepository(store objectstore.Store, log *zap.Logger) LicenseRequestRepository {
	return &licenseRequestRepository{
		requests:    make(map[string]*entity.LicenseRequest),
		byRequestID: make(map[string]string),
		store:       store,
		log:         log.With(zap.String("repository", "license_request")),
	}
}

func licenseKey(fingerprint string) string {
	return licenseKeyPrefix + utils.SHA256Hex(fingerprint)
}

// Load reads the per-fingerprint objects and merges in every snapshot entry
// that has no object of its own, so a registry written as one JSON file is
// picked up even after some of its entries were saved per key. Merged entries
// are written back as per-key objects.
func (r *licenseRequestRepository) Load(ctx context.Context) (int, error) {
	keys, err := r.store.ListKeys(ctx, licenseKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list license requests: %w", err)
	}

	loaded := make(map[string]*entity.LicenseRequest, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			r.log.Warn("Skipping unreadable license request", zap.String("key", key), zap.Error(err))
			continue
		}

		var req entity.LicenseRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Fingerprint == "" {
			r.log.Warn("Skipping malformed license request", zap.String("key", key), zap.Error(err))
			continue
		}
		loaded[req.Fingerprint] = &req
	}

	snapshot, err := r.loadSnapshot(ctx)
	if err != nil {
		if len(keys) == 0 {
			return 0, err
		}
		// per-key objects are the source of truth; a bad snapshot only loses the merge
		r.log.Warn("Ignoring unreadable license snapshot", zap.Error(err))
	}
	for fp, req := range snapshot {
		if _, ok := loaded[fp]; ok {
			continue
		}
		loaded[fp] = req
		r.backfill(ctx, req)
	}

	index := make(map[string]string, len(loaded))
	for fp, req := range loaded {
		if req.RequestID != "" {
			index[req.RequestID] = fp
		}
	}

	r.mu.Lock()
	r.requests = loaded
	r.byRequestID = index
	r.mu.Unlock()

	return len(loaded), nil
}

// backfill writes a snapshot-only request as its own object. A failure is
// logged; the entry is still merged from the snapshot on the next Load.
func (r *licenseRequestRepository) backfill(ctx context.Context, req *entity.LicenseRequest) {
	data, err := json.Marshal(req)
	if err == nil {
		err = r.store.Put(ctx, licenseKey(req.Fingerprint), data)
	}
	if err != nil {
		r.log.Warn("Failed to back-fill license request from snapshot",
			zap.Error(err),
			zap.String("fingerprint", req.Fingerprint))
	}
}

func (r *licenseRequestRepository) loadSnapshot(ctx context.Context) (map[string]*entity.LicenseRequest, error) {
	loaded := make(map[string]*entity.LicenseRequest)

	data, err := r.store.Get(ctx, SnapshotKey)
	if errors.Is(err, objectstore.ErrNotFound) {
		return loaded, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read license snapshot: %w", err)
	}

	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("decode license snapshot: %w", err)
	}
	for fp, req := range loaded {
		if req == nil {
			delete(loaded, fp)
			continue
		}
		req.Fingerprint = fp
	}
	return loaded, nil
}

// FindByFingerprint returns nil, nil when there is no request for the device.
func (r *licenseRequestRepository) FindByFingerprint(_ context.Context, fingerprint string) (*entity.LicenseRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.requests[fingerprint].Clone(), nil
}

// FindByRequestID returns nil, nil when the id is unknown.
func (r *licenseRequestRepository) FindByRequestID(_ context.Context, requestID string) (*entity.LicenseRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fp, ok := r.byRequestID[requestID]
	if !ok {
		return nil, nil
	}
	return r.requests[fp].Clone(), nil
}

// Save writes the request's own object, then updates the cache, then
// refreshes the snapshot. A snapshot failure is logged only; the
// per-fingerprint object is the source of truth.
func (r *licenseRequestRepository) Save(ctx context.Context, req *entity.LicenseRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode license request %s: %w", req.Fingerprint, err)
	}

	if err := r.store.Put(ctx, licenseKey(req.Fingerprint), data); err != nil {
		r.log.Error("Failed to persist license request",
			zap.Error(err),
			zap.String("fingerprint", req.Fingerprint),
			zap.String("request_id", req.RequestID),
		)
		return fmt.Errorf("save license request %s: %w", req.Fingerprint, err)
	}

	r.mu.Lock()
	if prev, ok := r.requests[req.Fingerprint]; ok && prev.RequestID != req.RequestID {
		delete(r.byRequestID, prev.RequestID)
	}
	r.requests[req.Fingerprint] = req.Clone()
	if req.RequestID != "" {
		r.byRequestID[req.RequestID] = req.Fingerprint
	}
	r.mu.Unlock()

	if err := r.writeSnapshot(ctx); err != nil {
		r.log.Warn("Failed to write license snapshot", zap.Error(err))
	}

	return nil
}

func (r *licenseRequestRepository) writeSnapshot(ctx context.Context) error {
	// serialised so the last writer always stores the newest state
	r.snapshotMu.Lock()
	defer r.snapshotMu.Unlock()

	data, err := json.MarshalIndent(r.List(ctx), "", "  ")
	if err != nil {
		return fmt.Errorf("encode license snapshot: %w", err)
	}
	return r.store.Put(ctx, SnapshotKey, data)
}

func (r *licenseRequestRepository) List(_ context.Context) map[string]*entity.LicenseRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*entity.LicenseRequest, len(r.requests))
	for fp, req := range r.requests {
		out[fp] = req.Clone()
	}
	return out
}

func (r *licenseRequestRepository) CountByStatus(_ context.Context, status entity.LicenseStatus) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, req := range r.requests {
		if req.Status == status {
			n++
		}
	}
	return n
}
