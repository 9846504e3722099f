package registry

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Kumarpriyam05/GeoSentinel/apperror"
	"github.com/Kumarpriyam05/GeoSentinel/auth"
	"github.com/Kumarpriyam05/GeoSentinel/store"
)

const (
	registerAttempts = 5
	bcryptCost       = 12

	// HistoryDefaultLimit is applied when a history query names no limit;
	// HistoryMaxLimit caps whatever the caller asks for.
	HistoryDefaultLimit = 150
	HistoryMaxLimit     = 500
)

// Filter narrows a device listing.
type Filter struct {
	// Search matches name or tracking identifier, case-insensitively.
	Search string
	// Status is one of "", "all", "online", "offline".
	Status string
}

// Registry owns device identity, credentials, presence and history access.
type Registry struct {
	db   *gorm.DB
	mint func() (string, string, error)
}

// New builds a registry over the given database.
func New(db *gorm.DB) *Registry {
	return &Registry{db: db, mint: mintCredentials}
}

// Register creates a device for the owner and returns it together with the
// raw ingest key. The key is never retrievable again. Identifier collisions
// are retried a bounded number of times before giving up with a conflict.
func (r *Registry) Register(ctx context.Context, ownerID, name string) (*store.Device, string, error) {
	for attempt := 0; attempt < registerAttempts; attempt++ {
		trackingID, ingestKey, err := r.mint()
		if err != nil {
			return nil, "", err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(ingestKey), bcryptCost)
		if err != nil {
			return nil, "", err
		}

		device := &store.Device{
			UserID:        ownerID,
			Name:          strings.TrimSpace(name),
			TrackingID:    trackingID,
			IngestKeyHash: string(hash),
		}
		err = r.db.WithContext(ctx).Create(device).Error
		if err == nil {
			return device, ingestKey, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", err
		}
	}
	return nil, "", apperror.Conflict("Could not allocate a unique tracking ID. Please retry.")
}

// FindByTrackingID loads a device by its public tracking identifier.
func (r *Registry) FindByTrackingID(ctx context.Context, trackingID string) (*store.Device, error) {
	var device store.Device
	err := r.db.WithContext(ctx).Where("tracking_id = ?", trackingID).First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Invalid trackingId")
		}
		return nil, err
	}
	return &device, nil
}

// FindScoped loads a device visible to the identity: admins reach any
// device, other callers only their own. A device outside the caller's scope
// is indistinguishable from a missing one.
func (r *Registry) FindScoped(ctx context.Context, identity auth.Identity, deviceID string) (*store.Device, error) {
	q := r.db.WithContext(ctx).Where("id = ?", deviceID)
	if !identity.IsAdmin() {
		q = q.Where("user_id = ?", identity.UserID)
	}
	var device store.Device
	if err := q.First(&device).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Device not found")
		}
		return nil, err
	}
	return &device, nil
}

// List returns the devices visible to the identity, newest-updated first.
func (r *Registry) List(ctx context.Context, identity auth.Identity, filter Filter) ([]store.Device, error) {
	q := r.db.WithContext(ctx).Model(&store.Device{})
	if !identity.IsAdmin() {
		q = q.Where("user_id = ?", identity.UserID)
	}
	switch filter.Status {
	case "online":
		q = q.Where("is_online = ?", true)
	case "offline":
		q = q.Where("is_online = ?", false)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		needle := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(tracking_id) LIKE ?", needle, needle)
	}

	var devices []store.Device
	if err := q.Order("updated_at DESC").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// Rename updates the display name.
func (r *Registry) Rename(ctx context.Context, device *store.Device, name string) error {
	device.Name = strings.TrimSpace(name)
	return r.db.WithContext(ctx).Save(device).Error
}

// SetOnline flips presence on explicitly and touches last-active. Turning
// presence off routes through the tracking engine's offline transition
// instead, so the status broadcast fires.
func (r *Registry) SetOnline(ctx context.Context, device *store.Device) error {
	now := time.Now().UTC()
	device.IsOnline = true
	device.LastActiveAt = &now
	return r.db.WithContext(ctx).Save(device).Error
}

// Delete removes a device and every history row it owns.
func (r *Registry) Delete(ctx context.Context, device *store.Device) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("device_id = ?", device.ID).Delete(&store.LocationHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&store.Device{}, "id = ?", device.ID).Error
	})
}

// History returns the device's recorded points, newest first. The limit is
// clamped to HistoryMaxLimit; non-positive limits fall back to the default.
func (r *Registry) History(ctx context.Context, deviceID string, limit int) ([]store.LocationHistory, error) {
	if limit <= 0 {
		limit = HistoryDefaultLimit
	}
	if limit > HistoryMaxLimit {
		limit = HistoryMaxLimit
	}
	var rows []store.LocationHistory
	err := r.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("captured_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// VerifyIngestKey checks a supplied raw key against the stored hash.
func (r *Registry) VerifyIngestKey(device *store.Device, key string) error {
	if bcrypt.CompareHashAndPassword([]byte(device.IngestKeyHash), []byte(key)) != nil {
		return apperror.Authentication("Invalid device key")
	}
	return nil
}

// AuthorizedDeviceIDs intersects the candidate ids with the ids the identity
// may view. Admins keep the full candidate set; unauthorized ids are dropped
// silently.
func (r *Registry) AuthorizedDeviceIDs(ctx context.Context, identity auth.Identity, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if identity.IsAdmin() {
		out := make([]string, len(candidates))
		copy(out, candidates)
		return out, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&store.Device{}).
		Where("id IN ? AND user_id = ?", candidates, identity.UserID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SaveDevice persists a device snapshot mutation for the tracking engine.
func (r *Registry) SaveDevice(ctx context.Context, device *store.Device) error {
	return r.db.WithContext(ctx).Save(device).Error
}

// AppendHistory writes one immutable history row.
func (r *Registry) AppendHistory(ctx context.Context, row *store.LocationHistory) error {
	return r.db.WithContext(ctx).Create(row).Error
}
