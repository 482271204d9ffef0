package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/tileflow/services/planning/internal/models"
)

// AlertRepository provides access to alerts
type AlertRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewAlertRepository creates a new repository
func NewAlertRepository(db *gorm.DB, readOnlyDB *gorm.DB) *AlertRepository {
	return &AlertRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// InsertIfAbsent inserts an alert unless an unread one with the same type,
// subject and severity already exists. The partial unique index on unread
// alerts makes the insert a no-op in that case. Returns true when a row
// was actually inserted.
func (r *AlertRepository) InsertIfAbsent(ctx context.Context, alert *models.Alert) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(alert)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to insert alert")
	}
	return result.RowsAffected > 0, nil
}

// GetByID gets an alert by ID
func (r *AlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	var alert models.Alert
	err := r.readOnlyDB.WithContext(ctx).First(&alert, id).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get alert by ID")
	}
	return &alert, nil
}

// List gets alerts newest first, optionally filtered to unread only
func (r *AlertRepository) List(ctx context.Context, unreadOnly bool, limit int) ([]models.Alert, error) {
	query := r.readOnlyDB.WithContext(ctx).Order("created_at DESC")
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var alerts []models.Alert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list alerts")
	}
	return alerts, nil
}

// ExistsForShipmentEvent reports whether an alert of the given type was
// ever created for the shipment, read or not. Transition alerts such as
// departures fire once per shipment, not once per unread window.
func (r *AlertRepository) ExistsForShipmentEvent(ctx context.Context, shipmentID uuid.UUID, alertType string) (bool, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.Alert{}).
		Where("shipment_id = ? AND type = ?", shipmentID, alertType).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check shipment alert existence")
	}
	return count > 0, nil
}

// MarkRead flags an alert as read
func (r *AlertRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("id = ?", id).
		Update("is_read", true)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to mark alert read")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead flags every unread alert as read and returns how many changed
func (r *AlertRepository) MarkAllRead(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("is_read = ?", false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to mark alerts read")
	}
	return result.RowsAffected, nil
}

// MarkSent flags alerts as delivered to the notification channel
func (r *AlertRepository) MarkSent(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("id IN ?", ids).
		Update("is_sent", true).Error
	return errors.Wrap(err, "failed to mark alerts sent")
}

// UnreadCount counts unread alerts per severity
func (r *AlertRepository) UnreadCount(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Severity string
		Count    int64
	}
	var rows []row
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.Alert{}).
		Select("severity, COUNT(*) AS count").
		Where("is_read = ?", false).
		Group("severity").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to count unread alerts")
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Severity] = r.Count
	}
	return counts, nil
}

// PendingDocumentRepository provides access to the quarantine for parsed
// documents that could not be matched to a shipment
type PendingDocumentRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewPendingDocumentRepository creates a new repository
func NewPendingDocumentRepository(db *gorm.DB, readOnlyDB *gorm.DB) *PendingDocumentRepository {
	return &PendingDocumentRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create quarantines a document
func (r *PendingDocumentRepository) Create(ctx context.Context, doc *models.PendingDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// GetByID gets a pending document by ID
func (r *PendingDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PendingDocument, error) {
	var doc models.PendingDocument
	err := r.readOnlyDB.WithContext(ctx).First(&doc, id).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pending document by ID")
	}
	return &doc, nil
}

// ListPending gets unresolved documents oldest first
func (r *PendingDocumentRepository) ListPending(ctx context.Context) ([]models.PendingDocument, error) {
	var docs []models.PendingDocument
	err := r.readOnlyDB.WithContext(ctx).
		Where("status = ?", models.PendingDocStatusPending).
		Order("created_at ASC").
		Find(&docs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending documents")
	}
	return docs, nil
}

// Save persists pending document changes
func (r *PendingDocumentRepository) Save(ctx context.Context, doc *models.PendingDocument) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

// ExpireOlderThan marks pending documents past their expiry as expired and
// returns how many changed
func (r *PendingDocumentRepository) ExpireOlderThan(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PendingDocument{}).
		Where("status = ? AND expires_at <= ?", models.PendingDocStatusPending, now).
		Update("status", models.PendingDocStatusExpired)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to expire pending documents")
	}
	return result.RowsAffected, nil
}
