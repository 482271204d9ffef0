package models

import (
	"time"

	"github.com/google/uuid"
)

// Alert types, the closed set emitted by the generator
const (
	AlertStockoutWarning  = "STOCKOUT_WARNING"
	AlertLowStock         = "LOW_STOCK"
	AlertOrderOpportunity = "ORDER_OPPORTUNITY"
	AlertShipmentDeparted = "SHIPMENT_DEPARTED"
	AlertShipmentArrived  = "SHIPMENT_ARRIVED"
	AlertFreeDaysExpiring = "FREE_DAYS_EXPIRING"
	AlertShipmentDelayed  = "SHIPMENT_DELAYED"
	AlertContainerReady   = "CONTAINER_READY"
	AlertOverStocked      = "OVER_STOCKED"
)

// Alert severities
const (
	SeverityCritical = "CRITICAL"
	SeverityWarning  = "WARNING"
	SeverityInfo     = "INFO"
)

// AlertSeverityRank orders severities so escalation checks can compare them
var AlertSeverityRank = map[string]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityCritical: 2,
}

// Pending document statuses
const (
	PendingDocStatusPending  = "PENDING"
	PendingDocStatusResolved = "RESOLVED"
	PendingDocStatusExpired  = "EXPIRED"
)

// PendingDocExpiryDays is how long an unmatched document stays in the
// quarantine queue before the expiry sweep closes it.
const PendingDocExpiryDays = 30

// Alert is a derived notification row. Alerts are generated, never
// user-authored.
type Alert struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	Type       string     `gorm:"not null;index" json:"type"`
	Severity   string     `gorm:"not null" json:"severity"`
	Title      string     `gorm:"not null" json:"title"`
	Message    string     `gorm:"not null" json:"message"`
	ProductID  *uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	ShipmentID *uuid.UUID `gorm:"type:uuid;index" json:"shipment_id"`
	IsRead     bool       `gorm:"not null;default:false;index" json:"is_read"`
	IsSent     bool       `gorm:"not null;default:false" json:"is_sent"`
}

// PendingDocument quarantines an externally parsed document (booking
// confirmation, bill of lading) that could not be matched to a shipment.
// Resolution is external and records the assigned shipment or a discard.
type PendingDocument struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	DocumentType string  `gorm:"not null" json:"document_type"`
	RawPayload   []byte  `gorm:"type:jsonb;not null" json:"raw_payload"`

	// Matching attempt context: the references that were tried
	BookingNumberTried   *string `json:"booking_number_tried"`
	SHPNumberTried       *string `gorm:"column:shp_number_tried" json:"shp_number_tried"`
	ContainerNumberTried *string `json:"container_number_tried"`

	Status    string    `gorm:"not null;default:PENDING;index" json:"status"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`

	ResolvedShipmentID *uuid.UUID `gorm:"type:uuid" json:"resolved_shipment_id"`
	ResolvedAt         *time.Time `json:"resolved_at"`
	Discarded          bool       `gorm:"not null;default:false" json:"discarded"`
	Notes              *string    `json:"notes"`
}
