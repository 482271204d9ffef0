package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product categories
const (
	CategoryWoodLook   = "WOOD_LOOK"
	CategoryExterior   = "EXTERIOR"
	CategoryMarbleLook = "MARBLE_LOOK"
	CategoryFurniture  = "FURNITURE"
	CategorySink       = "SINK"
	CategorySurcharge  = "SURCHARGE"
	CategoryOther      = "OTHER"
)

// Product rotation tiers (demand velocity)
const (
	RotationHigh    = "HIGH"
	RotationMedHigh = "MED_HIGH"
	RotationMed     = "MED"
	RotationLow     = "LOW"
)

// Factory order lifecycle statuses
const (
	OrderStatusPending      = "PENDING"
	OrderStatusConfirmed    = "CONFIRMED"
	OrderStatusInProduction = "IN_PRODUCTION"
	OrderStatusReady        = "READY"
	OrderStatusShipped      = "SHIPPED"
)

// FactoryOrderStatusOrder ranks order statuses; the lifecycle is monotonic
// and may never move to a lower rank.
var FactoryOrderStatusOrder = map[string]int{
	OrderStatusPending:      0,
	OrderStatusConfirmed:    1,
	OrderStatusInProduction: 2,
	OrderStatusReady:        3,
	OrderStatusShipped:      4,
}

// Production schedule entry statuses, sourced from the factory's
// externally color-coded planning sheet.
const (
	ScheduleStatusScheduled  = "SCHEDULED"
	ScheduleStatusInProgress = "IN_PROGRESS"
	ScheduleStatusCompleted  = "COMPLETED"
)

// Product is a floor-tile SKU in the catalog
type Product struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	SKU       string         `gorm:"not null;uniqueIndex" json:"sku"`
	Category  string         `gorm:"not null" json:"category"`
	Rotation  *string        `json:"rotation"`
	Active    bool           `gorm:"not null;default:true" json:"active"`
	// OwnerCode is the external partner's code for this SKU; several SKUs
	// may share one owner code and it may be absent entirely.
	OwnerCode *string `gorm:"index" json:"owner_code"`

	Snapshots []InventorySnapshot `gorm:"foreignKey:ProductID" json:"-"`
	Sales     []Sale              `gorm:"foreignKey:ProductID" json:"-"`
}

// InventorySnapshot is a point-in-time inventory position for a product.
// Rows are append-only; the latest snapshot per product is the current
// position.
type InventorySnapshot struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_snapshots_product_date" json:"product_id"`
	SnapshotDate time.Time       `gorm:"not null;index:idx_snapshots_product_date" json:"snapshot_date"`
	WarehouseQty decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"warehouse_qty"`
	InTransitQty decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"in_transit_qty"`
	Product      Product         `gorm:"foreignKey:ProductID" json:"-"`
}

// Sale is the quantity sold for a product in the week starting WeekStart
type Sale struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_sales_product_week" json:"product_id"`
	WeekStart  time.Time       `gorm:"not null;index:idx_sales_product_week" json:"week_start"`
	QuantityM2 decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"quantity_m2"`
	// Customer keeps the original casing and accents; CustomerNormalized is
	// the uppercase ASCII fold used as the grouping key.
	Customer           *string          `json:"customer"`
	CustomerNormalized *string          `gorm:"index" json:"customer_normalized"`
	UnitPriceUSD       *decimal.Decimal `gorm:"type:numeric(12,2)" json:"unit_price_usd"`
	TotalPriceUSD      *decimal.Decimal `gorm:"type:numeric(14,2)" json:"total_price_usd"`
	Product            Product          `gorm:"foreignKey:ProductID" json:"-"`
}

// FactoryAvailability is a reported batch of factory-side supply that has
// not been ordered yet
type FactoryAvailability struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	QuantityM2       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"quantity_m2"`
	ReportDate       time.Time       `gorm:"not null;index" json:"report_date"`
	ProductionStart  *time.Time      `json:"production_start"`
	ProductionEnd    *time.Time      `json:"production_end"`
	EstPortReadyDate *time.Time      `json:"est_port_ready_date"`
	Product          Product         `gorm:"foreignKey:ProductID" json:"-"`
}

// FactoryOrder is an order placed with the factory. Items are cascade
// deleted with the order; Active is a soft-delete flag independent of the
// lifecycle status.
type FactoryOrder struct {
	ID          uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt     `gorm:"index" json:"-"`
	OrderNumber string             `gorm:"not null;uniqueIndex" json:"order_number"`
	Status      string             `gorm:"not null;default:PENDING" json:"status"`
	Active      bool               `gorm:"not null;default:true" json:"active"`
	Notes       *string            `json:"notes"`
	Items       []FactoryOrderItem `gorm:"foreignKey:FactoryOrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// FactoryOrderItem is one product line on a factory order
type FactoryOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	FactoryOrderID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"factory_order_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	OrderedM2       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"ordered_m2"`
	ProducedM2      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"produced_m2"`
	EstReadyDate    *time.Time      `json:"est_ready_date"`
	ActualReadyDate *time.Time      `json:"actual_ready_date"`
	Product         Product         `gorm:"foreignKey:ProductID" json:"-"`
}

// CompletionPct is the order-level completion percentage driven by the sum
// of item quantities.
func (o *FactoryOrder) CompletionPct() float64 {
	var ordered, produced decimal.Decimal
	for _, item := range o.Items {
		ordered = ordered.Add(item.OrderedM2)
		produced = produced.Add(item.ProducedM2)
	}
	if ordered.IsZero() {
		return 0
	}
	pct, _ := produced.Div(ordered).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// ProductionScheduleEntry is a factory-floor planning record keyed by
// (referencia, plant, source month). Status comes from the factory's
// color-coded sheet and is consumed as an opaque tag.
type ProductionScheduleEntry struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	Referencia  string          `gorm:"not null;uniqueIndex:idx_schedule_ref_plant_month" json:"referencia"`
	Plant       string          `gorm:"not null;uniqueIndex:idx_schedule_ref_plant_month" json:"plant"`
	SourceMonth string          `gorm:"not null;uniqueIndex:idx_schedule_ref_plant_month" json:"source_month"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index" json:"product_id"`
	RequestedM2 decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"requested_m2"`
	CompletedM2 decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"completed_m2"`
	Status      string          `gorm:"not null;default:SCHEDULED" json:"status"`
}

// Setting is one key/value configuration row. The store is a blind string
// map; typing and range validation happen at the call site.
type Setting struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Key         string    `gorm:"not null;uniqueIndex" json:"key"`
	Value       string    `gorm:"not null" json:"value"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	// Apply all migrations
	err := db.AutoMigrate(
		&Product{},
		&InventorySnapshot{},
		&Sale{},
		&FactoryAvailability{},
		&FactoryOrder{},
		&FactoryOrderItem{},
		&ProductionScheduleEntry{},
		&Port{},
		&ShippingCompany{},
		&TruckingCompany{},
		&BoatSchedule{},
		&Shipment{},
		&Container{},
		&ContainerItem{},
		&ShipmentEvent{},
		&Alert{},
		&PendingDocument{},
		&Setting{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	// Dedup boundary for alert generation: at most one unread alert per
	// (type, product, shipment, severity). Generation inserts with
	// ON CONFLICT DO NOTHING so concurrent sweeps cannot double-emit.
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_unread_dedup
		ON alerts (
			type,
			COALESCE(product_id, '00000000-0000-0000-0000-000000000000'::uuid),
			COALESCE(shipment_id, '00000000-0000-0000-0000-000000000000'::uuid),
			severity
		)
		WHERE is_read = false`).Error
	if err != nil {
		return errors.Wrap(err, "failed to create alert dedup index")
	}

	return nil
}
