package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Port types
const (
	PortTypeOrigin      = "ORIGIN"
	PortTypeDestination = "DESTINATION"
)

// Boat schedule statuses
const (
	BoatStatusAvailable = "AVAILABLE"
	BoatStatusBooked    = "BOOKED"
	BoatStatusDeparted  = "DEPARTED"
	BoatStatusArrived   = "ARRIVED"
)

// BoatStatusOrder ranks boat statuses; a voyage only moves forward
var BoatStatusOrder = map[string]int{
	BoatStatusAvailable: 0,
	BoatStatusBooked:    1,
	BoatStatusDeparted:  2,
	BoatStatusArrived:   3,
}

// Shipment lifecycle statuses, in transit order
const (
	ShipmentAtFactory         = "AT_FACTORY"
	ShipmentAtOriginPort      = "AT_ORIGIN_PORT"
	ShipmentInTransit         = "IN_TRANSIT"
	ShipmentAtDestinationPort = "AT_DESTINATION_PORT"
	ShipmentInCustoms         = "IN_CUSTOMS"
	ShipmentInTruck           = "IN_TRUCK"
	ShipmentDelivered         = "DELIVERED"
)

// Port is a static reference entity. AvgProcessingDays is learned from
// observed shipments, never seeded.
type Port struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Name              string    `gorm:"not null;uniqueIndex" json:"name"`
	Country           *string   `json:"country"`
	Type              string    `gorm:"not null" json:"type"`
	AvgProcessingDays *float64  `json:"avg_processing_days"`
}

// ShippingCompany aggregates historical carrier performance. The score
// fields are append-only observations, never reset.
type ShippingCompany struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	Name             string           `gorm:"not null;uniqueIndex" json:"name"`
	Active           bool             `gorm:"not null;default:true" json:"active"`
	ReliabilityScore *decimal.Decimal `gorm:"type:numeric(5,2)" json:"reliability_score"`
	OnTimePercentage *decimal.Decimal `gorm:"type:numeric(5,2)" json:"on_time_percentage"`
	ShipmentCount    int              `gorm:"not null;default:0" json:"shipment_count"`
}

// TruckingCompany aggregates historical trucking performance
type TruckingCompany struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	Name             string           `gorm:"not null;uniqueIndex" json:"name"`
	Active           bool             `gorm:"not null;default:true" json:"active"`
	ReliabilityScore *decimal.Decimal `gorm:"type:numeric(5,2)" json:"reliability_score"`
	OnTimePercentage *decimal.Decimal `gorm:"type:numeric(5,2)" json:"on_time_percentage"`
	DeliveryCount    int              `gorm:"not null;default:0" json:"delivery_count"`
}

// BoatSchedule is one vessel voyage. BookingDeadline is derived as
// departure minus the configured booking buffer.
type BoatSchedule struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	VesselName      string     `gorm:"not null;uniqueIndex:idx_boats_departure_vessel" json:"vessel_name"`
	DepartureDate   time.Time  `gorm:"not null;uniqueIndex:idx_boats_departure_vessel" json:"departure_date"`
	ArrivalDate     time.Time  `gorm:"not null" json:"arrival_date"`
	TransitDays     int        `gorm:"not null" json:"transit_days"`
	BookingDeadline *time.Time `json:"booking_deadline"`
	Status          string     `gorm:"not null;default:AVAILABLE" json:"status"`
	ShippingLine    *string    `json:"shipping_line"`
	OriginPort      *string    `json:"origin_port"`
	DestinationPort *string    `json:"destination_port"`
}

// Shipment is the aggregate root for a set of containers moving through
// the lifecycle state machine. Current status only moves forward;
// corrections are recorded as out-of-order ShipmentEvents without touching
// the status field.
type Shipment struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
	FactoryOrderID    *uuid.UUID     `gorm:"type:uuid;index" json:"factory_order_id"`
	BoatScheduleID    *uuid.UUID     `gorm:"type:uuid;index" json:"boat_schedule_id"`
	ShippingCompanyID *uuid.UUID     `gorm:"type:uuid" json:"shipping_company_id"`
	TruckingCompanyID *uuid.UUID     `gorm:"type:uuid" json:"trucking_company_id"`
	OriginPortID      *uuid.UUID     `gorm:"type:uuid" json:"origin_port_id"`
	DestinationPortID *uuid.UUID     `gorm:"type:uuid" json:"destination_port_id"`

	Status string `gorm:"not null;default:AT_FACTORY;index" json:"status"`
	Active bool   `gorm:"not null;default:true" json:"active"`

	// External reference numbers, uppercased on write
	BookingNumber *string `gorm:"index" json:"booking_number"`
	SHPNumber     *string `gorm:"column:shp_number;index" json:"shp_number"`
	BillOfLading  *string `json:"bill_of_lading"`

	VesselName   *string `json:"vessel_name"`
	VoyageNumber *string `json:"voyage_number"`

	ETD             *time.Time `json:"etd"`
	ETA             *time.Time `json:"eta"`
	ActualDeparture *time.Time `json:"actual_departure"`
	ActualArrival   *time.Time `json:"actual_arrival"`

	FreeDays       *int       `json:"free_days"`
	FreeDaysExpiry *time.Time `json:"free_days_expiry"`

	FreightCostUSD *decimal.Decimal `gorm:"type:numeric(12,2)" json:"freight_cost_usd"`
	Notes          *string          `json:"notes"`

	Containers []Container     `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE" json:"containers,omitempty"`
	Events     []ShipmentEvent `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE" json:"events,omitempty"`
}

// Container belongs to exactly one shipment and carries the packed totals
type Container struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	ShipmentID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"shipment_id"`
	ContainerNumber *string          `gorm:"index" json:"container_number"`
	TotalPallets    int              `gorm:"not null;default:0" json:"total_pallets"`
	TotalWeightKg   decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"total_weight_kg"`
	TotalM2         decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"total_m2"`
	FillPercentage  *decimal.Decimal `gorm:"type:numeric(5,2)" json:"fill_percentage"`
	Items           []ContainerItem  `gorm:"foreignKey:ContainerID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// ContainerItem is one product quantity inside a container
type ContainerItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	ContainerID uuid.UUID       `gorm:"type:uuid;not null;index" json:"container_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	QuantityM2  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"quantity_m2"`
	Pallets     int             `gorm:"not null;default:0" json:"pallets"`
	WeightKg    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"weight_kg"`
	Product     Product         `gorm:"foreignKey:ProductID" json:"-"`
}

// ShipmentEvent is the append-only audit log of status transitions,
// independent of the shipment's current-status field.
type ShipmentEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	ShipmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"shipment_id"`
	Status     string    `gorm:"not null" json:"status"`
	OccurredAt time.Time `gorm:"not null;index" json:"occurred_at"`
	// Correction marks an out-of-order event appended without moving the
	// shipment's current status.
	Correction bool    `gorm:"not null;default:false" json:"correction"`
	Notes      *string `json:"notes"`
}
