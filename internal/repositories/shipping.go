package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/tileflow/services/planning/internal/models"
)

// BoatScheduleRepository provides access to vessel voyages
type BoatScheduleRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewBoatScheduleRepository creates a new repository
func NewBoatScheduleRepository(db *gorm.DB, readOnlyDB *gorm.DB) *BoatScheduleRepository {
	return &BoatScheduleRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create creates a new boat schedule
func (r *BoatScheduleRepository) Create(ctx context.Context, boat *models.BoatSchedule) error {
	return r.db.WithContext(ctx).Create(boat).Error
}

// GetByID gets a boat schedule by ID
func (r *BoatScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BoatSchedule, error) {
	var boat models.BoatSchedule
	err := r.readOnlyDB.WithContext(ctx).First(&boat, id).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get boat schedule by ID")
	}
	return &boat, nil
}

// NextArrivals gets the next n boats arriving after the given date,
// soonest first
func (r *BoatScheduleRepository) NextArrivals(ctx context.Context, after time.Time, n int) ([]models.BoatSchedule, error) {
	var boats []models.BoatSchedule
	err := r.readOnlyDB.WithContext(ctx).
		Where("arrival_date > ? AND status IN ?", after,
			[]string{models.BoatStatusAvailable, models.BoatStatusBooked, models.BoatStatusDeparted}).
		Order("arrival_date ASC").
		Limit(n).
		Find(&boats).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get next boat arrivals")
	}
	return boats, nil
}

// UpcomingDepartures gets boats departing after the given date, soonest
// first
func (r *BoatScheduleRepository) UpcomingDepartures(ctx context.Context, after time.Time) ([]models.BoatSchedule, error) {
	var boats []models.BoatSchedule
	err := r.readOnlyDB.WithContext(ctx).
		Where("departure_date > ?", after).
		Order("departure_date ASC").
		Find(&boats).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get upcoming departures")
	}
	return boats, nil
}

// UpdateStatus persists a boat status change
func (r *BoatScheduleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.BoatSchedule{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update boat status")
	}
	if result.RowsAffected == 0 {
		return errors.New("no boat schedule updated")
	}
	return nil
}

// ShipmentRepository provides access to shipments, containers and events
type ShipmentRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewShipmentRepository creates a new repository
func NewShipmentRepository(db *gorm.DB, readOnlyDB *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create creates a new shipment
func (r *ShipmentRepository) Create(ctx context.Context, shipment *models.Shipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

// GetByID gets a shipment with containers, items and events
func (r *ShipmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Containers").
		Preload("Containers.Items").
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at ASC")
		}).
		First(&shipment, id).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get shipment by ID")
	}
	return &shipment, nil
}

// ListActive gets active shipments that have not been delivered, with
// containers and events preloaded
func (r *ShipmentRepository) ListActive(ctx context.Context) ([]models.Shipment, error) {
	var shipments []models.Shipment
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Containers").
		Preload("Containers.Items").
		Preload("Events").
		Where("active = ? AND status <> ?", true, models.ShipmentDelivered).
		Order("created_at ASC").
		Find(&shipments).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active shipments")
	}
	return shipments, nil
}

// FindByReference looks a shipment up by booking number, SHP number or
// bill of lading. References are stored uppercased.
func (r *ShipmentRepository) FindByReference(ctx context.Context, ref string) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.readOnlyDB.WithContext(ctx).
		Where("booking_number = ? OR shp_number = ? OR bill_of_lading = ?", ref, ref, ref).
		First(&shipment).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find shipment by reference")
	}
	return &shipment, nil
}

// Save persists shipment field changes
func (r *ShipmentRepository) Save(ctx context.Context, shipment *models.Shipment) error {
	return r.db.WithContext(ctx).Save(shipment).Error
}

// AdvanceStatusTx updates the status and appends the transition event in
// one transaction. Validation happens in the service before this call.
func (r *ShipmentRepository) AdvanceStatusTx(ctx context.Context, shipment *models.Shipment, event *models.ShipmentEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(shipment).Error; err != nil {
			return errors.Wrap(err, "failed to save shipment status")
		}
		if err := tx.Create(event).Error; err != nil {
			return errors.Wrap(err, "failed to append shipment event")
		}
		return nil
	})
}

// AppendEvent appends an audit event without touching current status,
// used for history corrections
func (r *ShipmentRepository) AppendEvent(ctx context.Context, event *models.ShipmentEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// EventsForShipment gets the audit log ordered by occurrence
func (r *ShipmentRepository) EventsForShipment(ctx context.Context, shipmentID uuid.UUID) ([]models.ShipmentEvent, error) {
	var events []models.ShipmentEvent
	err := r.readOnlyDB.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("occurred_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get shipment events")
	}
	return events, nil
}

// ContainerRepository provides access to containers and their items
type ContainerRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewContainerRepository creates a new repository
func NewContainerRepository(db *gorm.DB, readOnlyDB *gorm.DB) *ContainerRepository {
	return &ContainerRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create creates a container with its items
func (r *ContainerRepository) Create(ctx context.Context, container *models.Container) error {
	return r.db.WithContext(ctx).Create(container).Error
}

// GetByID gets a container with items
func (r *ContainerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Container, error) {
	var container models.Container
	err := r.readOnlyDB.WithContext(ctx).Preload("Items").First(&container, id).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get container by ID")
	}
	return &container, nil
}

// Save persists container totals
func (r *ContainerRepository) Save(ctx context.Context, container *models.Container) error {
	return r.db.WithContext(ctx).Save(container).Error
}

// PortRepository provides access to port reference data
type PortRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewPortRepository creates a new repository
func NewPortRepository(db *gorm.DB, readOnlyDB *gorm.DB) *PortRepository {
	return &PortRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// GetByID gets a port by ID
func (r *PortRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Port, error) {
	var port models.Port
	err := r.readOnlyDB.WithContext(ctx).First(&port, id).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get port by ID")
	}
	return &port, nil
}

// UpdateAvgProcessingDays records a learned processing time for a port
func (r *PortRepository) UpdateAvgProcessingDays(ctx context.Context, id uuid.UUID, days float64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Port{}).
		Where("id = ?", id).
		Update("avg_processing_days", days)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update port processing days")
	}
	return nil
}

// CarrierRepository provides access to shipping and trucking companies
type CarrierRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewCarrierRepository creates a new repository
func NewCarrierRepository(db *gorm.DB, readOnlyDB *gorm.DB) *CarrierRepository {
	return &CarrierRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// ListShippingCompanies gets active shipping companies
func (r *CarrierRepository) ListShippingCompanies(ctx context.Context) ([]models.ShippingCompany, error) {
	var companies []models.ShippingCompany
	err := r.readOnlyDB.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&companies).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list shipping companies")
	}
	return companies, nil
}

// ListTruckingCompanies gets active trucking companies
func (r *CarrierRepository) ListTruckingCompanies(ctx context.Context) ([]models.TruckingCompany, error) {
	var companies []models.TruckingCompany
	err := r.readOnlyDB.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&companies).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list trucking companies")
	}
	return companies, nil
}
