package services

import (
	"context"
	"time"

	"example.com/tileflow/services/planning/internal/models"
	"example.com/tileflow/services/planning/internal/planning"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// FactoryOrderStore is the repository contract for factory orders
type FactoryOrderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.FactoryOrder, error)
	Create(ctx context.Context, order *models.FactoryOrder) error
	ListOpen(ctx context.Context) ([]models.FactoryOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// ScheduleStore is the repository contract for production schedule entries
type ScheduleStore interface {
	GetByKey(ctx context.Context, referencia, plant, sourceMonth string) (*models.ProductionScheduleEntry, error)
	Upsert(ctx context.Context, entry *models.ProductionScheduleEntry) error
	Save(ctx context.Context, entry *models.ProductionScheduleEntry) error
}

// AvailabilityStore is the repository contract for factory supply reports
type AvailabilityStore interface {
	Append(ctx context.Context, availability *models.FactoryAvailability) error
	LatestForProduct(ctx context.Context, productID uuid.UUID) (*models.FactoryAvailability, error)
}

// FactoryOrderService manages factory orders, the production schedule and
// the factory's reported supply
type FactoryOrderService struct {
	orders       FactoryOrderStore
	schedule     ScheduleStore
	availability AvailabilityStore
}

// NewFactoryOrderService creates a new factory order service
func NewFactoryOrderService(orders FactoryOrderStore, schedule ScheduleStore, availability AvailabilityStore) *FactoryOrderService {
	return &FactoryOrderService{
		orders:       orders,
		schedule:     schedule,
		availability: availability,
	}
}

// Create places a new factory order
func (s *FactoryOrderService) Create(ctx context.Context, order *models.FactoryOrder) error {
	if len(order.Items) == 0 {
		return errors.Wrap(planning.ErrValidationFailed, "factory order needs at least one item")
	}
	for _, item := range order.Items {
		if item.OrderedM2.IsNegative() || item.OrderedM2.IsZero() {
			return errors.Wrapf(planning.ErrValidationFailed, "ordered quantity for item %s must be positive", item.ProductID)
		}
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	return s.orders.Create(ctx, order)
}

// Get loads an order with its items
func (s *FactoryOrderService) Get(ctx context.Context, id uuid.UUID) (*models.FactoryOrder, error) {
	return s.orders.GetByID(ctx, id)
}

// ListOpen lists the unshipped active orders
func (s *FactoryOrderService) ListOpen(ctx context.Context) ([]models.FactoryOrder, error) {
	return s.orders.ListOpen(ctx)
}

// AdvanceStatus moves an order along its lifecycle. Order statuses rank
// strictly upward; moving to the same or a lower rank is rejected.
func (s *FactoryOrderService) AdvanceStatus(ctx context.Context, id uuid.UUID, next string) error {
	nextRank, ok := models.FactoryOrderStatusOrder[next]
	if !ok {
		return errors.Wrapf(planning.ErrValidationFailed, "unknown order status %q", next)
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}

	curRank, ok := models.FactoryOrderStatusOrder[order.Status]
	if !ok {
		return errors.Wrapf(planning.ErrValidationFailed, "order has unknown status %q", order.Status)
	}
	if nextRank <= curRank {
		return errors.Wrapf(planning.ErrInvalidTransition, "%s -> %s moves backward", order.Status, next)
	}

	if err := s.orders.UpdateStatus(ctx, id, next); err != nil {
		return err
	}

	log.Info().
		Str("order_id", id.String()).
		Str("from", order.Status).
		Str("to", next).
		Msg("Factory order status advanced")

	return nil
}

// UpsertScheduleEntry creates or refreshes a production schedule entry on
// its natural key. Once the factory has started or finished an entry its
// requested quantity is frozen: only SCHEDULED entries may ask for more.
func (s *FactoryOrderService) UpsertScheduleEntry(ctx context.Context, entry *models.ProductionScheduleEntry) error {
	existing, err := s.schedule.GetByKey(ctx, entry.Referencia, entry.Plant, entry.SourceMonth)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil {
		if existing.Status != models.ScheduleStatusScheduled &&
			entry.RequestedM2.GreaterThan(existing.RequestedM2) {
			return errors.Wrapf(planning.ErrValidationFailed,
				"entry %s/%s/%s is %s, requested quantity is frozen",
				entry.Referencia, entry.Plant, entry.SourceMonth, existing.Status)
		}
	}

	if entry.Status == "" {
		entry.Status = models.ScheduleStatusScheduled
	}
	return s.schedule.Upsert(ctx, entry)
}

// ReportAvailability appends a factory supply report. Reports are
// append-only; the latest one per product feeds the planning pipeline.
func (s *FactoryOrderService) ReportAvailability(ctx context.Context, availability *models.FactoryAvailability) error {
	if availability.QuantityM2.IsNegative() {
		return errors.Wrap(planning.ErrValidationFailed, "reported quantity must not be negative")
	}
	if availability.ReportDate.IsZero() {
		availability.ReportDate = time.Now().UTC()
	}

	if err := s.availability.Append(ctx, availability); err != nil {
		return err
	}

	log.Info().
		Str("product_id", availability.ProductID.String()).
		Str("quantity_m2", availability.QuantityM2.String()).
		Msg("Factory availability reported")

	return nil
}

// LatestAvailability gets the most recent supply report for a product, or
// nil when the factory has never reported one
func (s *FactoryOrderService) LatestAvailability(ctx context.Context, productID uuid.UUID) (*models.FactoryAvailability, error) {
	return s.availability.LatestForProduct(ctx, productID)
}
