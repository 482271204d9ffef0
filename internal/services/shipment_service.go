package services

import (
	"context"
	"time"

	"example.com/tileflow/services/planning/internal/models"
	"example.com/tileflow/services/planning/internal/planning"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ShipmentStore is the repository contract for shipments and their events
type ShipmentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	ListActive(ctx context.Context) ([]models.Shipment, error)
	FindByReference(ctx context.Context, ref string) (*models.Shipment, error)
	Save(ctx context.Context, shipment *models.Shipment) error
	AdvanceStatusTx(ctx context.Context, shipment *models.Shipment, event *models.ShipmentEvent) error
	AppendEvent(ctx context.Context, event *models.ShipmentEvent) error
	EventsForShipment(ctx context.Context, shipmentID uuid.UUID) ([]models.ShipmentEvent, error)
}

// ContainerStore is the repository contract for containers
type ContainerStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Container, error)
	Save(ctx context.Context, container *models.Container) error
}

// ShipmentService moves shipments through the lifecycle state machine and
// keeps the audit log and derived dates consistent.
type ShipmentService struct {
	shipments  ShipmentStore
	containers ContainerStore
	ports      PortStore
	settings   PolicyLoader
}

// NewShipmentService creates a new shipment service
func NewShipmentService(shipments ShipmentStore, containers ContainerStore, ports PortStore, settings PolicyLoader) *ShipmentService {
	return &ShipmentService{
		shipments:  shipments,
		containers: containers,
		ports:      ports,
		settings:   settings,
	}
}

// Get loads one shipment with containers and events
func (s *ShipmentService) Get(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	return s.shipments.GetByID(ctx, id)
}

// ListActive loads the undelivered shipments
func (s *ShipmentService) ListActive(ctx context.Context) ([]models.Shipment, error) {
	return s.shipments.ListActive(ctx)
}

// AdvanceStatus moves a shipment to the next lifecycle state. The move
// must be strictly forward; skipping states is allowed and DELIVERED is
// terminal. The status update and the audit event are committed together.
// Departure and arrival transitions stamp the actual dates, and arrival
// starts the free-days clock.
func (s *ShipmentService) AdvanceStatus(ctx context.Context, id uuid.UUID, next string, occurredAt time.Time, notes *string) (*models.Shipment, error) {
	shipment, err := s.shipments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := planning.ValidateTransition(shipment.Status, next); err != nil {
		return nil, err
	}

	previous := shipment.Status
	shipment.Status = next

	if planning.AtOrPast(next, models.ShipmentInTransit) && shipment.ActualDeparture == nil {
		departed := occurredAt
		shipment.ActualDeparture = &departed
	}
	if planning.AtOrPast(next, models.ShipmentAtDestinationPort) && shipment.ActualArrival == nil {
		arrived := occurredAt
		shipment.ActualArrival = &arrived
		if shipment.FreeDays != nil {
			expiry := planning.FreeDaysExpiry(arrived, *shipment.FreeDays)
			shipment.FreeDaysExpiry = &expiry
		}
	}

	event := &models.ShipmentEvent{
		ID:         uuid.New(),
		ShipmentID: shipment.ID,
		Status:     next,
		OccurredAt: occurredAt,
		Notes:      notes,
	}

	if err := s.shipments.AdvanceStatusTx(ctx, shipment, event); err != nil {
		return nil, err
	}

	if next == models.ShipmentDelivered {
		s.learnPortProcessing(ctx, shipment, occurredAt)
	}

	log.Info().
		Str("shipment_id", shipment.ID.String()).
		Str("from", previous).
		Str("to", next).
		Time("occurred_at", occurredAt).
		Msg("Shipment status advanced")

	return shipment, nil
}

// learnPortProcessing folds the observed arrival-to-delivery span into the
// destination port's average. Processing time is only learned, never
// seeded, so the first observation becomes the average as-is.
func (s *ShipmentService) learnPortProcessing(ctx context.Context, shipment *models.Shipment, deliveredAt time.Time) {
	if s.ports == nil || shipment.DestinationPortID == nil || shipment.ActualArrival == nil {
		return
	}

	days := float64(planning.DaysBetween(*shipment.ActualArrival, deliveredAt))
	if days < 0 {
		return
	}

	port, err := s.ports.GetByID(ctx, *shipment.DestinationPortID)
	if err != nil {
		log.Warn().Err(err).Str("shipment_id", shipment.ID.String()).Msg("Failed to load destination port")
		return
	}
	if port.AvgProcessingDays != nil {
		days = (*port.AvgProcessingDays + days) / 2
	}

	if err := s.ports.UpdateAvgProcessingDays(ctx, port.ID, days); err != nil {
		log.Warn().Err(err).Str("port_id", port.ID.String()).Msg("Failed to record port processing days")
	}
}

// CorrectHistory appends an out-of-order audit event without moving the
// shipment's current status. Used when a document arrives late and an
// earlier transition date needs to enter the record.
func (s *ShipmentService) CorrectHistory(ctx context.Context, id uuid.UUID, status string, occurredAt time.Time, notes *string) error {
	if _, ok := planning.StateRank[status]; !ok {
		return errors.Wrapf(planning.ErrValidationFailed, "unknown shipment status %q", status)
	}

	shipment, err := s.shipments.GetByID(ctx, id)
	if err != nil {
		return err
	}

	event := &models.ShipmentEvent{
		ID:         uuid.New(),
		ShipmentID: shipment.ID,
		Status:     status,
		OccurredAt: occurredAt,
		Correction: true,
		Notes:      notes,
	}
	if err := s.shipments.AppendEvent(ctx, event); err != nil {
		return err
	}

	log.Info().
		Str("shipment_id", shipment.ID.String()).
		Str("status", status).
		Time("occurred_at", occurredAt).
		Msg("Shipment history corrected")

	return nil
}

// RecalculateContainer rebuilds a container's totals from its items using
// the active policy constants
func (s *ShipmentService) RecalculateContainer(ctx context.Context, containerID uuid.UUID) (*models.Container, error) {
	policy, err := s.settings.LoadPolicy(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load policy")
	}

	container, err := s.containers.GetByID(ctx, containerID)
	if err != nil {
		return nil, err
	}

	var totalM2 decimal.Decimal
	pallets := 0
	for _, item := range container.Items {
		totalM2 = totalM2.Add(item.QuantityM2)
		pallets += item.Pallets
	}

	weightPerM2 := decimal.NewFromFloat(policy.WeightPerM2Kg)
	container.TotalM2 = totalM2
	container.TotalPallets = pallets
	container.TotalWeightKg = totalM2.Mul(weightPerM2)

	if policy.ContainerMaxM2 > 0 {
		fill := totalM2.
			Div(decimal.NewFromFloat(policy.ContainerMaxM2)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
		container.FillPercentage = &fill
	}

	m2, _ := totalM2.Float64()
	weight, _ := container.TotalWeightKg.Float64()
	if m2 > policy.ContainerMaxM2 || weight > policy.ContainerMaxWeightKg || pallets > policy.ContainerMaxPallets {
		log.Warn().
			Str("container_id", container.ID.String()).
			Float64("total_m2", m2).
			Float64("total_weight_kg", weight).
			Int("total_pallets", pallets).
			Msg("Container totals exceed policy limits")
	}

	if err := s.containers.Save(ctx, container); err != nil {
		return nil, err
	}
	return container, nil
}
