package services

import (
	"context"
	"time"

	"example.com/tileflow/services/planning/internal/models"
	"example.com/tileflow/services/planning/internal/planning"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// BoatStore is the repository contract for vessel voyages
type BoatStore interface {
	Create(ctx context.Context, boat *models.BoatSchedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BoatSchedule, error)
	UpcomingDepartures(ctx context.Context, after time.Time) ([]models.BoatSchedule, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// PortStore is the repository contract for port reference data
type PortStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Port, error)
	UpdateAvgProcessingDays(ctx context.Context, id uuid.UUID, days float64) error
}

// CarrierStore is the repository contract for carrier directories
type CarrierStore interface {
	ListShippingCompanies(ctx context.Context) ([]models.ShippingCompany, error)
	ListTruckingCompanies(ctx context.Context) ([]models.TruckingCompany, error)
}

// CarrierDirectory is the active carriers grouped by mode
type CarrierDirectory struct {
	Shipping []models.ShippingCompany `json:"shipping"`
	Trucking []models.TruckingCompany `json:"trucking"`
}

// LogisticsService manages the sailing schedule and the carrier and port
// reference data the shipments hang off
type LogisticsService struct {
	boats    BoatStore
	ports    PortStore
	carriers CarrierStore
	settings PolicyLoader
}

// NewLogisticsService creates a new logistics service
func NewLogisticsService(boats BoatStore, ports PortStore, carriers CarrierStore, settings PolicyLoader) *LogisticsService {
	return &LogisticsService{
		boats:    boats,
		ports:    ports,
		carriers: carriers,
		settings: settings,
	}
}

// ScheduleBoat registers a new voyage. Transit days are derived from the
// dates when not given, and the booking deadline is always derived from
// the departure and the configured booking buffer.
func (s *LogisticsService) ScheduleBoat(ctx context.Context, boat *models.BoatSchedule) error {
	if !boat.ArrivalDate.After(boat.DepartureDate) {
		return errors.Wrap(planning.ErrValidationFailed, "arrival must be after departure")
	}

	policy, err := s.settings.LoadPolicy(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load policy")
	}

	if boat.TransitDays == 0 {
		boat.TransitDays = planning.DaysBetween(boat.DepartureDate, boat.ArrivalDate)
	}
	deadline := planning.BookingDeadline(boat.DepartureDate, policy.BookingBufferDays)
	boat.BookingDeadline = &deadline

	if boat.Status == "" {
		boat.Status = models.BoatStatusAvailable
	}
	if _, ok := models.BoatStatusOrder[boat.Status]; !ok {
		return errors.Wrapf(planning.ErrValidationFailed, "unknown boat status %q", boat.Status)
	}

	if err := s.boats.Create(ctx, boat); err != nil {
		return err
	}

	log.Info().
		Str("boat_id", boat.ID.String()).
		Str("vessel", boat.VesselName).
		Time("departure", boat.DepartureDate).
		Time("booking_deadline", deadline).
		Msg("Boat schedule created")

	return nil
}

// GetBoat loads one voyage
func (s *LogisticsService) GetBoat(ctx context.Context, id uuid.UUID) (*models.BoatSchedule, error) {
	return s.boats.GetByID(ctx, id)
}

// UpcomingDepartures lists voyages departing after the given instant
func (s *LogisticsService) UpcomingDepartures(ctx context.Context, after time.Time) ([]models.BoatSchedule, error) {
	return s.boats.UpcomingDepartures(ctx, after)
}

// UpdateBoatStatus moves a voyage along AVAILABLE, BOOKED, DEPARTED,
// ARRIVED. Like shipments, voyages only move forward.
func (s *LogisticsService) UpdateBoatStatus(ctx context.Context, id uuid.UUID, next string) error {
	nextRank, ok := models.BoatStatusOrder[next]
	if !ok {
		return errors.Wrapf(planning.ErrValidationFailed, "unknown boat status %q", next)
	}

	boat, err := s.boats.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if nextRank <= models.BoatStatusOrder[boat.Status] {
		return errors.Wrapf(planning.ErrInvalidTransition, "%s -> %s moves backward", boat.Status, next)
	}

	if err := s.boats.UpdateStatus(ctx, id, next); err != nil {
		return err
	}

	log.Info().
		Str("boat_id", id.String()).
		Str("from", boat.Status).
		Str("to", next).
		Msg("Boat status updated")

	return nil
}

// GetPort loads one port with its learned processing time
func (s *LogisticsService) GetPort(ctx context.Context, id uuid.UUID) (*models.Port, error) {
	return s.ports.GetByID(ctx, id)
}

// Carriers lists the active shipping and trucking companies
func (s *LogisticsService) Carriers(ctx context.Context) (*CarrierDirectory, error) {
	shipping, err := s.carriers.ListShippingCompanies(ctx)
	if err != nil {
		return nil, err
	}
	trucking, err := s.carriers.ListTruckingCompanies(ctx)
	if err != nil {
		return nil, err
	}
	return &CarrierDirectory{Shipping: shipping, Trucking: trucking}, nil
}
