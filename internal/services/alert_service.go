package services

import (
	"context"
	"time"

	"example.com/tileflow/services/planning/internal/models"
	"example.com/tileflow/services/planning/internal/planning"
	"example.com/tileflow/services/planning/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// AlertStore is the repository contract for alerts
type AlertStore interface {
	InsertIfAbsent(ctx context.Context, alert *models.Alert) (bool, error)
	ExistsForShipmentEvent(ctx context.Context, shipmentID uuid.UUID, alertType string) (bool, error)
	List(ctx context.Context, unreadOnly bool, limit int) ([]models.Alert, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
	MarkSent(ctx context.Context, ids []uuid.UUID) error
	UnreadCount(ctx context.Context) (map[string]int64, error)
}

// StateBuilder assembles the per-product planning inputs
type StateBuilder interface {
	BuildStates(ctx context.Context, now time.Time) ([]planning.ProductState, planning.Policy, error)
}

// AlertIndexer pushes generated alerts into the search backend
type AlertIndexer interface {
	IndexAlert(ctx context.Context, alert *models.Alert) error
}

// AlertSearcher queries the indexed alert history
type AlertSearcher interface {
	SearchAlerts(ctx context.Context, query map[string]interface{}) ([]map[string]interface{}, error)
}

// ErrSearchUnavailable means no search backend is configured
var ErrSearchUnavailable = errors.New("alert search is not configured")

// AlertService generates, lists and acknowledges alerts. Generation is
// idempotent: re-running over unchanged data inserts nothing, because the
// unread dedup index rejects duplicates and transition alerts check the
// full history.
type AlertService struct {
	alerts    AlertStore
	states    StateBuilder
	shipments ShipmentStore
	indexer   AlertIndexer
	searcher  AlertSearcher
	tracer    tracing.Tracer
}

// NewAlertService creates a new alert service
func NewAlertService(
	alerts AlertStore,
	states StateBuilder,
	shipments ShipmentStore,
	indexer AlertIndexer,
	searcher AlertSearcher,
	tracer tracing.Tracer,
) *AlertService {
	return &AlertService{
		alerts:    alerts,
		states:    states,
		shipments: shipments,
		indexer:   indexer,
		searcher:  searcher,
		tracer:    tracer,
	}
}

// GenerateAll runs one full alert sweep over the catalog and the active
// shipments and returns how many alerts were actually inserted.
func (s *AlertService) GenerateAll(ctx context.Context, now time.Time) (int, error) {
	txn := s.tracer.StartTransaction("generate-alerts")
	defer s.tracer.EndTransaction(txn)

	span := s.tracer.StartSpan("build-eval-snapshot", txn)
	productStates, policy, err := s.states.BuildStates(ctx, now)
	if err != nil {
		span.End()
		s.tracer.RecordError(txn, err)
		return 0, err
	}

	shipmentStates, err := s.buildShipmentStates(ctx)
	span.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		return 0, err
	}

	snapshot := planning.EvalSnapshot{
		Now:       now,
		Products:  productStates,
		Shipments: shipmentStates,
	}
	drafts := planning.Evaluate(snapshot, policy)

	insertSpan := s.tracer.StartSpan("insert-alerts", txn)
	defer insertSpan.End()

	inserted := 0
	var sentIDs []uuid.UUID
	for _, draft := range drafts {
		alert := &models.Alert{
			ID:         uuid.New(),
			Type:       draft.Type,
			Severity:   draft.Severity,
			Title:      draft.Title,
			Message:    draft.Message,
			ProductID:  draft.ProductID,
			ShipmentID: draft.ShipmentID,
		}

		created, err := s.alerts.InsertIfAbsent(ctx, alert)
		if err != nil {
			s.tracer.RecordError(txn, err)
			return inserted, err
		}
		if !created {
			continue
		}
		inserted++

		// Indexing is best effort; the alert row is the source of truth.
		// is_sent records a successful export, so an alert stays unsent
		// until indexing actually works.
		if s.indexer != nil {
			if err := s.indexer.IndexAlert(ctx, alert); err != nil {
				log.Warn().Err(err).Str("alert_id", alert.ID.String()).Msg("Failed to index alert")
				s.tracer.RecordError(txn, err)
				continue
			}
			sentIDs = append(sentIDs, alert.ID)
		}
	}

	if len(sentIDs) > 0 {
		if err := s.alerts.MarkSent(ctx, sentIDs); err != nil {
			log.Warn().Err(err).Msg("Failed to mark alerts sent")
			s.tracer.RecordError(txn, err)
		}
	}

	log.Info().
		Int("drafts", len(drafts)).
		Int("inserted", inserted).
		Msg("Alert sweep finished")

	return inserted, nil
}

// buildShipmentStates converts the active shipments into the evaluation
// view. Departure and arrival are transition alerts: they fire on the
// first sweep that observes the transition and never again, read or not.
func (s *AlertService) buildShipmentStates(ctx context.Context) ([]planning.ShipmentState, error) {
	shipments, err := s.shipments.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	states := make([]planning.ShipmentState, 0, len(shipments))
	for i := range shipments {
		shipment := shipments[i]
		state := planning.ShipmentState{
			ShipmentID:     shipment.ID,
			Reference:      shipmentReference(&shipment),
			Status:         shipment.Status,
			ETA:            shipment.ETA,
			FreeDaysExpiry: shipment.FreeDaysExpiry,
		}

		if planning.AtOrPast(shipment.Status, models.ShipmentInTransit) {
			exists, err := s.alerts.ExistsForShipmentEvent(ctx, shipment.ID, models.AlertShipmentDeparted)
			if err != nil {
				return nil, err
			}
			state.NewlyDeparted = !exists
		}
		if planning.AtOrPast(shipment.Status, models.ShipmentAtDestinationPort) {
			exists, err := s.alerts.ExistsForShipmentEvent(ctx, shipment.ID, models.AlertShipmentArrived)
			if err != nil {
				return nil, err
			}
			state.NewlyArrived = !exists
		}

		for _, container := range shipment.Containers {
			cs := planning.ContainerState{
				ContainerID:   container.ID,
				ItemsComplete: len(container.Items) > 0,
			}
			if container.ContainerNumber != nil {
				cs.Number = *container.ContainerNumber
			}
			if container.FillPercentage != nil {
				cs.FillPct, _ = container.FillPercentage.Float64()
			}
			state.Containers = append(state.Containers, cs)
		}

		states = append(states, state)
	}
	return states, nil
}

// shipmentReference picks the most recognizable external reference
func shipmentReference(shipment *models.Shipment) string {
	switch {
	case shipment.BookingNumber != nil:
		return *shipment.BookingNumber
	case shipment.SHPNumber != nil:
		return *shipment.SHPNumber
	case shipment.BillOfLading != nil:
		return *shipment.BillOfLading
	default:
		return shipment.ID.String()
	}
}

// List gets alerts, optionally unread only
func (s *AlertService) List(ctx context.Context, unreadOnly bool, limit int) ([]models.Alert, error) {
	return s.alerts.List(ctx, unreadOnly, limit)
}

// MarkRead acknowledges one alert. Once read it leaves the dedup window,
// so the next sweep may emit a fresh alert for the same condition.
func (s *AlertService) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.alerts.MarkRead(ctx, id)
}

// MarkAllRead acknowledges every unread alert
func (s *AlertService) MarkAllRead(ctx context.Context) (int64, error) {
	return s.alerts.MarkAllRead(ctx)
}

// UnreadCounts returns unread alert counts grouped by severity
func (s *AlertService) UnreadCounts(ctx context.Context) (map[string]int64, error) {
	return s.alerts.UnreadCount(ctx)
}

// Search queries the indexed alert history, newest first. Unlike List this
// covers every alert ever exported, read or not.
func (s *AlertService) Search(ctx context.Context, text string, limit int) ([]map[string]interface{}, error) {
	if s.searcher == nil {
		return nil, ErrSearchUnavailable
	}

	var match map[string]interface{}
	if text == "" {
		match = map[string]interface{}{"match_all": map[string]interface{}{}}
	} else {
		match = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"title", "message", "type", "severity"},
			},
		}
	}

	query := map[string]interface{}{
		"size":  limit,
		"query": match,
		"sort": []map[string]interface{}{
			{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
	return s.searcher.SearchAlerts(ctx, query)
}
