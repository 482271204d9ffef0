package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"example.com/tileflow/services/planning/internal/models"
	"example.com/tileflow/services/planning/internal/planning"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ParsedDocument is the payload the upstream document parser publishes for
// every booking confirmation or bill of lading it extracts
type ParsedDocument struct {
	DocumentType    string     `json:"document_type"`
	BookingNumber   string     `json:"booking_number"`
	SHPNumber       string     `json:"shp_number"`
	BillOfLading    string     `json:"bill_of_lading"`
	ContainerNumber string     `json:"container_number"`
	VesselName      string     `json:"vessel_name"`
	VoyageNumber    string     `json:"voyage_number"`
	ETD             *time.Time `json:"etd"`
	ETA             *time.Time `json:"eta"`
	FreeDays        *int       `json:"free_days"`
}

// PendingDocumentStore is the repository contract for the quarantine queue
type PendingDocumentStore interface {
	Create(ctx context.Context, doc *models.PendingDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PendingDocument, error)
	ListPending(ctx context.Context) ([]models.PendingDocument, error)
	Save(ctx context.Context, doc *models.PendingDocument) error
	ExpireOlderThan(ctx context.Context, now time.Time) (int64, error)
}

// DocumentService matches parsed shipping documents to shipments. Unmatched
// documents are quarantined for manual resolution instead of being dropped.
type DocumentService struct {
	shipments ShipmentStore
	pending   PendingDocumentStore
}

// NewDocumentService creates a new document service
func NewDocumentService(shipments ShipmentStore, pending PendingDocumentStore) *DocumentService {
	return &DocumentService{
		shipments: shipments,
		pending:   pending,
	}
}

// ProcessMessage handles one parsed-document message from the queue
func (s *DocumentService) ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error {
	var doc ParsedDocument
	if err := json.Unmarshal(message.Body, &doc); err != nil {
		return errors.Wrap(err, "failed to unmarshal parsed document")
	}
	return s.ProcessParsedDocument(ctx, &doc, message.Body)
}

// ProcessParsedDocument tries each reference in turn: booking number, then
// SHP number, then bill of lading. A match applies the document to the
// shipment; no match quarantines the raw payload with the references that
// were tried.
func (s *DocumentService) ProcessParsedDocument(ctx context.Context, doc *ParsedDocument, raw []byte) error {
	booking := NormalizeReference(doc.BookingNumber)
	shp := NormalizeReference(doc.SHPNumber)
	bol := NormalizeReference(doc.BillOfLading)

	for _, ref := range []string{booking, shp, bol} {
		if ref == "" {
			continue
		}
		shipment, err := s.shipments.FindByReference(ctx, ref)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		return s.applyDocument(ctx, shipment, doc)
	}

	return s.quarantine(ctx, doc, raw, booking, shp)
}

// applyDocument fills in shipment fields the document knows about. Existing
// values win; documents only add information, they never overwrite.
func (s *DocumentService) applyDocument(ctx context.Context, shipment *models.Shipment, doc *ParsedDocument) error {
	if v := NormalizeReference(doc.BookingNumber); v != "" && shipment.BookingNumber == nil {
		shipment.BookingNumber = &v
	}
	if v := NormalizeReference(doc.SHPNumber); v != "" && shipment.SHPNumber == nil {
		shipment.SHPNumber = &v
	}
	if v := NormalizeReference(doc.BillOfLading); v != "" && shipment.BillOfLading == nil {
		shipment.BillOfLading = &v
	}
	if doc.VesselName != "" && shipment.VesselName == nil {
		vessel := strings.TrimSpace(doc.VesselName)
		shipment.VesselName = &vessel
	}
	if doc.VoyageNumber != "" && shipment.VoyageNumber == nil {
		voyage := strings.TrimSpace(doc.VoyageNumber)
		shipment.VoyageNumber = &voyage
	}
	if doc.ETD != nil && shipment.ETD == nil {
		shipment.ETD = doc.ETD
	}
	if doc.ETA != nil && shipment.ETA == nil {
		shipment.ETA = doc.ETA
	}
	if doc.FreeDays != nil && shipment.FreeDays == nil {
		shipment.FreeDays = doc.FreeDays
		if shipment.ActualArrival != nil && shipment.FreeDaysExpiry == nil {
			expiry := planning.FreeDaysExpiry(*shipment.ActualArrival, *doc.FreeDays)
			shipment.FreeDaysExpiry = &expiry
		}
	}

	if err := s.shipments.Save(ctx, shipment); err != nil {
		return err
	}

	log.Info().
		Str("shipment_id", shipment.ID.String()).
		Str("document_type", doc.DocumentType).
		Msg("Parsed document applied to shipment")

	return nil
}

// quarantine parks an unmatched document for manual resolution
func (s *DocumentService) quarantine(ctx context.Context, doc *ParsedDocument, raw []byte, booking, shp string) error {
	pending := &models.PendingDocument{
		ID:           uuid.New(),
		DocumentType: doc.DocumentType,
		RawPayload:   raw,
		Status:       models.PendingDocStatusPending,
		ExpiresAt:    time.Now().UTC().AddDate(0, 0, models.PendingDocExpiryDays),
	}
	if booking != "" {
		pending.BookingNumberTried = &booking
	}
	if shp != "" {
		pending.SHPNumberTried = &shp
	}
	if container := NormalizeReference(doc.ContainerNumber); container != "" {
		pending.ContainerNumberTried = &container
	}

	if err := s.pending.Create(ctx, pending); err != nil {
		return errors.Wrap(err, "failed to quarantine document")
	}

	log.Warn().
		Str("pending_id", pending.ID.String()).
		Str("document_type", doc.DocumentType).
		Str("booking_tried", booking).
		Str("shp_tried", shp).
		Msg("Parsed document did not match any shipment, quarantined")

	return nil
}

// ListPending lists the documents awaiting manual resolution
func (s *DocumentService) ListPending(ctx context.Context) ([]models.PendingDocument, error) {
	return s.pending.ListPending(ctx)
}

// Resolve assigns a quarantined document to a shipment and applies its
// payload. Only PENDING documents can be resolved.
func (s *DocumentService) Resolve(ctx context.Context, docID, shipmentID uuid.UUID, notes *string) error {
	pending, err := s.pending.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if pending.Status != models.PendingDocStatusPending {
		return errors.Wrapf(planning.ErrValidationFailed, "document is %s, only pending documents can be resolved", pending.Status)
	}

	shipment, err := s.shipments.GetByID(ctx, shipmentID)
	if err != nil {
		return err
	}

	var doc ParsedDocument
	if err := json.Unmarshal(pending.RawPayload, &doc); err != nil {
		return errors.Wrap(err, "failed to unmarshal quarantined payload")
	}
	if err := s.applyDocument(ctx, shipment, &doc); err != nil {
		return err
	}

	now := time.Now().UTC()
	pending.Status = models.PendingDocStatusResolved
	pending.ResolvedShipmentID = &shipmentID
	pending.ResolvedAt = &now
	pending.Notes = notes
	return s.pending.Save(ctx, pending)
}

// Discard closes a quarantined document without applying it
func (s *DocumentService) Discard(ctx context.Context, docID uuid.UUID, notes *string) error {
	pending, err := s.pending.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if pending.Status != models.PendingDocStatusPending {
		return errors.Wrapf(planning.ErrValidationFailed, "document is %s, only pending documents can be discarded", pending.Status)
	}

	now := time.Now().UTC()
	pending.Status = models.PendingDocStatusResolved
	pending.Discarded = true
	pending.ResolvedAt = &now
	pending.Notes = notes
	return s.pending.Save(ctx, pending)
}

// ExpireStale closes quarantined documents past their expiry date
func (s *DocumentService) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	expired, err := s.pending.ExpireOlderThan(ctx, now)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		log.Info().Int64("expired", expired).Msg("Expired stale pending documents")
	}
	return expired, nil
}

// NormalizeReference uppercases and strips whitespace so reference lookups
// are insensitive to how the document printed them
func NormalizeReference(ref string) string {
	return strings.ToUpper(strings.Join(strings.Fields(ref), ""))
}
