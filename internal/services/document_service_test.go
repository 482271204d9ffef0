package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"example.com/tileflow/services/planning/internal/models"
	"example.com/tileflow/services/planning/internal/planning"
)

func TestProcessParsedDocumentMatchesBooking(t *testing.T) {
	shipments := new(mockShipmentStore)
	pending := new(mockPendingDocumentStore)

	arrived := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	shipment := &models.Shipment{
		ID:            uuid.New(),
		Status:        models.ShipmentAtDestinationPort,
		BookingNumber: strPtr("BK123"),
		ActualArrival: &arrived,
	}
	eta := time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)
	doc := &ParsedDocument{
		DocumentType:  "BILL_OF_LADING",
		BookingNumber: " bk 123 ",
		BillOfLading:  "mscubl7788",
		VesselName:    "MSC Anna",
		ETA:           &eta,
		FreeDays:      intPtr(14),
	}

	shipments.On("FindByReference", mock.Anything, "BK123").Return(shipment, nil)
	shipments.On("Save", mock.Anything, shipment).Return(nil)

	svc := NewDocumentService(shipments, pending)

	require.NoError(t, svc.ProcessParsedDocument(context.Background(), doc, nil))

	require.Equal(t, "MSCUBL7788", *shipment.BillOfLading)
	require.Equal(t, "MSC Anna", *shipment.VesselName)
	require.Equal(t, eta, *shipment.ETA)
	require.Equal(t, 14, *shipment.FreeDays)
	// Arrival already happened, so applying free days starts the clock
	require.NotNil(t, shipment.FreeDaysExpiry)
	require.Equal(t, arrived.AddDate(0, 0, 14), *shipment.FreeDaysExpiry)

	pending.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessParsedDocumentFallsBackToSHPNumber(t *testing.T) {
	shipments := new(mockShipmentStore)
	pending := new(mockPendingDocumentStore)

	shipment := &models.Shipment{ID: uuid.New(), SHPNumber: strPtr("SHP900")}
	doc := &ParsedDocument{BookingNumber: "BK123", SHPNumber: "shp900"}

	shipments.On("FindByReference", mock.Anything, "BK123").Return(nil, gorm.ErrRecordNotFound)
	shipments.On("FindByReference", mock.Anything, "SHP900").Return(shipment, nil)
	shipments.On("Save", mock.Anything, shipment).Return(nil)

	svc := NewDocumentService(shipments, pending)
	require.NoError(t, svc.ProcessParsedDocument(context.Background(), doc, nil))

	// The booking number the document carried is now on record
	require.Equal(t, "BK123", *shipment.BookingNumber)
}

func TestProcessParsedDocumentNeverOverwrites(t *testing.T) {
	shipments := new(mockShipmentStore)

	eta := time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)
	shipment := &models.Shipment{
		ID:            uuid.New(),
		BookingNumber: strPtr("BK123"),
		VesselName:    strPtr("Ever Given"),
		ETA:           &eta,
	}
	laterETA := eta.AddDate(0, 0, 7)
	doc := &ParsedDocument{BookingNumber: "BK123", VesselName: "MSC Anna", ETA: &laterETA}

	shipments.On("FindByReference", mock.Anything, "BK123").Return(shipment, nil)
	shipments.On("Save", mock.Anything, shipment).Return(nil)

	svc := NewDocumentService(shipments, new(mockPendingDocumentStore))
	require.NoError(t, svc.ProcessParsedDocument(context.Background(), doc, nil))

	require.Equal(t, "Ever Given", *shipment.VesselName)
	require.Equal(t, eta, *shipment.ETA)
}

func TestProcessParsedDocumentQuarantinesUnmatched(t *testing.T) {
	shipments := new(mockShipmentStore)
	pendingStore := new(mockPendingDocumentStore)

	raw := []byte(`{"document_type":"BOOKING_CONFIRMATION","booking_number":"BK999"}`)
	doc := &ParsedDocument{
		DocumentType:    "BOOKING_CONFIRMATION",
		BookingNumber:   "BK999",
		SHPNumber:       "SHP111",
		ContainerNumber: "msku 5566",
	}

	shipments.On("FindByReference", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)

	var quarantined *models.PendingDocument
	pendingStore.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { quarantined = args.Get(1).(*models.PendingDocument) }).
		Return(nil)

	svc := NewDocumentService(shipments, pendingStore)
	require.NoError(t, svc.ProcessParsedDocument(context.Background(), doc, raw))

	require.NotNil(t, quarantined)
	require.Equal(t, models.PendingDocStatusPending, quarantined.Status)
	require.Equal(t, raw, []byte(quarantined.RawPayload))
	require.Equal(t, "BK999", *quarantined.BookingNumberTried)
	require.Equal(t, "SHP111", *quarantined.SHPNumberTried)
	require.Equal(t, "MSKU5566", *quarantined.ContainerNumberTried)
	require.WithinDuration(t,
		time.Now().UTC().AddDate(0, 0, models.PendingDocExpiryDays),
		quarantined.ExpiresAt, time.Minute)

	shipments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestResolveAppliesQuarantinedPayload(t *testing.T) {
	shipments := new(mockShipmentStore)
	pendingStore := new(mockPendingDocumentStore)

	raw, err := json.Marshal(ParsedDocument{BookingNumber: "BK999", VesselName: "MSC Anna"})
	require.NoError(t, err)

	doc := &models.PendingDocument{
		ID:         uuid.New(),
		Status:     models.PendingDocStatusPending,
		RawPayload: raw,
	}
	shipment := &models.Shipment{ID: uuid.New()}

	pendingStore.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	shipments.On("GetByID", mock.Anything, shipment.ID).Return(shipment, nil)
	shipments.On("Save", mock.Anything, shipment).Return(nil)
	pendingStore.On("Save", mock.Anything, doc).Return(nil)

	svc := NewDocumentService(shipments, pendingStore)
	require.NoError(t, svc.Resolve(context.Background(), doc.ID, shipment.ID, strPtr("matched manually")))

	require.Equal(t, "BK999", *shipment.BookingNumber)
	require.Equal(t, "MSC Anna", *shipment.VesselName)

	require.Equal(t, models.PendingDocStatusResolved, doc.Status)
	require.Equal(t, shipment.ID, *doc.ResolvedShipmentID)
	require.NotNil(t, doc.ResolvedAt)
	require.False(t, doc.Discarded)
}

func TestResolveRejectsNonPending(t *testing.T) {
	shipments := new(mockShipmentStore)
	pendingStore := new(mockPendingDocumentStore)

	doc := &models.PendingDocument{ID: uuid.New(), Status: models.PendingDocStatusExpired}
	pendingStore.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)

	svc := NewDocumentService(shipments, pendingStore)

	err := svc.Resolve(context.Background(), doc.ID, uuid.New(), nil)
	require.ErrorIs(t, err, planning.ErrValidationFailed)
	shipments.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestDiscard(t *testing.T) {
	pendingStore := new(mockPendingDocumentStore)

	doc := &models.PendingDocument{ID: uuid.New(), Status: models.PendingDocStatusPending}
	pendingStore.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	pendingStore.On("Save", mock.Anything, doc).Return(nil)

	svc := NewDocumentService(new(mockShipmentStore), pendingStore)
	require.NoError(t, svc.Discard(context.Background(), doc.ID, strPtr("junk parse")))

	require.Equal(t, models.PendingDocStatusResolved, doc.Status)
	require.True(t, doc.Discarded)
	require.NotNil(t, doc.ResolvedAt)
}

func TestNormalizeReference(t *testing.T) {
	require.Equal(t, "BK123", NormalizeReference(" bk 123 "))
	require.Equal(t, "MSCUBL7788", NormalizeReference("mscu\tbl7788"))
	require.Equal(t, "", NormalizeReference("   "))
}
