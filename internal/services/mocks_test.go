package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"example.com/tileflow/services/planning/internal/models"
	"example.com/tileflow/services/planning/internal/planning"
	"example.com/tileflow/services/planning/internal/tracing"
)

func testPolicy() planning.Policy {
	return planning.Policy{
		LeadTimeDays:         45,
		SafetyStockZScore:    1.645,
		OrderCycleDays:       30,
		VelocityWindowWeeks:  12,
		ContainerMaxPallets:  14,
		ContainerMaxWeightKg: 28000,
		ContainerMaxM2:       1881,
		M2PerPallet:          135,
		WeightPerM2Kg:        14.90,
		BoatMinContainers:    3,
		BoatMaxContainers:    5,
		StockoutCriticalDays: 14,
		StockoutWarningDays:  30,
		FreeDaysCritical:     2,
		FreeDaysWarning:      5,
		BookingBufferDays:    3,
		OverstockMultiple:    2.0,
		ContainerMinFillPct:  85.0,
	}
}

func noopTracer() tracing.Tracer {
	return tracing.Disabled()
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

type mockAlertStore struct{ mock.Mock }

func (m *mockAlertStore) InsertIfAbsent(ctx context.Context, alert *models.Alert) (bool, error) {
	args := m.Called(ctx, alert)
	return args.Bool(0), args.Error(1)
}

func (m *mockAlertStore) ExistsForShipmentEvent(ctx context.Context, shipmentID uuid.UUID, alertType string) (bool, error) {
	args := m.Called(ctx, shipmentID, alertType)
	return args.Bool(0), args.Error(1)
}

func (m *mockAlertStore) List(ctx context.Context, unreadOnly bool, limit int) ([]models.Alert, error) {
	args := m.Called(ctx, unreadOnly, limit)
	if alerts, ok := args.Get(0).([]models.Alert); ok {
		return alerts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAlertStore) MarkRead(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAlertStore) MarkAllRead(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAlertStore) MarkSent(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *mockAlertStore) UnreadCount(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	if counts, ok := args.Get(0).(map[string]int64); ok {
		return counts, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockStateBuilder struct{ mock.Mock }

func (m *mockStateBuilder) BuildStates(ctx context.Context, now time.Time) ([]planning.ProductState, planning.Policy, error) {
	args := m.Called(ctx, now)
	states, _ := args.Get(0).([]planning.ProductState)
	return states, args.Get(1).(planning.Policy), args.Error(2)
}

type mockAlertIndexer struct{ mock.Mock }

func (m *mockAlertIndexer) IndexAlert(ctx context.Context, alert *models.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

type mockAlertSearcher struct{ mock.Mock }

func (m *mockAlertSearcher) SearchAlerts(ctx context.Context, query map[string]interface{}) ([]map[string]interface{}, error) {
	args := m.Called(ctx, query)
	if docs, ok := args.Get(0).([]map[string]interface{}); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockShipmentStore struct{ mock.Mock }

func (m *mockShipmentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	args := m.Called(ctx, id)
	if shipment, ok := args.Get(0).(*models.Shipment); ok {
		return shipment, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockShipmentStore) ListActive(ctx context.Context) ([]models.Shipment, error) {
	args := m.Called(ctx)
	if shipments, ok := args.Get(0).([]models.Shipment); ok {
		return shipments, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockShipmentStore) FindByReference(ctx context.Context, ref string) (*models.Shipment, error) {
	args := m.Called(ctx, ref)
	if shipment, ok := args.Get(0).(*models.Shipment); ok {
		return shipment, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockShipmentStore) Save(ctx context.Context, shipment *models.Shipment) error {
	args := m.Called(ctx, shipment)
	return args.Error(0)
}

func (m *mockShipmentStore) AdvanceStatusTx(ctx context.Context, shipment *models.Shipment, event *models.ShipmentEvent) error {
	args := m.Called(ctx, shipment, event)
	return args.Error(0)
}

func (m *mockShipmentStore) AppendEvent(ctx context.Context, event *models.ShipmentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockShipmentStore) EventsForShipment(ctx context.Context, shipmentID uuid.UUID) ([]models.ShipmentEvent, error) {
	args := m.Called(ctx, shipmentID)
	if events, ok := args.Get(0).([]models.ShipmentEvent); ok {
		return events, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockContainerStore struct{ mock.Mock }

func (m *mockContainerStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Container, error) {
	args := m.Called(ctx, id)
	if container, ok := args.Get(0).(*models.Container); ok {
		return container, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockContainerStore) Save(ctx context.Context, container *models.Container) error {
	args := m.Called(ctx, container)
	return args.Error(0)
}

type mockBoatStore struct{ mock.Mock }

func (m *mockBoatStore) Create(ctx context.Context, boat *models.BoatSchedule) error {
	args := m.Called(ctx, boat)
	return args.Error(0)
}

func (m *mockBoatStore) GetByID(ctx context.Context, id uuid.UUID) (*models.BoatSchedule, error) {
	args := m.Called(ctx, id)
	if boat, ok := args.Get(0).(*models.BoatSchedule); ok {
		return boat, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBoatStore) UpcomingDepartures(ctx context.Context, after time.Time) ([]models.BoatSchedule, error) {
	args := m.Called(ctx, after)
	if boats, ok := args.Get(0).([]models.BoatSchedule); ok {
		return boats, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBoatStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type mockPortStore struct{ mock.Mock }

func (m *mockPortStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Port, error) {
	args := m.Called(ctx, id)
	if port, ok := args.Get(0).(*models.Port); ok {
		return port, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPortStore) UpdateAvgProcessingDays(ctx context.Context, id uuid.UUID, days float64) error {
	args := m.Called(ctx, id, days)
	return args.Error(0)
}

type mockCarrierStore struct{ mock.Mock }

func (m *mockCarrierStore) ListShippingCompanies(ctx context.Context) ([]models.ShippingCompany, error) {
	args := m.Called(ctx)
	if companies, ok := args.Get(0).([]models.ShippingCompany); ok {
		return companies, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCarrierStore) ListTruckingCompanies(ctx context.Context) ([]models.TruckingCompany, error) {
	args := m.Called(ctx)
	if companies, ok := args.Get(0).([]models.TruckingCompany); ok {
		return companies, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAvailabilityStore struct{ mock.Mock }

func (m *mockAvailabilityStore) Append(ctx context.Context, availability *models.FactoryAvailability) error {
	args := m.Called(ctx, availability)
	return args.Error(0)
}

func (m *mockAvailabilityStore) LatestForProduct(ctx context.Context, productID uuid.UUID) (*models.FactoryAvailability, error) {
	args := m.Called(ctx, productID)
	if availability, ok := args.Get(0).(*models.FactoryAvailability); ok {
		return availability, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPolicyLoader struct{ mock.Mock }

func (m *mockPolicyLoader) LoadPolicy(ctx context.Context) (planning.Policy, error) {
	args := m.Called(ctx)
	return args.Get(0).(planning.Policy), args.Error(1)
}

type mockPendingDocumentStore struct{ mock.Mock }

func (m *mockPendingDocumentStore) Create(ctx context.Context, doc *models.PendingDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *mockPendingDocumentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.PendingDocument, error) {
	args := m.Called(ctx, id)
	if doc, ok := args.Get(0).(*models.PendingDocument); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPendingDocumentStore) ListPending(ctx context.Context) ([]models.PendingDocument, error) {
	args := m.Called(ctx)
	if docs, ok := args.Get(0).([]models.PendingDocument); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPendingDocumentStore) Save(ctx context.Context, doc *models.PendingDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *mockPendingDocumentStore) ExpireOlderThan(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockFactoryOrderStore struct{ mock.Mock }

func (m *mockFactoryOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.FactoryOrder, error) {
	args := m.Called(ctx, id)
	if order, ok := args.Get(0).(*models.FactoryOrder); ok {
		return order, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFactoryOrderStore) Create(ctx context.Context, order *models.FactoryOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockFactoryOrderStore) ListOpen(ctx context.Context) ([]models.FactoryOrder, error) {
	args := m.Called(ctx)
	if orders, ok := args.Get(0).([]models.FactoryOrder); ok {
		return orders, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFactoryOrderStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type mockScheduleStore struct{ mock.Mock }

func (m *mockScheduleStore) GetByKey(ctx context.Context, referencia, plant, sourceMonth string) (*models.ProductionScheduleEntry, error) {
	args := m.Called(ctx, referencia, plant, sourceMonth)
	if entry, ok := args.Get(0).(*models.ProductionScheduleEntry); ok {
		return entry, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScheduleStore) Upsert(ctx context.Context, entry *models.ProductionScheduleEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockScheduleStore) Save(ctx context.Context, entry *models.ProductionScheduleEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type mockSettingStore struct{ mock.Mock }

func (m *mockSettingStore) List(ctx context.Context) ([]models.Setting, error) {
	args := m.Called(ctx)
	if settings, ok := args.Get(0).([]models.Setting); ok {
		return settings, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSettingStore) Upsert(ctx context.Context, setting *models.Setting) error {
	args := m.Called(ctx, setting)
	return args.Error(0)
}

type mockPolicyCache struct{ mock.Mock }

func (m *mockPolicyCache) Get(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *mockPolicyCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *mockPolicyCache) Delete(ctx context.Context, keys ...string) error {
	callArgs := make([]interface{}, 0, len(keys)+1)
	callArgs = append(callArgs, ctx)
	for _, key := range keys {
		callArgs = append(callArgs, key)
	}
	args := m.Called(callArgs...)
	return args.Error(0)
}

func decFromFloat(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }
