package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"example.com/tileflow/services/planning/internal/models"
	"example.com/tileflow/services/planning/internal/planning"
)

func TestCreateOrderValidatesItems(t *testing.T) {
	orders := new(mockFactoryOrderStore)
	svc := NewFactoryOrderService(orders, new(mockScheduleStore), nil)

	err := svc.Create(context.Background(), &models.FactoryOrder{})
	require.ErrorIs(t, err, planning.ErrValidationFailed)

	err = svc.Create(context.Background(), &models.FactoryOrder{
		Items: []models.FactoryOrderItem{{ProductID: uuid.New(), OrderedM2: decimal.Zero}},
	})
	require.ErrorIs(t, err, planning.ErrValidationFailed)

	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrderDefaultsToPending(t *testing.T) {
	orders := new(mockFactoryOrderStore)
	orders.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewFactoryOrderService(orders, new(mockScheduleStore), nil)

	order := &models.FactoryOrder{
		Items: []models.FactoryOrderItem{{ProductID: uuid.New(), OrderedM2: decFromFloat(1881)}},
	}
	require.NoError(t, svc.Create(context.Background(), order))
	require.Equal(t, models.OrderStatusPending, order.Status)
}

func TestOrderAdvanceStatusIsMonotonic(t *testing.T) {
	orders := new(mockFactoryOrderStore)
	order := &models.FactoryOrder{ID: uuid.New(), Status: models.OrderStatusConfirmed}

	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	orders.On("UpdateStatus", mock.Anything, order.ID, models.OrderStatusInProduction).Return(nil)

	svc := NewFactoryOrderService(orders, new(mockScheduleStore), nil)

	require.NoError(t, svc.AdvanceStatus(context.Background(), order.ID, models.OrderStatusInProduction))

	err := svc.AdvanceStatus(context.Background(), order.ID, models.OrderStatusPending)
	require.ErrorIs(t, err, planning.ErrInvalidTransition)

	err = svc.AdvanceStatus(context.Background(), order.ID, models.OrderStatusConfirmed)
	require.ErrorIs(t, err, planning.ErrInvalidTransition)
}

func TestOrderAdvanceStatusRejectsUnknown(t *testing.T) {
	orders := new(mockFactoryOrderStore)
	svc := NewFactoryOrderService(orders, new(mockScheduleStore), nil)

	err := svc.AdvanceStatus(context.Background(), uuid.New(), "TELEPORTED")
	require.ErrorIs(t, err, planning.ErrValidationFailed)
	orders.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUpsertScheduleEntryNewEntry(t *testing.T) {
	schedule := new(mockScheduleStore)
	schedule.On("GetByKey", mock.Anything, "REF-1", "P1", "2026-05").Return(nil, gorm.ErrRecordNotFound)
	schedule.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	svc := NewFactoryOrderService(new(mockFactoryOrderStore), schedule, nil)

	entry := &models.ProductionScheduleEntry{
		Referencia:  "REF-1",
		Plant:       "P1",
		SourceMonth: "2026-05",
		RequestedM2: decFromFloat(5000),
	}
	require.NoError(t, svc.UpsertScheduleEntry(context.Background(), entry))
	require.Equal(t, models.ScheduleStatusScheduled, entry.Status)
}

func TestUpsertScheduleEntryFreezesStartedQuantities(t *testing.T) {
	schedule := new(mockScheduleStore)
	existing := &models.ProductionScheduleEntry{
		Referencia:  "REF-1",
		Plant:       "P1",
		SourceMonth: "2026-05",
		RequestedM2: decFromFloat(5000),
		Status:      models.ScheduleStatusInProgress,
	}
	schedule.On("GetByKey", mock.Anything, "REF-1", "P1", "2026-05").Return(existing, nil)

	svc := NewFactoryOrderService(new(mockFactoryOrderStore), schedule, nil)

	// The factory is already producing: asking for more is rejected
	bigger := &models.ProductionScheduleEntry{
		Referencia:  "REF-1",
		Plant:       "P1",
		SourceMonth: "2026-05",
		RequestedM2: decFromFloat(6000),
	}
	err := svc.UpsertScheduleEntry(context.Background(), bigger)
	require.ErrorIs(t, err, planning.ErrValidationFailed)
	schedule.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)

	// Reducing or restating the same quantity is still allowed
	schedule.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	same := &models.ProductionScheduleEntry{
		Referencia:  "REF-1",
		Plant:       "P1",
		SourceMonth: "2026-05",
		RequestedM2: decFromFloat(4500),
	}
	require.NoError(t, svc.UpsertScheduleEntry(context.Background(), same))
}

func TestUpsertScheduleEntryScheduledCanGrow(t *testing.T) {
	schedule := new(mockScheduleStore)
	existing := &models.ProductionScheduleEntry{
		Referencia:  "REF-1",
		Plant:       "P1",
		SourceMonth: "2026-05",
		RequestedM2: decFromFloat(5000),
		Status:      models.ScheduleStatusScheduled,
	}
	schedule.On("GetByKey", mock.Anything, "REF-1", "P1", "2026-05").Return(existing, nil)
	schedule.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	svc := NewFactoryOrderService(new(mockFactoryOrderStore), schedule, nil)

	bigger := &models.ProductionScheduleEntry{
		Referencia:  "REF-1",
		Plant:       "P1",
		SourceMonth: "2026-05",
		RequestedM2: decFromFloat(6000),
	}
	require.NoError(t, svc.UpsertScheduleEntry(context.Background(), bigger))
}

func TestReportAvailabilityDefaultsReportDate(t *testing.T) {
	availability := new(mockAvailabilityStore)

	var appended *models.FactoryAvailability
	availability.On("Append", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { appended = args.Get(1).(*models.FactoryAvailability) }).
		Return(nil)

	svc := NewFactoryOrderService(new(mockFactoryOrderStore), new(mockScheduleStore), availability)

	report := &models.FactoryAvailability{
		ID:         uuid.New(),
		ProductID:  uuid.New(),
		QuantityM2: decFromFloat(2500),
	}
	require.NoError(t, svc.ReportAvailability(context.Background(), report))
	require.WithinDuration(t, time.Now().UTC(), appended.ReportDate, time.Minute)
}

func TestReportAvailabilityRejectsNegativeQuantity(t *testing.T) {
	availability := new(mockAvailabilityStore)
	svc := NewFactoryOrderService(new(mockFactoryOrderStore), new(mockScheduleStore), availability)

	report := &models.FactoryAvailability{
		ID:         uuid.New(),
		ProductID:  uuid.New(),
		QuantityM2: decFromFloat(-10),
	}
	err := svc.ReportAvailability(context.Background(), report)
	require.ErrorIs(t, err, planning.ErrValidationFailed)
	availability.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestLatestAvailabilityNilWhenNeverReported(t *testing.T) {
	availability := new(mockAvailabilityStore)
	productID := uuid.New()
	availability.On("LatestForProduct", mock.Anything, productID).Return(nil, nil)

	svc := NewFactoryOrderService(new(mockFactoryOrderStore), new(mockScheduleStore), availability)

	latest, err := svc.LatestAvailability(context.Background(), productID)
	require.NoError(t, err)
	require.Nil(t, latest)
}
