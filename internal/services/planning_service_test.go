package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/tileflow/services/planning/internal/cache"
	"example.com/tileflow/services/planning/internal/models"
	"example.com/tileflow/services/planning/internal/planning"
)

type mockProductCatalog struct{ mock.Mock }

func (m *mockProductCatalog) ListActive(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	if products, ok := args.Get(0).([]models.Product); ok {
		return products, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSnapshotSource struct{ mock.Mock }

func (m *mockSnapshotSource) LatestPerProduct(ctx context.Context) ([]models.InventorySnapshot, error) {
	args := m.Called(ctx)
	if snaps, ok := args.Get(0).([]models.InventorySnapshot); ok {
		return snaps, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSalesSource struct{ mock.Mock }

func (m *mockSalesSource) SinceWeek(ctx context.Context, cutoff time.Time) ([]models.Sale, error) {
	args := m.Called(ctx, cutoff)
	if sales, ok := args.Get(0).([]models.Sale); ok {
		return sales, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPipelineSource struct{ mock.Mock }

func (m *mockPipelineSource) OpenQuantityByProduct(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	args := m.Called(ctx)
	if quantities, ok := args.Get(0).(map[uuid.UUID]decimal.Decimal); ok {
		return quantities, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockScheduleSource struct{ mock.Mock }

func (m *mockScheduleSource) SchedulableByProduct(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	args := m.Called(ctx)
	if quantities, ok := args.Get(0).(map[uuid.UUID]decimal.Decimal); ok {
		return quantities, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAvailabilitySource struct{ mock.Mock }

func (m *mockAvailabilitySource) ReportedByProduct(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	args := m.Called(ctx)
	if quantities, ok := args.Get(0).(map[uuid.UUID]decimal.Decimal); ok {
		return quantities, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockBoatSource struct{ mock.Mock }

func (m *mockBoatSource) NextArrivals(ctx context.Context, after time.Time, n int) ([]models.BoatSchedule, error) {
	args := m.Called(ctx, after, n)
	if boats, ok := args.Get(0).([]models.BoatSchedule); ok {
		return boats, args.Error(1)
	}
	return nil, args.Error(1)
}

// summaryFixture wires a one-product catalog selling a steady 700 m²/week
// with 1800 m² on hand, which is 18 days of stock.
func summaryFixture(t *testing.T, now time.Time, boats []models.BoatSchedule) *PlanningService {
	t.Helper()

	productID := uuid.New()
	product := models.Product{ID: productID, SKU: "TILE-1", Active: true}

	cutoff := weekFloor(now).AddDate(0, 0, -7*12)
	var sales []models.Sale
	for week := cutoff; !week.After(now); week = week.AddDate(0, 0, 7) {
		sales = append(sales, models.Sale{
			ID:         uuid.New(),
			ProductID:  productID,
			WeekStart:  week,
			QuantityM2: decFromFloat(700),
		})
	}

	products := new(mockProductCatalog)
	snapshots := new(mockSnapshotSource)
	salesSource := new(mockSalesSource)
	orders := new(mockPipelineSource)
	schedule := new(mockScheduleSource)
	availability := new(mockAvailabilitySource)
	boatSource := new(mockBoatSource)
	settings := new(mockPolicyLoader)

	products.On("ListActive", mock.Anything).Return([]models.Product{product}, nil)
	snapshots.On("LatestPerProduct", mock.Anything).Return([]models.InventorySnapshot{
		{ProductID: productID, WarehouseQty: decFromFloat(1800), InTransitQty: decimal.Zero},
	}, nil)
	salesSource.On("SinceWeek", mock.Anything, cutoff).Return(sales, nil)
	orders.On("OpenQuantityByProduct", mock.Anything).Return(map[uuid.UUID]decimal.Decimal{}, nil)
	schedule.On("SchedulableByProduct", mock.Anything).Return(map[uuid.UUID]decimal.Decimal{}, nil)
	availability.On("ReportedByProduct", mock.Anything).Return(map[uuid.UUID]decimal.Decimal{}, nil)
	boatSource.On("NextArrivals", mock.Anything, now, 3).Return(boats, nil)
	settings.On("LoadPolicy", mock.Anything).Return(testPolicy(), nil)

	return NewPlanningService(products, snapshots, salesSource, orders, schedule, availability, boatSource, settings, nil, noopTracer())
}

func TestStockoutSummaryBoatRelativeClassification(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	// 18 days of stock is outside the 14-day critical threshold, but the
	// next boat lands in 20 days: the product runs dry before relief can
	// arrive, which makes it critical anyway.
	boat := models.BoatSchedule{
		ID:            uuid.New(),
		VesselName:    "MSC Anna",
		DepartureDate: now.AddDate(0, 0, 5),
		ArrivalDate:   now.AddDate(0, 0, 20),
	}
	svc := summaryFixture(t, now, []models.BoatSchedule{boat})

	summary, err := svc.StockoutSummary(context.Background(), now, true)
	require.NoError(t, err)

	require.Len(t, summary.Products, 1)
	outlook := summary.Products[0]
	require.Equal(t, OutlookCritical, outlook.Classification)
	require.False(t, outlook.CoveredByNextBoat)
	require.InDelta(t, 18, outlook.Plan.DaysOfStock, 0.01)
	require.Equal(t, 1, summary.Counts[OutlookCritical])

	require.Len(t, summary.NextBoats, 1)
	require.Equal(t, boat.DepartureDate.AddDate(0, 0, -3), summary.NextBoats[0].BookingDeadline)
	require.Equal(t, boat.DepartureDate.AddDate(0, 0, -20), summary.NextBoats[0].OrderDeadline)
	require.Equal(t, boat.DepartureDate.AddDate(0, 0, -10), summary.NextBoats[0].HardDeadline)
}

func TestStockoutSummaryCoveredByEarlierBoat(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	// Same 18 days of stock, but a boat lands in 10 days: the day
	// thresholds alone decide, and 18 is in the warning band.
	boat := models.BoatSchedule{
		ID:            uuid.New(),
		VesselName:    "MSC Anna",
		DepartureDate: now.AddDate(0, 0, -5),
		ArrivalDate:   now.AddDate(0, 0, 10),
	}
	svc := summaryFixture(t, now, []models.BoatSchedule{boat})

	summary, err := svc.StockoutSummary(context.Background(), now, true)
	require.NoError(t, err)

	outlook := summary.Products[0]
	require.Equal(t, OutlookWarning, outlook.Classification)
	require.True(t, outlook.CoveredByNextBoat)
}

func TestStockoutSummaryNoVelocity(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	productID := uuid.New()
	products := new(mockProductCatalog)
	snapshots := new(mockSnapshotSource)
	salesSource := new(mockSalesSource)
	orders := new(mockPipelineSource)
	schedule := new(mockScheduleSource)
	availability := new(mockAvailabilitySource)
	boatSource := new(mockBoatSource)
	settings := new(mockPolicyLoader)

	products.On("ListActive", mock.Anything).Return([]models.Product{{ID: productID, SKU: "TILE-NEW", Active: true}}, nil)
	snapshots.On("LatestPerProduct", mock.Anything).Return([]models.InventorySnapshot{
		{ProductID: productID, WarehouseQty: decFromFloat(500)},
	}, nil)
	salesSource.On("SinceWeek", mock.Anything, mock.Anything).Return([]models.Sale{}, nil)
	orders.On("OpenQuantityByProduct", mock.Anything).Return(map[uuid.UUID]decimal.Decimal{}, nil)
	schedule.On("SchedulableByProduct", mock.Anything).Return(map[uuid.UUID]decimal.Decimal{}, nil)
	availability.On("ReportedByProduct", mock.Anything).Return(map[uuid.UUID]decimal.Decimal{}, nil)
	boatSource.On("NextArrivals", mock.Anything, now, 3).Return([]models.BoatSchedule{}, nil)
	settings.On("LoadPolicy", mock.Anything).Return(testPolicy(), nil)

	svc := NewPlanningService(products, snapshots, salesSource, orders, schedule, availability, boatSource, settings, nil, noopTracer())

	summary, err := svc.StockoutSummary(context.Background(), now, true)
	require.NoError(t, err)

	require.Len(t, summary.Products, 1)
	require.Equal(t, OutlookNoVelocity, summary.Products[0].Classification)
	require.Nil(t, summary.Products[0].StockoutDate)
}

func TestRecommendationsOnlyBelowReorderPoint(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	svc := summaryFixture(t, now, nil)

	// 1800 m² against a 4500 m² reorder point (700/week over 45 days)
	recs, err := svc.Recommendations(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "TILE-1", recs[0].SKU)
	require.Greater(t, recs[0].RecommendedM2, 0.0)
	require.InDelta(t, 700.0*45/7, recs[0].ReorderPointM2, 0.01)
}

// planFixture mirrors summaryFixture but hands back the product ID and lets
// the caller attach a plan cache and a reported factory availability.
func planFixture(t *testing.T, now time.Time, availableM2 float64, planCache PolicyCache) (*PlanningService, uuid.UUID) {
	t.Helper()

	productID := uuid.New()
	product := models.Product{ID: productID, SKU: "TILE-1", Active: true}

	cutoff := weekFloor(now).AddDate(0, 0, -7*12)
	var sales []models.Sale
	for week := cutoff; !week.After(now); week = week.AddDate(0, 0, 7) {
		sales = append(sales, models.Sale{
			ID:         uuid.New(),
			ProductID:  productID,
			WeekStart:  week,
			QuantityM2: decFromFloat(700),
		})
	}

	products := new(mockProductCatalog)
	snapshots := new(mockSnapshotSource)
	salesSource := new(mockSalesSource)
	orders := new(mockPipelineSource)
	schedule := new(mockScheduleSource)
	availability := new(mockAvailabilitySource)
	boatSource := new(mockBoatSource)
	settings := new(mockPolicyLoader)

	products.On("ListActive", mock.Anything).Return([]models.Product{product}, nil)
	snapshots.On("LatestPerProduct", mock.Anything).Return([]models.InventorySnapshot{
		{ProductID: productID, WarehouseQty: decFromFloat(1800), InTransitQty: decimal.Zero},
	}, nil)
	salesSource.On("SinceWeek", mock.Anything, cutoff).Return(sales, nil)
	orders.On("OpenQuantityByProduct", mock.Anything).Return(map[uuid.UUID]decimal.Decimal{}, nil)
	schedule.On("SchedulableByProduct", mock.Anything).Return(map[uuid.UUID]decimal.Decimal{}, nil)
	availability.On("ReportedByProduct", mock.Anything).Return(map[uuid.UUID]decimal.Decimal{
		productID: decFromFloat(availableM2),
	}, nil)
	boatSource.On("NextArrivals", mock.Anything, now, mock.Anything).Return([]models.BoatSchedule{}, nil)
	settings.On("LoadPolicy", mock.Anything).Return(testPolicy(), nil)

	svc := NewPlanningService(products, snapshots, salesSource, orders, schedule, availability, boatSource, settings, planCache, noopTracer())
	return svc, productID
}

func TestProductPlanComputesAndCaches(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	planCache := new(mockPolicyCache)
	planCache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("cache miss"))
	planCache.On("Set", mock.Anything, mock.Anything, mock.Anything, productPlanCacheTTL).Return(nil)

	svc, productID := planFixture(t, now, 3000, planCache)

	outlook, err := svc.ProductPlan(context.Background(), productID, now, false)
	require.NoError(t, err)
	require.Equal(t, "TILE-1", outlook.SKU)
	require.Equal(t, OutlookWarning, outlook.Classification)
	require.InDelta(t, 18, outlook.Plan.DaysOfStock, 0.01)

	planCache.AssertCalled(t, "Set", mock.Anything, cache.ProductPlanCacheKey(productID), mock.Anything, productPlanCacheTTL)
}

func TestProductPlanUnknownProduct(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	svc, _ := planFixture(t, now, 0, nil)

	_, err := svc.ProductPlan(context.Background(), uuid.New(), now, true)
	require.ErrorIs(t, err, planning.ErrNotFound)
}

func TestRecommendationsCarryFactoryAvailability(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	svc, _ := planFixture(t, now, 3000, nil)

	recs, err := svc.Recommendations(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.InDelta(t, 3000, recs[0].FactoryAvailableM2, 0.01)
}

func TestWeekFloor(t *testing.T) {
	wed := time.Date(2026, 4, 1, 15, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC), weekFloor(wed))

	mon := time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC)
	require.Equal(t, mon, weekFloor(mon))

	sun := time.Date(2026, 4, 5, 23, 0, 0, 0, time.UTC)
	require.Equal(t, mon, weekFloor(sun))
}

func TestWeeklySeriesZeroFillsGaps(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	cutoff := weekFloor(now).AddDate(0, 0, -7*3)

	productID := uuid.New()
	sales := []models.Sale{
		{ProductID: productID, WeekStart: cutoff, QuantityM2: decFromFloat(100)},
		{ProductID: productID, WeekStart: cutoff.AddDate(0, 0, 14), QuantityM2: decFromFloat(300)},
	}

	series := weeklySeries(sales, cutoff, now)
	require.Len(t, series[productID], 4)
	require.Equal(t, []float64{100, 0, 300, 0}, series[productID])

	// A product with no sales at all stays absent, so its demand estimate
	// is flagged low confidence instead of reading as zero-with-history
	require.NotContains(t, series, uuid.New())
}
