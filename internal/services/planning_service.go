package services

import (
	"context"
	"time"

	"example.com/tileflow/services/planning/internal/cache"
	"example.com/tileflow/services/planning/internal/models"
	"example.com/tileflow/services/planning/internal/planning"
	"example.com/tileflow/services/planning/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// stockoutSummaryCacheTTL bounds how stale the dashboard summary can get
const stockoutSummaryCacheTTL = 10 * time.Minute

// productPlanCacheTTL bounds how stale a cached per-product plan can get
const productPlanCacheTTL = 10 * time.Minute

// ProductCatalog is the product repository contract
type ProductCatalog interface {
	ListActive(ctx context.Context) ([]models.Product, error)
}

// SnapshotSource supplies the latest inventory position per product
type SnapshotSource interface {
	LatestPerProduct(ctx context.Context) ([]models.InventorySnapshot, error)
}

// SalesSource supplies the trailing sales history
type SalesSource interface {
	SinceWeek(ctx context.Context, cutoff time.Time) ([]models.Sale, error)
}

// PipelineSource supplies the open factory-order quantities
type PipelineSource interface {
	OpenQuantityByProduct(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error)
}

// ScheduleSource supplies the schedulable production quantities
type ScheduleSource interface {
	SchedulableByProduct(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error)
}

// AvailabilitySource supplies each product's latest reported factory supply
type AvailabilitySource interface {
	ReportedByProduct(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error)
}

// BoatSource supplies upcoming voyages
type BoatSource interface {
	NextArrivals(ctx context.Context, after time.Time, n int) ([]models.BoatSchedule, error)
}

// PolicyLoader assembles the active replenishment policy
type PolicyLoader interface {
	LoadPolicy(ctx context.Context) (planning.Policy, error)
}

// Stockout classifications relative to the sailing schedule. A product
// that runs out before the next boat can arrive is past the point where
// ordering helps, so it is critical regardless of the day thresholds.
const (
	OutlookOK         = "OK"
	OutlookWarning    = "WARNING"
	OutlookCritical   = "CRITICAL"
	OutlookNoVelocity = "NO_VELOCITY"
)

// ProductOutlook is the full replenishment picture for one product
type ProductOutlook struct {
	ProductID      uuid.UUID              `json:"product_id"`
	SKU            string                 `json:"sku"`
	Position       planning.StockPosition `json:"position"`
	Demand         planning.DemandEstimate `json:"demand"`
	Plan           planning.ReorderPlan   `json:"plan"`
	StockoutDate   *time.Time             `json:"stockout_date"`
	Classification string                 `json:"classification"`
	// CoveredByNextBoat means stock lasts until the next boat arrives, so
	// an order placed now would land in time
	CoveredByNextBoat bool `json:"covered_by_next_boat"`
}

// Cutoffs counted back from a boat's departure: the day a factory order must
// be placed to make the sailing, and the last day cargo can still be added.
const (
	orderDeadlineDays = 20
	hardDeadlineDays  = 10
)

// BoatETA is one upcoming voyage with its derived cutoffs
type BoatETA struct {
	BoatScheduleID  uuid.UUID `json:"boat_schedule_id"`
	VesselName      string    `json:"vessel_name"`
	DepartureDate   time.Time `json:"departure_date"`
	ArrivalDate     time.Time `json:"arrival_date"`
	BookingDeadline time.Time `json:"booking_deadline"`
	OrderDeadline   time.Time `json:"order_deadline"`
	HardDeadline    time.Time `json:"hard_deadline"`
}

// StockoutSummary is the dashboard view of the whole catalog
type StockoutSummary struct {
	GeneratedAt time.Time        `json:"generated_at"`
	NextBoats   []BoatETA        `json:"next_boats"`
	Products    []ProductOutlook `json:"products"`
	Counts      map[string]int   `json:"counts"`
}

// Recommendation is one product the engine suggests ordering
type Recommendation struct {
	ProductID      uuid.UUID `json:"product_id"`
	SKU            string    `json:"sku"`
	RecommendedM2  float64   `json:"recommended_m2"`
	OpenOrderM2    float64   `json:"open_order_m2"`
	ReorderPointM2 float64   `json:"reorder_point_m2"`
	SafetyStockM2  float64   `json:"safety_stock_m2"`
	DaysOfStock    float64   `json:"days_of_stock"`
	LowConfidence  bool      `json:"low_confidence"`
	// FactoryAvailableM2 is what the factory last reported it can supply,
	// so a recommendation exceeding it needs a production request first
	FactoryAvailableM2 float64 `json:"factory_available_m2"`
}

// PlanningService runs the replenishment calculators over live data
type PlanningService struct {
	products     ProductCatalog
	snapshots    SnapshotSource
	sales        SalesSource
	orders       PipelineSource
	schedule     ScheduleSource
	availability AvailabilitySource
	boats        BoatSource
	settings     PolicyLoader
	cache        PolicyCache
	tracer       tracing.Tracer
}

// NewPlanningService creates a new planning service
func NewPlanningService(
	products ProductCatalog,
	snapshots SnapshotSource,
	sales SalesSource,
	orders PipelineSource,
	schedule ScheduleSource,
	availability AvailabilitySource,
	boats BoatSource,
	settings PolicyLoader,
	planCache PolicyCache,
	tracer tracing.Tracer,
) *PlanningService {
	return &PlanningService{
		products:     products,
		snapshots:    snapshots,
		sales:        sales,
		orders:       orders,
		schedule:     schedule,
		availability: availability,
		boats:        boats,
		settings:     settings,
		cache:        planCache,
		tracer:       tracer,
	}
}

// BuildStates assembles the per-product planning inputs for the whole
// active catalog at the given instant.
func (s *PlanningService) BuildStates(ctx context.Context, now time.Time) ([]planning.ProductState, planning.Policy, error) {
	txn := s.tracer.StartTransaction("build-product-states")
	defer s.tracer.EndTransaction(txn)

	policy, err := s.settings.LoadPolicy(ctx)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, planning.Policy{}, errors.Wrap(err, "failed to load policy")
	}

	span := s.tracer.StartSpan("load-planning-inputs", txn)
	products, err := s.products.ListActive(ctx)
	if err != nil {
		span.End()
		s.tracer.RecordError(txn, err)
		return nil, planning.Policy{}, err
	}

	snapshots, err := s.snapshots.LatestPerProduct(ctx)
	if err != nil {
		span.End()
		s.tracer.RecordError(txn, err)
		return nil, planning.Policy{}, err
	}

	cutoff := weekFloor(now).AddDate(0, 0, -7*policy.VelocityWindowWeeks)
	sales, err := s.sales.SinceWeek(ctx, cutoff)
	if err != nil {
		span.End()
		s.tracer.RecordError(txn, err)
		return nil, planning.Policy{}, err
	}

	openOrders, err := s.orders.OpenQuantityByProduct(ctx)
	if err != nil {
		span.End()
		s.tracer.RecordError(txn, err)
		return nil, planning.Policy{}, err
	}

	schedulable, err := s.schedule.SchedulableByProduct(ctx)
	if err != nil {
		span.End()
		s.tracer.RecordError(txn, err)
		return nil, planning.Policy{}, err
	}

	available, err := s.availability.ReportedByProduct(ctx)
	span.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, planning.Policy{}, err
	}

	snapshotByProduct := make(map[uuid.UUID]*planning.SnapshotQty, len(snapshots))
	for i := range snapshots {
		snap := snapshots[i]
		warehouse, _ := snap.WarehouseQty.Float64()
		inTransit, _ := snap.InTransitQty.Float64()
		snapshotByProduct[snap.ProductID] = &planning.SnapshotQty{
			WarehouseM2: warehouse,
			InTransitM2: inTransit,
		}
	}

	seriesByProduct := weeklySeries(sales, cutoff, now)

	states := make([]planning.ProductState, 0, len(products))
	for _, product := range products {
		est := planning.EstimateDemand(seriesByProduct[product.ID])

		openM2, _ := openOrders[product.ID].Float64()
		schedM2, _ := schedulable[product.ID].Float64()
		availM2, _ := available[product.ID].Float64()

		pos, err := planning.ComputePosition(snapshotByProduct[product.ID], openM2, schedM2)
		if err != nil {
			log.Warn().Err(err).Str("sku", product.SKU).Msg("Skipping product with invalid position data")
			s.tracer.RecordError(txn, err)
			continue
		}

		states = append(states, planning.ProductState{
			ProductID:          product.ID,
			SKU:                product.SKU,
			Position:           pos,
			Demand:             est,
			Plan:               planning.ComputeReorder(est, pos, policy),
			OpenOrderM2:        openM2,
			FactoryAvailableM2: availM2,
		})
	}

	return states, policy, nil
}

// StockoutSummary classifies every product against the day thresholds and
// the sailing schedule. The result is cached briefly; pass skipCache to
// force a fresh computation.
func (s *PlanningService) StockoutSummary(ctx context.Context, now time.Time, skipCache bool) (*StockoutSummary, error) {
	if s.cache != nil && !skipCache {
		var cached StockoutSummary
		if err := s.cache.Get(ctx, cache.StockoutSummaryCacheKey(), &cached); err == nil {
			return &cached, nil
		}
	}

	states, policy, err := s.BuildStates(ctx, now)
	if err != nil {
		return nil, err
	}

	boats, err := s.boats.NextArrivals(ctx, now, 3)
	if err != nil {
		return nil, err
	}

	summary := &StockoutSummary{
		GeneratedAt: now,
		Counts:      map[string]int{},
	}
	for _, boat := range boats {
		summary.NextBoats = append(summary.NextBoats, BoatETA{
			BoatScheduleID:  boat.ID,
			VesselName:      boat.VesselName,
			DepartureDate:   boat.DepartureDate,
			ArrivalDate:     boat.ArrivalDate,
			BookingDeadline: planning.BookingDeadline(boat.DepartureDate, policy.BookingBufferDays),
			OrderDeadline:   planning.BookingDeadline(boat.DepartureDate, orderDeadlineDays),
			HardDeadline:    planning.BookingDeadline(boat.DepartureDate, hardDeadlineDays),
		})
	}

	var nextArrival *time.Time
	if len(summary.NextBoats) > 0 {
		nextArrival = &summary.NextBoats[0].ArrivalDate
	}

	for _, st := range states {
		outlook := classifyOutlook(st, now, nextArrival, policy)
		summary.Counts[outlook.Classification]++
		summary.Products = append(summary.Products, outlook)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.StockoutSummaryCacheKey(), summary, stockoutSummaryCacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache stockout summary")
		}
	}

	return summary, nil
}

// classifyOutlook judges one product against the day thresholds and the
// next scheduled arrival
func classifyOutlook(st planning.ProductState, now time.Time, nextArrival *time.Time, policy planning.Policy) ProductOutlook {
	outlook := ProductOutlook{
		ProductID: st.ProductID,
		SKU:       st.SKU,
		Position:  st.Position,
		Demand:    st.Demand,
		Plan:      st.Plan,
	}

	if !st.Plan.HasVelocity {
		outlook.Classification = OutlookNoVelocity
		return outlook
	}

	stockout := now.AddDate(0, 0, int(st.Plan.DaysOfStock))
	outlook.StockoutDate = &stockout
	if nextArrival != nil {
		outlook.CoveredByNextBoat = stockout.After(*nextArrival)
	}

	days := int(st.Plan.DaysOfStock)
	switch {
	case days <= policy.StockoutCriticalDays,
		nextArrival != nil && stockout.Before(*nextArrival):
		outlook.Classification = OutlookCritical
	case days <= policy.StockoutWarningDays:
		outlook.Classification = OutlookWarning
	default:
		outlook.Classification = OutlookOK
	}
	return outlook
}

// ProductPlan is the replenishment picture for a single product, cached
// per product so drill-down views don't recompute the whole catalog.
func (s *PlanningService) ProductPlan(ctx context.Context, productID uuid.UUID, now time.Time, skipCache bool) (*ProductOutlook, error) {
	if s.cache != nil && !skipCache {
		var cached ProductOutlook
		if err := s.cache.Get(ctx, cache.ProductPlanCacheKey(productID), &cached); err == nil {
			return &cached, nil
		}
	}

	states, policy, err := s.BuildStates(ctx, now)
	if err != nil {
		return nil, err
	}

	boats, err := s.boats.NextArrivals(ctx, now, 1)
	if err != nil {
		return nil, err
	}
	var nextArrival *time.Time
	if len(boats) > 0 {
		nextArrival = &boats[0].ArrivalDate
	}

	for _, st := range states {
		if st.ProductID != productID {
			continue
		}
		outlook := classifyOutlook(st, now, nextArrival, policy)

		if s.cache != nil {
			if err := s.cache.Set(ctx, cache.ProductPlanCacheKey(productID), outlook, productPlanCacheTTL); err != nil {
				log.Warn().Err(err).Str("product_id", productID.String()).Msg("Failed to cache product plan")
			}
		}
		return &outlook, nil
	}

	return nil, errors.Wrapf(planning.ErrNotFound, "no active product %s", productID)
}

// Recommendations lists the products at or below their reorder point
func (s *PlanningService) Recommendations(ctx context.Context, now time.Time) ([]Recommendation, error) {
	states, _, err := s.BuildStates(ctx, now)
	if err != nil {
		return nil, err
	}

	var recs []Recommendation
	for _, st := range states {
		if !st.Plan.ShouldReorder {
			continue
		}
		recs = append(recs, Recommendation{
			ProductID:          st.ProductID,
			SKU:                st.SKU,
			RecommendedM2:      st.Plan.RecommendedM2,
			OpenOrderM2:        st.OpenOrderM2,
			ReorderPointM2:     st.Plan.ReorderPointM2,
			SafetyStockM2:      st.Plan.SafetyStockM2,
			DaysOfStock:        st.Plan.DaysOfStock,
			LowConfidence:      st.Plan.LowConfidence,
			FactoryAvailableM2: st.FactoryAvailableM2,
		})
	}
	return recs, nil
}

// PackPreview runs the container packer over a candidate order without
// persisting anything
func (s *PlanningService) PackPreview(ctx context.Context, items []planning.PackItem) (planning.PackPlan, error) {
	policy, err := s.settings.LoadPolicy(ctx)
	if err != nil {
		return planning.PackPlan{}, errors.Wrap(err, "failed to load policy")
	}
	return planning.Pack(items, policy)
}

// weekFloor truncates to the Monday of the instant's week, UTC
func weekFloor(t time.Time) time.Time {
	t = t.UTC().Truncate(24 * time.Hour)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// weeklySeries buckets sales into whole weeks between cutoff and now,
// filling empty weeks with zeros. Products with no sales at all stay
// absent so their estimate is flagged low confidence, not zero-with-
// history.
func weeklySeries(sales []models.Sale, cutoff, now time.Time) map[uuid.UUID][]float64 {
	weeks := int(now.Sub(cutoff).Hours()/(24*7)) + 1
	if weeks < 1 {
		weeks = 1
	}

	byProduct := make(map[uuid.UUID][]float64)
	for _, sale := range sales {
		idx := int(weekFloor(sale.WeekStart).Sub(cutoff).Hours() / (24 * 7))
		if idx < 0 || idx >= weeks {
			continue
		}
		series, ok := byProduct[sale.ProductID]
		if !ok {
			series = make([]float64, weeks)
			byProduct[sale.ProductID] = series
		}
		qty, _ := sale.QuantityM2.Float64()
		series[idx] += qty
	}
	return byProduct
}
