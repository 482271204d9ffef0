package planning

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/tileflow/services/planning/internal/models"
)

// ProductState is everything the alert rules need to know about one
// product, precomputed by the caller from the entity snapshot.
type ProductState struct {
	ProductID uuid.UUID
	SKU       string
	Position  StockPosition
	Demand    DemandEstimate
	Plan      ReorderPlan
	// OpenOrderM2 is the quantity already covered by open factory orders
	OpenOrderM2 float64
	// FactoryAvailableM2 is what the factory last reported it can supply
	FactoryAvailableM2 float64
}

// ContainerState is the packing state of one container
type ContainerState struct {
	ContainerID   uuid.UUID
	Number        string
	ItemsComplete bool
	FillPct       float64
}

// ShipmentState is the lifecycle view of one shipment at evaluation time
type ShipmentState struct {
	ShipmentID uuid.UUID
	Reference  string
	Status     string
	ETA        *time.Time
	FreeDaysExpiry *time.Time
	// NewlyDeparted / NewlyArrived mark the first observation of the
	// corresponding transition event since the last run
	NewlyDeparted bool
	NewlyArrived  bool
	Containers    []ContainerState
}

// EvalSnapshot is the immutable input to one alert generation run
type EvalSnapshot struct {
	Now       time.Time
	Products  []ProductState
	Shipments []ShipmentState
}

// Draft is a candidate alert produced by the rules. Deduplication against
// existing unread alerts happens at the persistence boundary, not here.
type Draft struct {
	Type       string
	Severity   string
	Title      string
	Message    string
	ProductID  *uuid.UUID
	ShipmentID *uuid.UUID
}

// Evaluate runs every alert rule over the snapshot. It is a pure function:
// the same snapshot and policy always yield the same drafts in the same
// order, which makes batch generation re-entrant.
func Evaluate(snap EvalSnapshot, p Policy) []Draft {
	var drafts []Draft
	for _, prod := range snap.Products {
		drafts = append(drafts, evaluateProduct(prod, p)...)
	}
	for _, shp := range snap.Shipments {
		drafts = append(drafts, evaluateShipment(snap.Now, shp, p)...)
	}
	return drafts
}

func evaluateProduct(prod ProductState, p Policy) []Draft {
	var drafts []Draft
	id := prod.ProductID

	// Stockout rules need a demand signal to say anything
	if prod.Plan.HasVelocity {
		days := int(prod.Plan.DaysOfStock)
		switch {
		case days <= p.StockoutCriticalDays:
			drafts = append(drafts, Draft{
				Type:     models.AlertStockoutWarning,
				Severity: models.SeverityCritical,
				Title:    fmt.Sprintf("Stockout warning: %s", prod.SKU),
				Message: fmt.Sprintf("%s stocks out in %d days (position %.0f m², %.1f m²/day)",
					prod.SKU, days, prod.Position.TotalM2, prod.Demand.DailyMean()),
				ProductID: &id,
			})
		case days <= p.StockoutWarningDays:
			drafts = append(drafts, Draft{
				Type:     models.AlertLowStock,
				Severity: models.SeverityWarning,
				Title:    fmt.Sprintf("Low stock: %s", prod.SKU),
				Message: fmt.Sprintf("%s has %d days of stock remaining (position %.0f m²)",
					prod.SKU, days, prod.Position.TotalM2),
				ProductID: &id,
			})
		}
	}

	// Reorder point reached and no open order covers the gap
	if prod.Plan.ShouldReorder && prod.OpenOrderM2 < prod.Plan.RecommendedM2 {
		gap := prod.Plan.RecommendedM2 - prod.OpenOrderM2
		drafts = append(drafts, Draft{
			Type:     models.AlertOrderOpportunity,
			Severity: models.SeverityInfo,
			Title:    fmt.Sprintf("Order opportunity: %s", prod.SKU),
			Message: fmt.Sprintf("%s is at reorder point %.0f m² with position %.0f m²; order %.0f m² on the next boat",
				prod.SKU, prod.Plan.ReorderPointM2, prod.Position.TotalM2, gap),
			ProductID: &id,
		})
	}

	if OverstockedAt(prod.Plan, prod.Position, prod.Demand, p) {
		drafts = append(drafts, Draft{
			Type:     models.AlertOverStocked,
			Severity: models.SeverityInfo,
			Title:    fmt.Sprintf("Overstocked: %s", prod.SKU),
			Message: fmt.Sprintf("%s position %.0f m² is more than %.1fx the replenishment target",
				prod.SKU, prod.Position.TotalM2, p.OverstockMultiple),
			ProductID: &id,
		})
	}

	return drafts
}

func evaluateShipment(now time.Time, shp ShipmentState, p Policy) []Draft {
	var drafts []Draft
	id := shp.ShipmentID

	if shp.NewlyDeparted {
		drafts = append(drafts, Draft{
			Type:       models.AlertShipmentDeparted,
			Severity:   models.SeverityInfo,
			Title:      fmt.Sprintf("Shipment departed: %s", shp.Reference),
			Message:    fmt.Sprintf("Shipment %s is now in transit", shp.Reference),
			ShipmentID: &id,
		})
	}
	if shp.NewlyArrived {
		drafts = append(drafts, Draft{
			Type:       models.AlertShipmentArrived,
			Severity:   models.SeverityInfo,
			Title:      fmt.Sprintf("Shipment arrived: %s", shp.Reference),
			Message:    fmt.Sprintf("Shipment %s reached the destination port", shp.Reference),
			ShipmentID: &id,
		})
	}

	delivered := shp.Status == models.ShipmentDelivered

	// Free-days clock only matters once the shipment has arrived and
	// until it is delivered. Severity escalates as the expiry nears and
	// stays critical once it has passed.
	if shp.FreeDaysExpiry != nil && AtOrPast(shp.Status, models.ShipmentAtDestinationPort) && !delivered {
		daysLeft := DaysBetween(now, *shp.FreeDaysExpiry)
		var severity string
		switch {
		case daysLeft <= p.FreeDaysCritical:
			severity = models.SeverityCritical
		case daysLeft <= p.FreeDaysWarning:
			severity = models.SeverityWarning
		}
		if severity != "" {
			msg := fmt.Sprintf("Shipment %s has %d free days left at the port", shp.Reference, daysLeft)
			if daysLeft < 0 {
				msg = fmt.Sprintf("Shipment %s is %d days past free-days expiry and accruing storage fees",
					shp.Reference, -daysLeft)
			}
			drafts = append(drafts, Draft{
				Type:       models.AlertFreeDaysExpiring,
				Severity:   severity,
				Title:      fmt.Sprintf("Free days expiring: %s", shp.Reference),
				Message:    msg,
				ShipmentID: &id,
			})
		}
	}

	if shp.ETA != nil && !delivered && now.After(*shp.ETA) {
		drafts = append(drafts, Draft{
			Type:     models.AlertShipmentDelayed,
			Severity: models.SeverityWarning,
			Title:    fmt.Sprintf("Shipment delayed: %s", shp.Reference),
			Message: fmt.Sprintf("Shipment %s is %d days past its ETA and not yet delivered",
				shp.Reference, DaysBetween(*shp.ETA, now)),
			ShipmentID: &id,
		})
	}

	for _, c := range shp.Containers {
		if c.ItemsComplete && c.FillPct >= p.ContainerMinFillPct {
			drafts = append(drafts, Draft{
				Type:     models.AlertContainerReady,
				Severity: models.SeverityInfo,
				Title:    fmt.Sprintf("Container ready: %s", c.Number),
				Message: fmt.Sprintf("Container %s on shipment %s is packed to %.1f%%",
					c.Number, shp.Reference, c.FillPct),
				ShipmentID: &id,
			})
		}
	}

	return drafts
}
