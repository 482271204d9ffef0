package planning

import (
	"strconv"

	"github.com/pkg/errors"
)

// Settings keys recognized by the calculators. The store itself is a blind
// string map; coercion and range checks happen here, at the call site.
const (
	KeyLeadTimeDays         = "lead_time_days"
	KeySafetyStockZScore    = "safety_stock_z_score"
	KeyOrderCycleDays       = "order_cycle_days"
	KeyVelocityWindowWeeks  = "velocity_window_weeks"
	KeyContainerMaxPallets  = "container_max_pallets"
	KeyContainerMaxWeightKg = "container_max_weight_kg"
	KeyContainerMaxM2       = "container_max_m2"
	KeyM2PerPallet          = "m2_per_pallet"
	KeyWeightPerM2Kg        = "weight_per_m2_kg"
	KeyBoatMinContainers    = "boat_min_containers"
	KeyBoatMaxContainers    = "boat_max_containers"
	KeyWarehouseMaxPallets  = "warehouse_max_pallets"
	KeyWarehouseMaxM2       = "warehouse_max_m2"
	KeyStockoutCriticalDays = "stockout_critical_days"
	KeyStockoutWarningDays  = "stockout_warning_days"
	KeyFreeDaysCritical     = "free_days_critical"
	KeyFreeDaysWarning      = "free_days_warning"
	KeyBookingBufferDays    = "booking_buffer_days"
	KeyOverstockMultiple    = "overstock_multiple"
	KeyContainerMinFillPct  = "container_min_fill_pct"
)

// Store is the typed-read contract over the flat key/value settings table.
// Get returns ErrNotFound when the key is absent; callers supply defaults.
type Store interface {
	Get(key string) (string, error)
}

// MapStore is an in-memory Store used by tests and one-shot runs
type MapStore map[string]string

// Get returns the value for key or ErrNotFound
func (m MapStore) Get(key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", errors.Wrapf(ErrNotFound, "setting %q", key)
	}
	return v, nil
}

// IntSetting reads an integer setting, falling back to def when the key is
// absent. A present but unparseable value is a validation failure, not a
// silent default.
func IntSetting(s Store, key string, def int) (int, error) {
	raw, err := s.Get(key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return def, nil
		}
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(ErrValidationFailed, "setting %q: %q is not an integer", key, raw)
	}
	return v, nil
}

// FloatSetting reads a numeric setting, falling back to def when absent
func FloatSetting(s Store, key string, def float64) (float64, error) {
	raw, err := s.Get(key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return def, nil
		}
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrValidationFailed, "setting %q: %q is not numeric", key, raw)
	}
	return v, nil
}

// Policy is the full set of replenishment knobs the calculators run with.
// It is assembled once per batch run and passed in explicitly so every
// calculator stays pure.
type Policy struct {
	LeadTimeDays         int
	SafetyStockZScore    float64
	OrderCycleDays       int
	VelocityWindowWeeks  int
	ContainerMaxPallets  int
	ContainerMaxWeightKg float64
	ContainerMaxM2       float64
	M2PerPallet          float64
	WeightPerM2Kg        float64
	BoatMinContainers    int
	BoatMaxContainers    int
	WarehouseMaxPallets  int
	WarehouseMaxM2       float64
	StockoutCriticalDays int
	StockoutWarningDays  int
	FreeDaysCritical     int
	FreeDaysWarning      int
	BookingBufferDays    int
	OverstockMultiple    float64
	ContainerMinFillPct  float64
}

// LoadPolicy overlays the settings store onto the supplied defaults. Keys
// that were never written keep their default; malformed values surface
// ErrValidationFailed.
func LoadPolicy(s Store, def Policy) (Policy, error) {
	p := def
	var err error

	if p.LeadTimeDays, err = IntSetting(s, KeyLeadTimeDays, def.LeadTimeDays); err != nil {
		return Policy{}, err
	}
	if p.SafetyStockZScore, err = FloatSetting(s, KeySafetyStockZScore, def.SafetyStockZScore); err != nil {
		return Policy{}, err
	}
	if p.OrderCycleDays, err = IntSetting(s, KeyOrderCycleDays, def.OrderCycleDays); err != nil {
		return Policy{}, err
	}
	if p.VelocityWindowWeeks, err = IntSetting(s, KeyVelocityWindowWeeks, def.VelocityWindowWeeks); err != nil {
		return Policy{}, err
	}
	if p.ContainerMaxPallets, err = IntSetting(s, KeyContainerMaxPallets, def.ContainerMaxPallets); err != nil {
		return Policy{}, err
	}
	if p.ContainerMaxWeightKg, err = FloatSetting(s, KeyContainerMaxWeightKg, def.ContainerMaxWeightKg); err != nil {
		return Policy{}, err
	}
	if p.ContainerMaxM2, err = FloatSetting(s, KeyContainerMaxM2, def.ContainerMaxM2); err != nil {
		return Policy{}, err
	}
	if p.M2PerPallet, err = FloatSetting(s, KeyM2PerPallet, def.M2PerPallet); err != nil {
		return Policy{}, err
	}
	if p.WeightPerM2Kg, err = FloatSetting(s, KeyWeightPerM2Kg, def.WeightPerM2Kg); err != nil {
		return Policy{}, err
	}
	if p.BoatMinContainers, err = IntSetting(s, KeyBoatMinContainers, def.BoatMinContainers); err != nil {
		return Policy{}, err
	}
	if p.BoatMaxContainers, err = IntSetting(s, KeyBoatMaxContainers, def.BoatMaxContainers); err != nil {
		return Policy{}, err
	}
	if p.WarehouseMaxPallets, err = IntSetting(s, KeyWarehouseMaxPallets, def.WarehouseMaxPallets); err != nil {
		return Policy{}, err
	}
	if p.WarehouseMaxM2, err = FloatSetting(s, KeyWarehouseMaxM2, def.WarehouseMaxM2); err != nil {
		return Policy{}, err
	}
	if p.StockoutCriticalDays, err = IntSetting(s, KeyStockoutCriticalDays, def.StockoutCriticalDays); err != nil {
		return Policy{}, err
	}
	if p.StockoutWarningDays, err = IntSetting(s, KeyStockoutWarningDays, def.StockoutWarningDays); err != nil {
		return Policy{}, err
	}
	if p.FreeDaysCritical, err = IntSetting(s, KeyFreeDaysCritical, def.FreeDaysCritical); err != nil {
		return Policy{}, err
	}
	if p.FreeDaysWarning, err = IntSetting(s, KeyFreeDaysWarning, def.FreeDaysWarning); err != nil {
		return Policy{}, err
	}
	if p.BookingBufferDays, err = IntSetting(s, KeyBookingBufferDays, def.BookingBufferDays); err != nil {
		return Policy{}, err
	}
	if p.OverstockMultiple, err = FloatSetting(s, KeyOverstockMultiple, def.OverstockMultiple); err != nil {
		return Policy{}, err
	}
	if p.ContainerMinFillPct, err = FloatSetting(s, KeyContainerMinFillPct, def.ContainerMinFillPct); err != nil {
		return Policy{}, err
	}

	return p, nil
}
