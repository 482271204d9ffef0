package planning

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// PackItem is a candidate quantity of one product to be packed
type PackItem struct {
	ProductID uuid.UUID
	SKU       string
	M2        float64
}

// PackedItem is a slice of a PackItem placed in one container
type PackedItem struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	M2        float64   `json:"m2"`
	Pallets   int       `json:"pallets"`
	WeightKg  float64   `json:"weight_kg"`
}

// PackedContainer is one container filled to the tightest of the pallet,
// weight and m² limits.
type PackedContainer struct {
	Items    []PackedItem `json:"items"`
	M2       float64      `json:"m2"`
	Pallets  int          `json:"pallets"`
	WeightKg float64      `json:"weight_kg"`
	FillPct  float64      `json:"fill_pct"`
}

// BoatLoad is a group of containers assigned to one sailing
type BoatLoad struct {
	Containers []PackedContainer `json:"containers"`
	// Ready means the load reached the boat's minimum container count or
	// was explicitly forced.
	Ready bool `json:"ready"`
}

// PackPlan is the result of packing a candidate order
type PackPlan struct {
	Containers []PackedContainer `json:"containers"`
	Boats      []BoatLoad        `json:"boats"`
	TotalM2    float64           `json:"total_m2"`
	// UnderMinimum is set when the final boat could not reach the minimum
	// container count. The caller decides whether to hold or force-ship.
	UnderMinimum bool `json:"under_minimum"`
}

// containerCapacityM2 is the effective m² a container can take, the
// tightest of the three physical limits expressed in m².
func containerCapacityM2(p Policy) float64 {
	cap := p.ContainerMaxM2
	if p.WeightPerM2Kg > 0 {
		byWeight := p.ContainerMaxWeightKg / p.WeightPerM2Kg
		if byWeight < cap {
			cap = byWeight
		}
	}
	if p.M2PerPallet > 0 {
		byPallets := float64(p.ContainerMaxPallets) * p.M2PerPallet
		if byPallets < cap {
			cap = byPallets
		}
	}
	return cap
}

// Pack distributes the candidate quantities into containers using a greedy
// fill: quantities sorted descending, each container filled to the
// tightest limit before the next one is opened. Quantities may be split
// across containers; tile orders are divisible to the m².
func Pack(items []PackItem, p Policy) (PackPlan, error) {
	for _, it := range items {
		if it.M2 < 0 {
			return PackPlan{}, errors.Wrapf(ErrValidationFailed, "pack quantity for %s is negative", it.SKU)
		}
	}
	capM2 := containerCapacityM2(p)
	if capM2 <= 0 {
		return PackPlan{}, errors.Wrap(ErrValidationFailed, "container capacity resolves to zero")
	}

	sorted := make([]PackItem, 0, len(items))
	for _, it := range items {
		if it.M2 > 0 {
			sorted = append(sorted, it)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].M2 != sorted[j].M2 {
			return sorted[i].M2 > sorted[j].M2
		}
		return sorted[i].SKU < sorted[j].SKU
	})

	var plan PackPlan
	var current *PackedContainer

	openContainer := func() {
		plan.Containers = append(plan.Containers, PackedContainer{})
		current = &plan.Containers[len(plan.Containers)-1]
	}

	for _, it := range sorted {
		remaining := it.M2
		plan.TotalM2 += it.M2
		for remaining > 0 {
			if current == nil || capM2-current.M2 <= 0 {
				openContainer()
			}
			take := math.Min(remaining, capM2-current.M2)
			current.Items = append(current.Items, PackedItem{
				ProductID: it.ProductID,
				SKU:       it.SKU,
				M2:        take,
				Pallets:   palletsFor(take, p),
				WeightKg:  take * p.WeightPerM2Kg,
			})
			current.M2 += take
			remaining -= take
		}
	}

	for i := range plan.Containers {
		c := &plan.Containers[i]
		c.Pallets = palletsFor(c.M2, p)
		c.WeightKg = c.M2 * p.WeightPerM2Kg
		if p.ContainerMaxM2 > 0 {
			c.FillPct = math.Min(100, c.M2/p.ContainerMaxM2*100)
		}
	}

	plan.Boats = groupIntoBoats(plan.Containers, p)
	if n := len(plan.Boats); n > 0 && !plan.Boats[n-1].Ready {
		plan.UnderMinimum = true
	}

	return plan, nil
}

// palletsFor converts an m² quantity into whole pallets
func palletsFor(m2 float64, p Policy) int {
	if p.M2PerPallet <= 0 {
		return 0
	}
	return int(math.Ceil(m2 / p.M2PerPallet))
}

// groupIntoBoats fills boats with containers up to the max per sailing. A
// boat is ready once it reaches the configured minimum.
func groupIntoBoats(containers []PackedContainer, p Policy) []BoatLoad {
	if len(containers) == 0 {
		return nil
	}
	maxPer := p.BoatMaxContainers
	if maxPer <= 0 {
		maxPer = len(containers)
	}

	var boats []BoatLoad
	for start := 0; start < len(containers); start += maxPer {
		end := start + maxPer
		if end > len(containers) {
			end = len(containers)
		}
		load := BoatLoad{Containers: containers[start:end]}
		load.Ready = len(load.Containers) >= p.BoatMinContainers
		boats = append(boats, load)
	}
	return boats
}

// CloseBoat declares a boat load ready to ship. Loads under the minimum
// container count fail with ErrUnderCapacity unless forced.
func CloseBoat(load *BoatLoad, p Policy, force bool) error {
	if len(load.Containers) < p.BoatMinContainers && !force {
		return errors.Wrapf(ErrUnderCapacity,
			"%d containers below boat minimum of %d", len(load.Containers), p.BoatMinContainers)
	}
	load.Ready = true
	return nil
}
