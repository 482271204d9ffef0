package planning

import "github.com/pkg/errors"

// SnapshotQty is the latest inventory snapshot for a product, or nil if
// no snapshot has ever been taken.
type SnapshotQty struct {
	WarehouseM2 float64
	InTransitM2 float64
}

// StockPosition combines current warehouse stock with everything already
// moving toward it.
type StockPosition struct {
	OnHandM2 float64 `json:"on_hand_m2"`
	// InTransitM2 is goods on the water per the latest snapshot
	InTransitM2 float64 `json:"in_transit_m2"`
	// InPipelineM2 is open factory-order quantity plus production schedule
	// quantity that can still be increased (status SCHEDULED)
	InPipelineM2 float64 `json:"in_pipeline_m2"`
	TotalM2      float64 `json:"total_m2"`
}

// ComputePosition builds the stock position for one product. A product
// with no snapshot yet is a zero position, not an error. Negative supply
// sums violate the data contract and fail validation.
func ComputePosition(snapshot *SnapshotQty, openOrderM2, schedulableM2 float64) (StockPosition, error) {
	if openOrderM2 < 0 {
		return StockPosition{}, errors.Wrapf(ErrValidationFailed, "open order quantity %.2f is negative", openOrderM2)
	}
	if schedulableM2 < 0 {
		return StockPosition{}, errors.Wrapf(ErrValidationFailed, "schedulable production quantity %.2f is negative", schedulableM2)
	}

	var pos StockPosition
	if snapshot != nil {
		if snapshot.WarehouseM2 < 0 || snapshot.InTransitM2 < 0 {
			return StockPosition{}, errors.Wrap(ErrValidationFailed, "snapshot quantities are negative")
		}
		pos.OnHandM2 = snapshot.WarehouseM2
		pos.InTransitM2 = snapshot.InTransitM2
	}
	pos.InPipelineM2 = openOrderM2 + schedulableM2
	pos.TotalM2 = pos.OnHandM2 + pos.InTransitM2 + pos.InPipelineM2
	return pos, nil
}
