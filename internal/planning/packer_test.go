package planning

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// packPolicy keeps weight and pallets from binding so the m² limit is the
// effective capacity
func packPolicy() Policy {
	p := testPolicy()
	p.WeightPerM2Kg = 14.0  // 28000/14 = 2000 m² by weight
	p.M2PerPallet = 135     // 14*135 = 1890 m² by pallets
	return p
}

func TestPackExactFill(t *testing.T) {
	p := packPolicy()
	items := []PackItem{{ProductID: uuid.New(), SKU: "TILE-1", M2: 1881}}

	plan, err := Pack(items, p)
	require.NoError(t, err)

	require.Len(t, plan.Containers, 1)
	require.InDelta(t, 1881, plan.Containers[0].M2, 0.001)
	require.InDelta(t, 100, plan.Containers[0].FillPct, 0.001)
}

func TestPackOverflowOpensSecondContainer(t *testing.T) {
	p := packPolicy()
	items := []PackItem{{ProductID: uuid.New(), SKU: "TILE-1", M2: 1882}}

	plan, err := Pack(items, p)
	require.NoError(t, err)

	require.Len(t, plan.Containers, 2)
	require.InDelta(t, 1881, plan.Containers[0].M2, 0.001)
	require.InDelta(t, 1, plan.Containers[1].M2, 0.001)
}

func TestPackWeightBindsBeforeArea(t *testing.T) {
	// At the default 14.90 kg/m² the weight limit is reached before the
	// area limit: 28000/14.90 ≈ 1879.2 m²
	p := testPolicy()
	items := []PackItem{{ProductID: uuid.New(), SKU: "TILE-1", M2: 1881}}

	plan, err := Pack(items, p)
	require.NoError(t, err)

	require.Len(t, plan.Containers, 2)
	require.InDelta(t, 28000.0/14.90, plan.Containers[0].M2, 0.01)
	require.LessOrEqual(t, plan.Containers[0].WeightKg, p.ContainerMaxWeightKg+0.01)
}

func TestPackRespectsAllLimits(t *testing.T) {
	p := testPolicy()
	items := []PackItem{
		{ProductID: uuid.New(), SKU: "TILE-1", M2: 4000},
		{ProductID: uuid.New(), SKU: "TILE-2", M2: 2500},
		{ProductID: uuid.New(), SKU: "TILE-3", M2: 750.5},
	}

	plan, err := Pack(items, p)
	require.NoError(t, err)
	require.InDelta(t, 7250.5, plan.TotalM2, 0.001)

	var packed float64
	for _, c := range plan.Containers {
		require.LessOrEqual(t, c.M2, p.ContainerMaxM2+0.001)
		require.LessOrEqual(t, c.WeightKg, p.ContainerMaxWeightKg+0.01)
		require.LessOrEqual(t, c.Pallets, p.ContainerMaxPallets)
		packed += c.M2
	}
	require.InDelta(t, plan.TotalM2, packed, 0.001)
}

func TestPackGroupsIntoBoats(t *testing.T) {
	p := packPolicy()
	// 12 full containers: two full boats of 5 and a final boat of 2,
	// below the 3-container minimum
	items := []PackItem{{ProductID: uuid.New(), SKU: "TILE-1", M2: 1881 * 12}}

	plan, err := Pack(items, p)
	require.NoError(t, err)
	require.Len(t, plan.Containers, 12)
	require.Len(t, plan.Boats, 3)

	require.True(t, plan.Boats[0].Ready)
	require.True(t, plan.Boats[1].Ready)
	require.False(t, plan.Boats[2].Ready)
	require.True(t, plan.UnderMinimum)
}

func TestPackEmptyAndZeroItems(t *testing.T) {
	plan, err := Pack(nil, packPolicy())
	require.NoError(t, err)
	require.Empty(t, plan.Containers)
	require.Empty(t, plan.Boats)

	plan, err = Pack([]PackItem{{SKU: "TILE-1", M2: 0}}, packPolicy())
	require.NoError(t, err)
	require.Empty(t, plan.Containers)
}

func TestPackRejectsNegativeQuantity(t *testing.T) {
	_, err := Pack([]PackItem{{SKU: "TILE-1", M2: -5}}, packPolicy())
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestCloseBoat(t *testing.T) {
	p := packPolicy()
	load := &BoatLoad{Containers: make([]PackedContainer, 2)}

	err := CloseBoat(load, p, false)
	require.ErrorIs(t, err, ErrUnderCapacity)
	require.False(t, load.Ready)

	// Forcing overrides the minimum
	require.NoError(t, CloseBoat(load, p, true))
	require.True(t, load.Ready)

	full := &BoatLoad{Containers: make([]PackedContainer, 3)}
	require.NoError(t, CloseBoat(full, p, false))
	require.True(t, full.Ready)
}
