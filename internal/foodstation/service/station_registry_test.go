package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/service"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store/memory"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

func TestStationRegistry_AddGeneratesRacks(t *testing.T) {
	reg := service.NewStationRegistry(memory.NewStationStore())
	ctx := context.Background()

	st, err := reg.Add(ctx, service.AddStationRequest{ID: "StationA", Latitude: 49.28, Longitude: -123.12, Racks: 3})
	require.NoError(t, err)
	assert.Equal(t, "StationA", st.Name)
	require.Len(t, st.Racks, 3)
	assert.Equal(t, "R1", st.Racks[0].ID)
	assert.Equal(t, 3, st.Count(types.FillEmpty))

	known, err := reg.IsKnown(ctx, "StationA")
	require.NoError(t, err)
	assert.True(t, known)

	known, err = reg.IsKnown(ctx, "StationB")
	require.NoError(t, err)
	assert.False(t, known)
}

func TestStationRegistry_AddRejectsBadInput(t *testing.T) {
	reg := service.NewStationRegistry(memory.NewStationStore())
	ctx := context.Background()

	cases := []service.AddStationRequest{
		{ID: "", Racks: 1},
		{ID: "S", Racks: 0},
		{ID: "S", RackIDs: []string{"A", "A"}},
		{ID: "S", Racks: 1, Latitude: 91},
	}
	for _, req := range cases {
		_, err := reg.Add(ctx, req)
		assert.ErrorIs(t, err, types.ErrValidation, "%+v", req)
	}
}
