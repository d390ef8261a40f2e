package service_test

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/service"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store/memory"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

func silentLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func registerUser(t *testing.T, us *memory.UserStore, id, token string, role types.Role) types.User {
	t.Helper()
	u, err := service.NewUserService(us).Register(context.Background(), service.RegisterUserRequest{
		ID:          id,
		DisplayName: id,
		Role:        role,
		Token:       token,
	})
	require.NoError(t, err)
	return u
}

func stationWithRacks(id string, rackIDs ...string) types.Station {
	st := types.Station{ID: id, Name: id}
	for i, r := range rackIDs {
		st.Racks = append(st.Racks, types.EmptyRack(r, i+1))
	}
	return st
}
