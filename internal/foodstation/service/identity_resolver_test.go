package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/service"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store/memory"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

func TestIdentityResolver_ResolveCountsEveryScan(t *testing.T) {
	us := memory.NewUserStore()
	registerUser(t, us, "U1", "qr-u1", types.RoleDonor)
	r := service.NewIdentityResolver(us, 16, time.Minute)
	ctx := context.Background()

	u, err := r.Resolve(ctx, "qr-u1")
	require.NoError(t, err)
	assert.Equal(t, "U1", u.ID)
	assert.EqualValues(t, 1, u.ScanCount)
	require.NotNil(t, u.LastScanAt)

	// Second resolve is served from the cache but still counted.
	u, err = r.Resolve(ctx, "  qr-u1 ")
	require.NoError(t, err)
	assert.EqualValues(t, 2, u.ScanCount)

	stored, err := us.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, stored.ScanCount)
}

func TestIdentityResolver_UnknownToken(t *testing.T) {
	r := service.NewIdentityResolver(memory.NewUserStore(), 16, time.Minute)

	_, err := r.Resolve(context.Background(), "nobody")
	require.ErrorIs(t, err, types.ErrNotFound)

	_, err = r.Resolve(context.Background(), "   ")
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestIdentityResolver_RequireAdmin(t *testing.T) {
	us := memory.NewUserStore()
	registerUser(t, us, "admin", "qr-admin", types.RoleAdmin)
	registerUser(t, us, "U1", "qr-u1", types.RoleDonor)
	r := service.NewIdentityResolver(us, 16, time.Minute)
	ctx := context.Background()

	u, err := r.RequireAdmin(ctx, "qr-admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.ID)
	assert.EqualValues(t, 0, u.ScanCount, "admin auth is not a station scan")

	_, err = r.RequireAdmin(ctx, "qr-u1")
	require.ErrorIs(t, err, types.ErrForbidden)

	_, err = r.RequireAdmin(ctx, "bogus")
	require.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = r.RequireAdmin(ctx, "")
	require.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestUserService_RegisterValidates(t *testing.T) {
	svc := service.NewUserService(memory.NewUserStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, service.RegisterUserRequest{DisplayName: "x", Role: "chef", Token: "t"})
	require.ErrorIs(t, err, types.ErrValidation)

	_, err = svc.Register(ctx, service.RegisterUserRequest{DisplayName: "x", Role: types.RoleDonor})
	require.ErrorIs(t, err, types.ErrValidation)

	u, err := svc.Register(ctx, service.RegisterUserRequest{DisplayName: "Ana", Role: types.RoleReceiver, Token: "t"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID, "id is generated")

	_, err = svc.Register(ctx, service.RegisterUserRequest{DisplayName: "Bo", Role: types.RoleReceiver, Token: "t"})
	require.ErrorIs(t, err, types.ErrValidation, "token already registered")
}
