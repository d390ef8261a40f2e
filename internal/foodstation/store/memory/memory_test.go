package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store/memory"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

func twoRackStation() types.Station {
	return types.Station{
		ID:    "StationA",
		Name:  "Station A",
		Racks: []types.Rack{types.EmptyRack("R1", 1), types.EmptyRack("R2", 2)},
	}
}

func filled(t *testing.T, id string, pos int) types.Rack {
	t.Helper()
	r, err := types.EmptyRack(id, pos).Fill(
		types.FoodDescriptor{Name: "Rice", ImageURL: "/images/rice.jpg"},
		types.Provenance{DonorID: "U1"},
	)
	require.NoError(t, err)
	return r
}

// ---------------------------------------------------------------------------
// StationStore
// ---------------------------------------------------------------------------

func TestStationStore_UpdateRackCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStationStore(twoRackStation())

	err := s.UpdateRack(ctx, store.RackChange{
		StationID: "StationA", RackID: "R1", Expected: types.FillEmpty, Next: filled(t, "R1", 1),
	})
	require.NoError(t, err)

	// Second writer still believes the rack is empty.
	err = s.UpdateRack(ctx, store.RackChange{
		StationID: "StationA", RackID: "R1", Expected: types.FillEmpty, Next: filled(t, "R1", 1),
	})
	assert.True(t, errors.Is(err, types.ErrWriteConflict), "got %v", err)

	err = s.UpdateRack(ctx, store.RackChange{
		StationID: "StationA", RackID: "R9", Expected: types.FillEmpty, Next: filled(t, "R9", 9),
	})
	assert.True(t, errors.Is(err, types.ErrNotFound), "got %v", err)
}

func TestStationStore_RejectsInvalidRack(t *testing.T) {
	s := memory.NewStationStore(twoRackStation())

	bad := types.Rack{ID: "R1", Position: 1, State: types.FillFilled}
	err := s.UpdateRack(context.Background(), store.RackChange{
		StationID: "StationA", RackID: "R1", Expected: types.FillEmpty, Next: bad,
	})
	assert.True(t, errors.Is(err, types.ErrValidation), "got %v", err)
}

func TestStationStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStationStore(twoRackStation())
	require.NoError(t, s.UpdateRack(ctx, store.RackChange{
		StationID: "StationA", RackID: "R1", Expected: types.FillEmpty, Next: filled(t, "R1", 1),
	}))

	st, err := s.GetStation(ctx, "StationA")
	require.NoError(t, err)
	st.Racks[0].Food.Name = "mutated"
	st.Racks[1].State = types.FillFilled

	again, err := s.GetStation(ctx, "StationA")
	require.NoError(t, err)
	assert.Equal(t, "Rice", again.Racks[0].Food.Name)
	assert.Equal(t, types.FillEmpty, again.Racks[1].State)
}

func TestStationStore_DuplicateStation(t *testing.T) {
	s := memory.NewStationStore(twoRackStation())
	err := s.CreateStation(context.Background(), twoRackStation())
	assert.True(t, errors.Is(err, types.ErrValidation), "got %v", err)
}

func TestStationStore_SensorSnapshotKeepsFillState(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStationStore(twoRackStation())

	snap := types.SensorSnapshot{DistanceCm: 4.5, ObservedAt: time.Now().UTC()}
	require.NoError(t, s.RecordSensorSnapshot(ctx, "StationA", "R2", snap))

	st, err := s.GetStation(ctx, "StationA")
	require.NoError(t, err)
	r, ok := st.Rack("R2")
	require.True(t, ok)
	assert.Equal(t, types.FillEmpty, r.State)
	require.NotNil(t, r.Sensor)
	assert.InDelta(t, 4.5, r.Sensor.DistanceCm, 0.001)
}

// ---------------------------------------------------------------------------
// Ledger
// ---------------------------------------------------------------------------

func TestLedger_CommitWritesRackAndLog(t *testing.T) {
	ctx := context.Background()
	stations := memory.NewStationStore(twoRackStation())
	activity := memory.NewActivityStore()
	ledger := memory.NewLedger(stations, activity)

	entry := types.ActivityLogEntry{ID: "e1", Kind: types.ActivityDonation, ActorID: "U1", StationID: "StationA", RackID: "R1"}
	require.NoError(t, ledger.CommitRack(ctx, store.RackChange{
		StationID: "StationA", RackID: "R1", Expected: types.FillEmpty, Next: filled(t, "R1", 1),
	}, entry))

	st, _ := stations.GetStation(ctx, "StationA")
	assert.Equal(t, 1, st.Count(types.FillFilled))
	assert.Len(t, activity.Entries(), 1)
}

func TestLedger_AppendFailureRollsBackRack(t *testing.T) {
	ctx := context.Background()
	stations := memory.NewStationStore(twoRackStation())
	activity := memory.NewActivityStore()
	ledger := memory.NewLedger(stations, activity)

	boom := errors.New("disk full")
	ledger.FailNextAppend(boom)

	err := ledger.CommitRack(ctx, store.RackChange{
		StationID: "StationA", RackID: "R1", Expected: types.FillEmpty, Next: filled(t, "R1", 1),
	}, types.ActivityLogEntry{ID: "e1"})
	assert.True(t, errors.Is(err, boom))

	st, _ := stations.GetStation(ctx, "StationA")
	assert.Equal(t, 0, st.Count(types.FillFilled))
	assert.Empty(t, activity.Entries())
}

func TestLedger_ConflictAppendsNothing(t *testing.T) {
	ctx := context.Background()
	stations := memory.NewStationStore(twoRackStation())
	activity := memory.NewActivityStore()
	ledger := memory.NewLedger(stations, activity)

	err := ledger.CommitRack(ctx, store.RackChange{
		StationID: "StationA", RackID: "R1", Expected: types.FillFilled, Next: types.EmptyRack("R1", 1),
	}, types.ActivityLogEntry{ID: "e1"})
	assert.True(t, errors.Is(err, types.ErrWriteConflict), "got %v", err)
	assert.Empty(t, activity.Entries())
}

func TestLedger_SameInstantStaysOrdered(t *testing.T) {
	ctx := context.Background()
	stations := memory.NewStationStore(twoRackStation())
	activity := memory.NewActivityStore()
	ledger := memory.NewLedger(stations, activity)
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	full := filled(t, "R1", 1)
	require.NoError(t, ledger.CommitRack(ctx, store.RackChange{
		StationID: "StationA", RackID: "R1", Expected: types.FillEmpty, Next: full,
	}, types.ActivityLogEntry{ID: "d", Kind: types.ActivityDonation, StationID: "StationA", RackID: "R1", At: at}))
	require.NoError(t, ledger.CommitRack(ctx, store.RackChange{
		StationID: "StationA", RackID: "R1", Expected: types.FillFilled, Next: full.Clear(),
	}, types.ActivityLogEntry{ID: "c", Kind: types.ActivityCollection, StationID: "StationA", RackID: "R1", At: at}))

	entries := activity.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[1].At.After(entries[0].At), "collection %v, donation %v", entries[1].At, entries[0].At)
}

// ---------------------------------------------------------------------------
// ActivityStore / NotificationStore
// ---------------------------------------------------------------------------

func TestActivityStore_ListNewestFirstWithFilter(t *testing.T) {
	ctx := context.Background()
	s := memory.NewActivityStore()
	for i, rack := range []string{"R1", "R2", "R1", "R1"} {
		require.NoError(t, s.Append(ctx, types.ActivityLogEntry{
			ID: string(rune('a' + i)), StationID: "StationA", RackID: rack,
		}))
	}

	got, err := s.List(ctx, types.ActivityFilter{RackID: "R1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestNotificationStore_ListForUser(t *testing.T) {
	ctx := context.Background()
	s := memory.NewNotificationStore()
	require.NoError(t, s.Enqueue(ctx, types.Notification{ID: "n1", UserID: "U1"}))
	require.NoError(t, s.Enqueue(ctx, types.Notification{ID: "n2", UserID: "U2"}))
	require.NoError(t, s.Enqueue(ctx, types.Notification{ID: "n3", UserID: "U1"}))

	got, err := s.ListForUser(ctx, "U1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "n3", got[0].ID)
}

// ---------------------------------------------------------------------------
// UserStore / TelemetryStore
// ---------------------------------------------------------------------------

func TestUserStore_CredentialUniqueAndScanCount(t *testing.T) {
	ctx := context.Background()
	s := memory.NewUserStore()
	hash := types.HashCredential("qr-U1")

	require.NoError(t, s.CreateUser(ctx, store.UserRecord{User: types.User{ID: "U1", Role: types.RoleDonor}, CredentialHash: hash}))
	err := s.CreateUser(ctx, store.UserRecord{User: types.User{ID: "U2", Role: types.RoleDonor}, CredentialHash: hash})
	assert.True(t, errors.Is(err, types.ErrValidation), "got %v", err)

	u, err := s.LookupByCredential(ctx, types.HashCredential(" qr-U1 "))
	require.NoError(t, err)
	assert.Equal(t, "U1", u.ID)

	u, err = s.RecordScan(ctx, "U1", time.Time{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, u.ScanCount)
	assert.NotNil(t, u.LastScanAt)

	_, err = s.RecordScan(ctx, "nobody", time.Time{})
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestTelemetryStore_Prune(t *testing.T) {
	ctx := context.Background()
	s := memory.NewTelemetryStore()
	now := time.Now().UTC()

	require.NoError(t, s.UpsertTelemetry(ctx, "old", store.TelemetryRecord{ReceivedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, s.UpsertTelemetry(ctx, "new", store.TelemetryRecord{ReceivedAt: now}))

	n, err := s.PruneOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.LatestTelemetry(ctx, "old")
	assert.True(t, errors.Is(err, types.ErrNotFound))
	_, err = s.LatestTelemetry(ctx, "new")
	assert.NoError(t, err)
}
