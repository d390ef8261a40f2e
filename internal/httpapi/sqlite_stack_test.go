package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/foodstation/internal/config"
	"github.com/BrandonDHaskell/foodstation/internal/db"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/actuator"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/imagestore"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/sensor"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/service"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/session"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store/sqlite"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
	"github.com/BrandonDHaskell/foodstation/internal/httpapi"
	"github.com/BrandonDHaskell/foodstation/internal/stationclient"
)

// newSQLiteServer wires the same graph as cmd/foodstation-server against a
// throwaway database file seeded with the dev station and an admin whose
// token is "qr-admin".
func newSQLiteServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	conn, err := db.Open(ctx, db.Config{Path: filepath.Join(t.TempDir(), "foodstation.db"), Env: "dev"})
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	writer := db.NewWorker(conn)
	t.Cleanup(func() {
		writer.Close()
		_ = conn.Close()
	})
	if err := db.SeedDev(ctx, conn, db.SeedDevOptions{AdminToken: "qr-admin", Racks: 2}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	stations := sqlite.NewStationStore(conn, writer)
	users := sqlite.NewUserStore(conn, writer)
	activity := sqlite.NewActivityStore(conn, writer)
	notes := sqlite.NewNotificationStore(conn, writer)
	telemetry := sqlite.NewTelemetryStore(conn, writer)

	hub := sensor.NewHub(8)
	gw := actuator.NewGateway(actuator.NewCommandBoard(), actuator.Options{BaseBackoff: time.Millisecond}, logger)
	identity := service.NewIdentityResolver(users, 16, time.Minute)
	registry := service.NewStationRegistry(stations)
	notifier := service.NewNotifier(notes, logger)
	images, err := imagestore.NewDisk(t.TempDir(), "/images/", 0)
	if err != nil {
		t.Fatalf("image store: %v", err)
	}

	policy, err := sensor.NewPolicy(sensor.Thresholds{PresentBelowCm: 15, AbsentAboveCm: 20}, config.PolicyFile{})
	if err != nil {
		t.Fatalf("sensor policy: %v", err)
	}

	mgr := session.NewManager(session.Dependencies{
		Identity: identity,
		Stations: stations,
		Ledger:   sqlite.NewLedger(writer),
		Door:     gw,
		Sensors:  hub,
		Policy:   policy,
		Notifier: notifier,
		Logger:   logger,
	})

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:    logger,
		Addr:      ":0",
		Sessions:  mgr,
		Identity:  identity,
		Users:     service.NewUserService(users),
		Stations:  registry,
		Telemetry: service.NewTelemetryService(telemetry, stations, registry, hub, gw),
		Notifier:  notifier,
		Activity:  activity,
		Images:    images,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// ── SQLite end-to-end ────────────────────────────────────────────────────────

func TestSQLiteStack_DonationPersists(t *testing.T) {
	ts := newSQLiteServer(t)
	ctx := context.Background()

	admin := stationclient.New(ts.URL, "qr-admin")
	if _, err := admin.AddUser(ctx, service.RegisterUserRequest{ID: "U1", DisplayName: "Ana", Role: types.RoleDonor, Token: "qr-U1"}); err != nil {
		t.Fatalf("add user: %v", err)
	}

	resp := postJSON(t, ts.URL+"/v1/stations/station-dev/sessions", "")
	expectStatus(t, resp, http.StatusCreated)
	id := decode[session.View](t, resp).ID
	base := ts.URL + "/v1/sessions/" + id

	expectStatus(t, postJSON(t, base+"/scan", `{"token":"qr-U1"}`), http.StatusOK)
	resp = postJSON(t, base+"/deposit", "")
	expectStatus(t, resp, http.StatusOK)
	if v := decode[session.View](t, resp); v.RackID != "R1" {
		t.Fatalf("expected lowest empty rack R1, got %q", v.RackID)
	}
	expectStatus(t, postJSON(t, base+"/descriptor", `{"name":"Bread","image_url":"/images/bread.jpg"}`), http.StatusOK)

	cm := 6.0
	body, _ := json.Marshal(types.TelemetryRequest{RackID: "R1", DistanceCm: &cm})
	expectStatus(t, postJSON(t, ts.URL+"/v1/stations/station-dev/telemetry", string(body)), http.StatusOK)

	resp = postJSON(t, base+"/confirm", "")
	expectStatus(t, resp, http.StatusOK)
	if v := decode[session.View](t, resp); v.State != session.StateIdle {
		t.Fatalf("expected idle, got %s", v.State)
	}

	list, err := admin.ListStations(ctx)
	if err != nil {
		t.Fatalf("list stations: %v", err)
	}
	if len(list) != 1 || list[0].Count(types.FillFilled) != 1 {
		t.Fatalf("expected one filled rack, got %+v", list)
	}
	r1, _ := list[0].Rack("R1")
	if r1.Food == nil || r1.Food.Name != "Bread" || r1.Sensor == nil {
		t.Fatalf("unexpected rack %+v", r1)
	}

	entries, err := admin.ListActivity(ctx, types.ActivityFilter{ActorID: "U1"})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != types.ActivityDonation {
		t.Fatalf("expected one donation, got %+v", entries)
	}

	// Collect it straight away; the log keeps the donation strictly first.
	if _, err := admin.AddUser(ctx, service.RegisterUserRequest{ID: "U2", DisplayName: "Ben", Role: types.RoleReceiver, Token: "qr-U2"}); err != nil {
		t.Fatalf("add user: %v", err)
	}
	resp = postJSON(t, ts.URL+"/v1/stations/station-dev/sessions", "")
	expectStatus(t, resp, http.StatusCreated)
	base = ts.URL + "/v1/sessions/" + decode[session.View](t, resp).ID
	expectStatus(t, postJSON(t, base+"/scan", `{"token":"qr-U2"}`), http.StatusOK)
	expectStatus(t, postJSON(t, base+"/retrieve", `{"rack_id":"R1"}`), http.StatusOK)
	expectStatus(t, postJSON(t, base+"/open", ""), http.StatusOK)

	cm = 30
	body, _ = json.Marshal(types.TelemetryRequest{RackID: "R1", DistanceCm: &cm})
	expectStatus(t, postJSON(t, ts.URL+"/v1/stations/station-dev/telemetry", string(body)), http.StatusOK)
	expectStatus(t, postJSON(t, base+"/confirm", ""), http.StatusOK)

	entries, err = admin.ListActivity(ctx, types.ActivityFilter{StationID: "station-dev", RackID: "R1"})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(entries) != 2 || entries[0].Kind != types.ActivityCollection {
		t.Fatalf("expected collection newest, got %+v", entries)
	}
	if !entries[0].At.After(entries[1].At) {
		t.Errorf("collection at %v not strictly after donation at %v", entries[0].At, entries[1].At)
	}
}

func TestSQLiteStack_AdminRequiresAdminToken(t *testing.T) {
	ts := newSQLiteServer(t)
	ctx := context.Background()

	_, err := stationclient.New(ts.URL, "").AddStation(ctx, service.AddStationRequest{ID: "S2", Racks: 2})
	if apiErr, ok := err.(*stationclient.APIError); !ok || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}

	st, err := stationclient.New(ts.URL, "qr-admin").AddStation(ctx, service.AddStationRequest{ID: "S2", Racks: 3})
	if err != nil {
		t.Fatalf("add station: %v", err)
	}
	if len(st.Racks) != 3 {
		t.Fatalf("expected 3 racks, got %d", len(st.Racks))
	}
}
