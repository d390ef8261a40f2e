package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/sensor"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

// View is what the station UI renders. Prompts are data: the UI shows
// Advisory and never blocks waiting on the server.
type View struct {
	ID                string                `json:"id"`
	StationID         string                `json:"station_id"`
	State             State                 `json:"state"`
	Intent            Intent                `json:"intent,omitempty"`
	UserID            string                `json:"user_id,omitempty"`
	RackID            string                `json:"rack_id,omitempty"`
	Food              *types.FoodDescriptor `json:"food,omitempty"`
	Advisory          string                `json:"advisory,omitempty"`
	AttemptsRemaining int                   `json:"attempts_remaining"`
	Exhausted         bool                  `json:"exhausted"`
	Presence          string                `json:"presence,omitempty"`
	DoorOpen          bool                  `json:"door_open"`
	DoorAcknowledged  bool                  `json:"door_acknowledged"`
	DoorWarning       string                `json:"door_warning,omitempty"`
	ConfirmDeadline   *time.Time            `json:"confirm_deadline,omitempty"`
	RestoreDeadline   *time.Time            `json:"restore_deadline,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// Session is one operator's interaction with a station. All operations on a
// session are serialized by its mutex.
type Session struct {
	m      *Manager
	logger zerolog.Logger

	mu        sync.Mutex
	id        string
	stationID string
	state     State
	intent    Intent
	user      *types.User
	rackID    string
	food      *types.FoodDescriptor
	advisory  string
	attempts  int
	holdsDoor bool

	detector *sensor.Detector
	sub      *sensor.Subscription
	timer    *time.Timer
	deadline time.Time

	createdAt time.Time
	updatedAt time.Time
}

func (s *Session) ID() string { return s.id }

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		ID:                s.id,
		StationID:         s.stationID,
		State:             s.state,
		Intent:            s.intent,
		RackID:            s.rackID,
		Advisory:          s.advisory,
		AttemptsRemaining: s.m.deps.Config.Retry.Remaining(s.attempts),
		Exhausted:         s.m.deps.Config.Retry.Exhausted(s.attempts),
		CreatedAt:         s.createdAt,
		UpdatedAt:         s.updatedAt,
	}
	if s.user != nil {
		v.UserID = s.user.ID
	}
	if s.food != nil {
		f := *s.food
		v.Food = &f
	}
	if s.detector != nil {
		v.Presence = s.detector.Current().String()
	}
	if s.holdsDoor {
		door := s.m.deps.Door.Current(s.stationID)
		v.DoorOpen = door.Position == types.DoorOpen
		if err := s.m.deps.Door.Verify(s.stationID); err != nil {
			v.DoorWarning = err.Error()
		} else {
			v.DoorAcknowledged = true
		}
	}
	if !s.deadline.IsZero() {
		d := s.deadline
		if s.state == StateCancelling {
			v.RestoreDeadline = &d
		} else {
			v.ConfirmDeadline = &d
		}
	}
	return v
}

func (s *Session) transitionLocked(next State, advisory string) {
	prev := s.state
	s.state = next
	s.advisory = advisory
	s.updatedAt = s.m.now()
	transitionsTotal.WithLabelValues(string(prev), string(next)).Inc()
	s.logger.Debug().Str("from", string(prev)).Str("to", string(next)).Msg("session transition")
}

func (s *Session) touchLocked() { s.updatedAt = s.m.now() }

func (s *Session) invalid(op string) error {
	return fmt.Errorf("%s in state %s: %w", op, s.state, ErrInvalidTransition)
}

// ── Identity ─────────────────────────────────────────────────────────────────

// Scan resolves the operator's QR token. A failed resolve ends the session;
// the operator has to start over with a new scan.
func (s *Session) Scan(ctx context.Context, token string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAuthenticating {
		return s.viewLocked(), s.invalid("scan")
	}

	u, err := s.m.deps.Identity.Resolve(ctx, token)
	if err != nil {
		s.transitionLocked(StateCancelled, adviceUnknownUser)
		s.logger.Info().Err(err).Msg("identity resolution failed")
		return s.viewLocked(), fmt.Errorf("resolve identity: %w", err)
	}

	s.user = &u
	s.logger = s.logger.With().Str("user_id", u.ID).Logger()
	s.transitionLocked(StateActionSelection, adviceChooseAction)
	return s.viewLocked(), nil
}

// ── Action selection ─────────────────────────────────────────────────────────

// SelectDeposit picks rackID, or the lowest empty rack when rackID is empty.
func (s *Session) SelectDeposit(ctx context.Context, rackID string) (View, error) {
	return s.selectRack(ctx, IntentDeposit, rackID)
}

// SelectRetrieve picks rackID, or the lowest filled rack when rackID is empty.
func (s *Session) SelectRetrieve(ctx context.Context, rackID string) (View, error) {
	return s.selectRack(ctx, IntentRetrieve, rackID)
}

func (s *Session) selectRack(ctx context.Context, intent Intent, rackID string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActionSelection {
		return s.viewLocked(), s.invalid("select " + string(intent))
	}

	want, missing := types.FillEmpty, types.ErrNoCapacity
	if intent == IntentRetrieve {
		want, missing = types.FillFilled, types.ErrNoInventory
	}

	st, err := s.m.deps.Stations.GetStation(ctx, s.stationID)
	if err != nil {
		return s.viewLocked(), err
	}

	var rack types.Rack
	rackID = strings.TrimSpace(rackID)
	if rackID != "" {
		r, ok := st.Rack(rackID)
		if !ok {
			return s.viewLocked(), fmt.Errorf("rack %s at %s: %w", rackID, s.stationID, types.ErrNotFound)
		}
		if r.State != want {
			return s.viewLocked(), fmt.Errorf("rack %s is %s: %w", rackID, r.State, missing)
		}
		rack = r
	} else {
		r, ok := st.FirstRack(want)
		if !ok {
			return s.viewLocked(), fmt.Errorf("station %s: %w", s.stationID, missing)
		}
		rack = r
	}

	s.intent = intent
	s.rackID = rack.ID
	s.logger = s.logger.With().Str("rack_id", rack.ID).Logger()
	if intent == IntentDeposit {
		s.transitionLocked(StateDepositing, adviceDescribe)
	} else {
		f := *rack.Food
		s.food = &f
		s.transitionLocked(StateRetrieving, adviceOpenRack)
	}
	return s.viewLocked(), nil
}

// ── Door opening ─────────────────────────────────────────────────────────────

// SubmitDescriptor records what is being donated and opens the door.
// Validation and busy failures leave the session in Depositing.
func (s *Session) SubmitDescriptor(ctx context.Context, desc types.FoodDescriptor) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDepositing {
		return s.viewLocked(), s.invalid("submit descriptor")
	}
	desc = desc.Normalize()
	if err := desc.Validate(); err != nil {
		return s.viewLocked(), err
	}
	if err := s.openDoorLocked(ctx); err != nil {
		return s.viewLocked(), err
	}
	s.food = &desc
	s.transitionLocked(StateConfirmingPlacement, advicePlace)
	return s.viewLocked(), nil
}

func (s *Session) OpenForRetrieval(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRetrieving {
		return s.viewLocked(), s.invalid("open for retrieval")
	}
	if err := s.openDoorLocked(ctx); err != nil {
		return s.viewLocked(), err
	}
	s.transitionLocked(StateConfirmingRemoval, adviceTake)
	return s.viewLocked(), nil
}

func (s *Session) openDoorLocked(ctx context.Context) error {
	if err := s.m.locks.acquire(s.stationID, s.rackID, s.id); err != nil {
		return fmt.Errorf("station %s: %w", s.stationID, err)
	}

	s.startWatchLocked()
	var snap *types.SensorSnapshot
	if last, ok := s.detector.Last(); ok {
		snap = &last
	}
	if _, err := s.m.deps.Door.Open(ctx, s.stationID, snap); err != nil {
		s.stopWatchLocked()
		s.m.locks.release(s.stationID, s.rackID, s.id)
		return err
	}
	s.holdsDoor = true
	s.attempts = 0
	s.startTimerLocked()
	return nil
}

// ── Confirmation ─────────────────────────────────────────────────────────────

// Confirm evaluates the debounced sensor presence for the rack. A wrong or
// ambiguous reading consumes one attempt; once attempts are exhausted no
// confirm can succeed and the operator is advised to cancel.
func (s *Session) Confirm(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Confirming() {
		return s.viewLocked(), s.invalid("confirm")
	}
	retry := s.m.deps.Config.Retry
	if retry.Exhausted(s.attempts) {
		s.advisory = adviceExhausted
		confirmAttemptsTotal.WithLabelValues("exhausted").Inc()
		return s.viewLocked(), ErrRetriesExhausted
	}

	s.catchUpLocked()
	want := sensor.PresencePresent
	retryAdvice := advicePlaceRetry
	if s.state == StateConfirmingRemoval {
		want = sensor.PresenceAbsent
		retryAdvice = adviceTakeRetry
	}

	got := s.detector.Current()
	if got == want {
		confirmAttemptsTotal.WithLabelValues("confirmed").Inc()
		return s.commitLocked(ctx)
	}

	s.attempts++
	s.touchLocked()
	if derr := s.m.deps.Door.Verify(s.stationID); derr != nil {
		s.logger.Warn().Err(derr).Str("presence", got.String()).Msg("confirm failed with door unacknowledged")
	}
	var err error
	switch got {
	case sensor.PresenceAmbiguous, sensor.PresenceUnknown:
		confirmAttemptsTotal.WithLabelValues("ambiguous").Inc()
		s.advisory = adviceAmbiguous
		err = fmt.Errorf("rack %s reads %s: %w", s.rackID, got, types.ErrSensorAmbiguous)
	default:
		confirmAttemptsTotal.WithLabelValues("mismatch").Inc()
		s.advisory = retryAdvice
	}
	if retry.Exhausted(s.attempts) {
		s.advisory = adviceExhausted
	}
	return s.viewLocked(), err
}

// commitLocked writes the rack and its activity entry as one unit. A write
// conflict sends the operator back to action selection; any other failure
// leaves the session confirming so the operator can retry or cancel.
func (s *Session) commitLocked(ctx context.Context) (View, error) {
	from := s.state
	s.transitionLocked(StateCommitting, "")

	kind := types.ActivityDonation
	if s.intent == IntentRetrieve {
		kind = types.ActivityCollection
	}

	change, entry, donorID, err := s.buildCommitLocked(ctx, kind)
	if err == nil {
		err = s.m.deps.Ledger.CommitRack(ctx, change, entry)
	}

	switch {
	case err == nil:
		commitsTotal.WithLabelValues(string(kind), "ok").Inc()
	case errors.Is(err, types.ErrWriteConflict):
		commitsTotal.WithLabelValues(string(kind), "conflict").Inc()
		s.logger.Warn().Err(err).Msg("rack commit conflict")
		s.releaseLocked(ctx)
		s.intent = IntentNone
		s.rackID = ""
		s.food = nil
		s.transitionLocked(StateActionSelection, adviceConflict)
		return s.viewLocked(), err
	default:
		commitsTotal.WithLabelValues(string(kind), "error").Inc()
		s.logger.Error().Err(err).Msg("rack commit failed")
		s.transitionLocked(from, "")
		s.advisory = "Could not save. Confirm again or cancel."
		return s.viewLocked(), err
	}

	s.logger.Info().
		Str("kind", string(kind)).
		Str("entry_id", entry.ID).
		Msg("rack committed")

	s.releaseLocked(ctx)
	if kind == types.ActivityCollection && donorID != "" {
		s.m.deps.Notifier.Notify(ctx, types.Notification{
			UserID:    donorID,
			Message:   fmt.Sprintf("Your %s at %s was collected.", entry.Food.Name, s.stationID),
			StationID: s.stationID,
			RackID:    entry.RackID,
		})
	}

	advice := adviceDonationDone
	if kind == types.ActivityCollection {
		advice = adviceCollectedDone
	}
	s.transitionLocked(StateIdle, advice)
	return s.viewLocked(), nil
}

func (s *Session) buildCommitLocked(ctx context.Context, kind types.ActivityKind) (store.RackChange, types.ActivityLogEntry, string, error) {
	st, err := s.m.deps.Stations.GetStation(ctx, s.stationID)
	if err != nil {
		return store.RackChange{}, types.ActivityLogEntry{}, "", err
	}
	rack, ok := st.Rack(s.rackID)
	if !ok {
		return store.RackChange{}, types.ActivityLogEntry{}, "", fmt.Errorf("rack %s: %w", s.rackID, types.ErrNotFound)
	}

	now := s.m.now()
	var snap *types.SensorSnapshot
	if last, ok := s.detector.Last(); ok {
		snap = &last
	}

	change := store.RackChange{StationID: s.stationID, RackID: s.rackID}
	entry := types.ActivityLogEntry{
		ID:        uuid.NewString(),
		Kind:      kind,
		ActorID:   s.user.ID,
		StationID: s.stationID,
		RackID:    s.rackID,
		At:        now,
	}
	var donorID string

	switch kind {
	case types.ActivityDonation:
		if rack.State != types.FillEmpty {
			return change, entry, "", fmt.Errorf("rack %s already filled: %w", s.rackID, types.ErrWriteConflict)
		}
		next, err := rack.Fill(*s.food, types.Provenance{DonorID: s.user.ID, DepositedAt: now})
		if err != nil {
			return change, entry, "", err
		}
		change.Expected = types.FillEmpty
		change.Next = next
		entry.Food = *next.Food
	default:
		if rack.State != types.FillFilled {
			return change, entry, "", fmt.Errorf("rack %s already empty: %w", s.rackID, types.ErrWriteConflict)
		}
		entry.Food = *rack.Food
		if rack.Provenance != nil {
			donorID = rack.Provenance.DonorID
		}
		change.Expected = types.FillFilled
		change.Next = rack.Clear()
	}
	if snap != nil {
		change.Next.Sensor = snap
	}
	return change, entry, donorID, nil
}

// ── Cancellation ─────────────────────────────────────────────────────────────

// Cancel ends the session. With the door open it first waits, in
// Cancelling, for the rack to be physically restored to its ledger state.
func (s *Session) Cancel(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCancelling {
		return s.viewLocked(), nil
	}
	if !s.state.Cancellable() {
		return s.viewLocked(), s.invalid("cancel")
	}
	s.beginCancelLocked(ctx, adviceCancelled)
	return s.viewLocked(), nil
}

func (s *Session) beginCancelLocked(ctx context.Context, reason string) {
	if !s.holdsDoor {
		s.transitionLocked(StateCancelled, reason)
		return
	}

	s.catchUpLocked()
	if s.restoredLocked() {
		s.finishCancelLocked(ctx, reason)
		return
	}

	advice := adviceRemovePlaced
	if s.intent == IntentRetrieve {
		advice = adviceReturnTaken
	}
	if reason == adviceTimedOut {
		advice = adviceTimedOut + " " + advice
	}
	s.transitionLocked(StateCancelling, advice)
	s.armTimerLocked(s.m.deps.Config.RestoreTimeout, func() {
		if s.state == StateCancelling {
			s.forceCancelLocked(context.Background(), "restore timed out")
		}
	})
}

// forceCancelLocked ends a cancellation whose rack was never restored. The
// door is closed and the station released; the discrepancy is left for staff.
func (s *Session) forceCancelLocked(ctx context.Context, cause string) {
	presence := sensor.PresenceUnknown
	if s.detector != nil {
		presence = s.detector.Current()
	}
	s.logger.Warn().
		Str("cause", cause).
		Str("rack_id", s.rackID).
		Str("intent", string(s.intent)).
		Str("presence", presence.String()).
		Msg("rack not restored; forcing cancel")
	forcedCancelsTotal.WithLabelValues(string(s.intent)).Inc()
	s.finishCancelLocked(ctx, adviceNotRestored)
}

// restoredLocked reports whether the rack's physical presence agrees with
// the ledger. With no reading at all nothing is known to have moved.
func (s *Session) restoredLocked() bool {
	if s.detector == nil {
		return true
	}
	p := s.detector.Current()
	switch s.intent {
	case IntentDeposit:
		return p == sensor.PresenceAbsent || p == sensor.PresenceUnknown
	case IntentRetrieve:
		return p == sensor.PresencePresent || p == sensor.PresenceUnknown
	}
	return true
}

func (s *Session) finishCancelLocked(ctx context.Context, reason string) {
	s.releaseLocked(ctx)
	s.transitionLocked(StateCancelled, reason)
}

// releaseLocked closes the door and gives up the station and rack locks.
// The door command is best effort; a failure is logged only.
func (s *Session) releaseLocked(ctx context.Context) {
	s.stopTimerLocked()
	if s.holdsDoor {
		var snap *types.SensorSnapshot
		if s.detector != nil {
			if last, ok := s.detector.Last(); ok {
				snap = &last
			}
		}
		if _, err := s.m.deps.Door.Close(ctx, s.stationID, snap); err != nil {
			s.logger.Error().Err(err).Msg("door close failed")
		}
		s.m.locks.release(s.stationID, s.rackID, s.id)
		s.holdsDoor = false
	}
	s.stopWatchLocked()
}

// ── Sensor watch ─────────────────────────────────────────────────────────────

func (s *Session) startWatchLocked() {
	th := s.m.deps.Policy.For(s.stationID, s.rackID)
	s.detector = sensor.NewDetector(th)
	s.catchUpLocked()

	sub := s.m.deps.Sensors.Subscribe(s.stationID)
	s.sub = sub
	go s.watch(sub)
}

func (s *Session) stopWatchLocked() {
	if s.sub != nil {
		s.sub.Close()
		s.sub = nil
	}
}

func (s *Session) watch(sub *sensor.Subscription) {
	for r := range sub.C() {
		s.mu.Lock()
		if s.sub != sub {
			s.mu.Unlock()
			continue
		}
		s.observeLocked(r)
		if s.state == StateCancelling && s.restoredLocked() {
			s.finishCancelLocked(context.Background(), adviceCancelled)
		}
		s.mu.Unlock()
	}
}

// catchUpLocked feeds the hub's latest reading for the rack, so a confirm
// never races the watcher goroutine.
func (s *Session) catchUpLocked() {
	if s.detector == nil {
		return
	}
	if r, ok := s.m.deps.Sensors.Latest(s.stationID, s.rackID); ok {
		s.observeLocked(r)
	}
}

func (s *Session) observeLocked(r types.SensorReading) {
	if r.RackID != s.rackID || s.detector == nil {
		return
	}
	if last, ok := s.detector.Last(); ok && !r.ObservedAt.After(last.ObservedAt) {
		return
	}
	s.detector.Observe(r.SensorSnapshot)
}

// ── Deadlines ────────────────────────────────────────────────────────────────

func (s *Session) startTimerLocked() {
	s.armTimerLocked(s.m.deps.Config.ConfirmTimeout, func() {
		if !s.state.Confirming() {
			return
		}
		s.logger.Info().Msg("confirmation timed out")
		s.beginCancelLocked(context.Background(), adviceTimedOut)
	})
}

// armTimerLocked replaces any running deadline. fire runs with s.mu held,
// and only if no other timer was armed in the meantime.
func (s *Session) armTimerLocked(timeout time.Duration, fire func()) {
	s.stopTimerLocked()
	s.deadline = s.m.now().Add(timeout)
	var t *time.Timer
	t = time.AfterFunc(timeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.timer != t {
			return
		}
		s.timer = nil
		s.deadline = time.Time{}
		fire()
	})
	s.timer = t
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.deadline = time.Time{}
}
