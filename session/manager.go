package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/taskhub/go-task-server/credentials"
	"github.com/taskhub/go-task-server/users"
)

// Manager is the session state machine. Two states: logged out
// (initial) and authenticated; the machine cycles between them for the
// process lifetime. Every transition runs under one mutex, so a logout
// racing an in-flight login resolves last-writer-wins with no
// field-level merging.
//
// Persistence is fire-and-forget: the in-memory transition completes
// synchronously and a storage failure is logged, never rolled back.
// Mirror writes apply in transition order: each transition is stamped
// with a sequence number, store operations run one at a time, and an
// operation overtaken by a newer transition is dropped. A slow login
// save can never land after a completed logout clear.
type Manager struct {
	mu    sync.Mutex
	state State

	// alertShown is the unauthorized-alert flag: true once an
	// unauthorized episode has surfaced its single notice. alertPending
	// holds the episode open while that notice awaits acknowledgment,
	// so a teardown racing the acknowledgment cannot re-arm the flag
	// and let the same episode alert twice.
	alertShown   bool
	alertPending bool

	store   credentials.Store
	log     zerolog.Logger
	nowTime func() time.Time

	// seq is the latest transition, persistedSeq the newest one whose
	// mirror write completed. persistMu serializes the writes.
	seq          uint64
	persistMu    sync.Mutex
	persistedSeq uint64

	// persistWG lets tests wait for the asynchronous store writes.
	persistWG sync.WaitGroup
}

// ManagerOption modifies the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

func NewManager(store credentials.Store, logger zerolog.Logger, options ...ManagerOption) *Manager {
	m := &Manager{
		store:   store,
		log:     logger,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Restore seeds the state machine from a startup verdict. On the first
// run of a process, storage is the source of truth.
func (m *Manager) Restore(verdict Verdict) {
	if !verdict.IsValid {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{
		IsAuthenticated: true,
		Token:           verdict.Token,
		UserID:          verdict.UserID,
		Role:            verdict.Role,
		User:            verdict.User,
		LastUpdate:      m.nowTime(),
	}
}

// LoginSuccess applies a successful login. The in-memory state is set
// first and is authoritative; the credential store is mirrored
// asynchronously, and only when a token is actually present.
func (m *Manager) LoginSuccess(payload LoginPayload) {
	m.mu.Lock()
	now := m.nowTime()
	m.state = State{
		IsAuthenticated: payload.Token != "",
		Token:           payload.Token,
		UserID:          payload.UserID,
		Role:            payload.Role,
		User:            payload.User,
		SessionID:       payload.SessionID,
		LastUpdate:      now,
	}
	if payload.Token == "" {
		m.mu.Unlock()
		return
	}
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	rec := credentials.Record{
		Token:     payload.Token,
		UserID:    payload.UserID,
		Role:      payload.Role,
		User:      payload.User,
		SessionID: payload.SessionID,
		LoginTime: now,
	}
	m.persist(seq, "[Manager.LoginSuccess] credential save failed", func(ctx context.Context) error {
		return m.store.Save(ctx, rec)
	})
}

// Logout resets every field to the unauthenticated defaults except
// LastUpdate and asynchronously clears the credential store. The
// unauthorized-alert flag is re-armed unless the current episode's
// notice is still awaiting acknowledgment, in which case
// EndUnauthorized re-arms it.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.state = State{LastUpdate: m.nowTime()}
	if !m.alertPending {
		m.alertShown = false
	}
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	m.persist(seq, "[Manager.Logout] credential clear failed", func(ctx context.Context) error {
		return m.store.Clear(ctx)
	})
}

// persist runs one mirror write on its own goroutine. seq must be
// stamped inside the critical section of the transition it mirrors.
// Writes for different transitions are serialized by persistMu, and a
// write that lost the race to a newer transition is dropped before it
// touches the store.
func (m *Manager) persist(seq uint64, failMsg string, op func(context.Context) error) {
	m.persistWG.Add(1)
	go func() {
		defer m.persistWG.Done()
		m.persistMu.Lock()
		defer m.persistMu.Unlock()
		if seq < m.persistedSeq {
			return
		}
		if err := op(context.Background()); err != nil {
			m.log.Error().Err(err).Msg(failMsg)
		}
		m.persistedSeq = seq
	}()
}

// RefreshFromProfile merges a freshly fetched profile into the session
// without touching token, sessionId or IsAuthenticated. A no-op when
// logged out.
func (m *Manager) RefreshFromProfile(profile *users.User) {
	if profile == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.IsAuthenticated {
		return
	}
	copied := *profile
	m.state.User = &copied
	if profile.Role != "" {
		m.state.Role = profile.Role
	}
	m.state.LastUpdate = m.nowTime()
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// BeginUnauthorized is the check-and-set on the unauthorized-alert
// flag. The first caller of an episode gets true and owns the single
// user-facing notice; concurrent losers get false and must tear down
// silently. Check and set happen as one step under the mutex, so two
// racing rejections can never both observe false. The episode stays
// open until EndUnauthorized, so a loser's Logout cannot re-arm the
// flag while the winner's notice is still on screen.
func (m *Manager) BeginUnauthorized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.alertShown {
		return false
	}
	m.alertShown = true
	m.alertPending = true
	return true
}

// EndUnauthorized closes the unauthorized episode once its notice has
// been acknowledged, re-arming the flag for the next one.
func (m *Manager) EndUnauthorized() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alertPending = false
	m.alertShown = false
}

// WaitForPersistence blocks until all in-flight store writes finish.
// Test hook only.
func (m *Manager) WaitForPersistence() {
	m.persistWG.Wait()
}
