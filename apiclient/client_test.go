package apiclient_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/go-task-server/apiclient"
	fakestore "github.com/taskhub/go-task-server/credentials/storefake"
	"github.com/taskhub/go-task-server/session"
	"github.com/taskhub/go-task-server/users"
)

// recordingNotifier counts alerts and immediately acknowledges them.
type recordingNotifier struct {
	mu     sync.Mutex
	alerts []string
}

func (n *recordingNotifier) Alert(title, _ string, onAck func()) {
	n.mu.Lock()
	n.alerts = append(n.alerts, title)
	n.mu.Unlock()
	if onAck != nil {
		onAck()
	}
}

func (n *recordingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

// recordingNavigator counts navigate-to-login signals.
type recordingNavigator struct {
	mu    sync.Mutex
	count int
}

func (n *recordingNavigator) NavigateToLogin() {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
}

func (n *recordingNavigator) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

// testFixture holds all client-side test dependencies
type testFixture struct {
	client    *apiclient.Client
	sessions  *session.Manager
	store     *fakestore.FakeStore
	notifier  *recordingNotifier
	navigator *recordingNavigator
}

func setupTestFixture(t *testing.T, handler http.Handler) *testFixture {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := fakestore.NewFakeStore()
	sessions := session.NewManager(store, zerolog.Nop())
	notifier := &recordingNotifier{}
	navigator := &recordingNavigator{}

	client, err := apiclient.New(srv.URL, sessions, store, zerolog.Nop(),
		apiclient.WithHTTPClient(srv.Client()),
		apiclient.WithNotifier(notifier),
		apiclient.WithNavigator(navigator))
	require.NoError(t, err)

	return &testFixture{
		client:    client,
		sessions:  sessions,
		store:     store,
		notifier:  notifier,
		navigator: navigator,
	}
}

func (f *testFixture) authenticate() {
	f.sessions.LoginSuccess(session.LoginPayload{
		Token:     "held-token",
		UserID:    "user-1",
		Role:      users.RoleDeveloper,
		SessionID: "session-1",
	})
	f.sessions.WaitForPersistence()
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"status":false,"message":"Not authorized. Try login again."}`))
}

// TestLogin_DispatchesSessionTransition tests that a successful login
// response drives the state machine
func TestLogin_DispatchesSessionTransition(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/user/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Login successful","token":"issued-token","userId":"user-1","role":"developer","sessionId":"session-9"}`))
	})
	f := setupTestFixture(t, mux)

	state, err := f.client.Login(t.Context(), "jake.jackson@example.com", "UserPass123")

	require.NoError(t, err)
	require.True(t, state.IsAuthenticated)
	require.Equal(t, "issued-token", state.Token)
	require.Equal(t, "session-9", state.SessionID)

	f.sessions.WaitForPersistence()
	rec, saved := f.store.Stored()
	require.True(t, saved)
	require.Equal(t, "issued-token", rec.Token)
}

// TestLogin_InvalidCredentials tests that a login rejection surfaces
// the server message without an unauthorized teardown
func TestLogin_InvalidCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/user/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":false,"message":"Invalid email or password."}`))
	})
	f := setupTestFixture(t, mux)

	_, err := f.client.Login(t.Context(), "jake.jackson@example.com", "WrongPass123")

	require.Error(t, err)
	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, apiclient.KindAuth, apiErr.Kind)
	require.Zero(t, f.notifier.Count(), "the login screen handles its own errors")
}

// TestTeam_SoftFail401 tests that an unauthorized roster fetch yields
// an empty roster and leaves the session fully intact
func TestTeam_SoftFail401(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/user/get-team", func(w http.ResponseWriter, r *http.Request) {
		unauthorized(w)
	})
	f := setupTestFixture(t, mux)
	f.authenticate()

	team, err := f.client.Team(t.Context())

	require.NoError(t, err)
	require.Empty(t, team)
	require.NotNil(t, team, "soft fail substitutes an empty roster, not nil")

	require.True(t, f.sessions.Snapshot().IsAuthenticated, "session survives a soft-fail rejection")
	require.Zero(t, f.notifier.Count())
	require.Zero(t, f.navigator.Count())
}

// TestProfile_Unauthorized tests the full teardown on a hard 401
func TestProfile_Unauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/user/profile", func(w http.ResponseWriter, r *http.Request) {
		unauthorized(w)
	})
	f := setupTestFixture(t, mux)
	f.authenticate()

	_, err := f.client.Profile(t.Context())

	require.Error(t, err)
	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, apiclient.KindAuth, apiErr.Kind)

	f.sessions.WaitForPersistence()
	require.False(t, f.sessions.Snapshot().IsAuthenticated)
	_, saved := f.store.Stored()
	require.False(t, saved, "credential store cleared on teardown")
	require.Equal(t, 1, f.notifier.Count())
	require.Equal(t, 1, f.navigator.Count())
}

// deferredNotifier records alerts but holds their acknowledgments so a
// test controls when the winner's logout completes.
type deferredNotifier struct {
	mu   sync.Mutex
	acks []func()
}

func (n *deferredNotifier) Alert(_, _ string, onAck func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.acks = append(n.acks, onAck)
}

func (n *deferredNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.acks)
}

func (n *deferredNotifier) AckAll() {
	n.mu.Lock()
	acks := n.acks
	n.mu.Unlock()
	for _, ack := range acks {
		ack()
	}
}

// TestUnauthorized_SingleAlertEpisode tests that concurrent 401s raise
// exactly one alert while its acknowledgment is pending
func TestUnauthorized_SingleAlertEpisode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/user/profile", func(w http.ResponseWriter, r *http.Request) {
		unauthorized(w)
	})
	mux.HandleFunc("GET /api/user/notifications", func(w http.ResponseWriter, r *http.Request) {
		unauthorized(w)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := fakestore.NewFakeStore()
	sessions := session.NewManager(store, zerolog.Nop())
	notifier := &deferredNotifier{}

	client, err := apiclient.New(srv.URL, sessions, store, zerolog.Nop(),
		apiclient.WithHTTPClient(srv.Client()),
		apiclient.WithNotifier(notifier))
	require.NoError(t, err)

	sessions.LoginSuccess(session.LoginPayload{Token: "held-token", UserID: "user-1", Role: users.RoleDeveloper})
	sessions.WaitForPersistence()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = client.Profile(t.Context())
	}()
	go func() {
		defer wg.Done()
		_, _ = client.Notifications(t.Context())
	}()
	wg.Wait()

	require.Equal(t, 1, notifier.Count(), "one episode, one alert")

	// A loser has already logged out, yet a further rejection while the
	// notice waits for its acknowledgment still belongs to this episode
	_, _ = client.Profile(t.Context())
	require.Equal(t, 1, notifier.Count(), "no second alert before the acknowledgment")

	notifier.AckAll()
	sessions.WaitForPersistence()
	require.False(t, sessions.Snapshot().IsAuthenticated)

	// Only the acknowledged teardown opens the next episode
	_, _ = client.Profile(t.Context())
	require.Equal(t, 2, notifier.Count())
}

// TestPreflight_NoTokenBlocksRequest tests that a protected call with
// no held credential is rejected locally
func TestPreflight_NoTokenBlocksRequest(t *testing.T) {
	hits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hits++
	})
	f := setupTestFixture(t, mux)

	_, err := f.client.Profile(t.Context())

	require.Error(t, err)
	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, apiclient.KindAuth, apiErr.Kind)
	require.Zero(t, hits, "the request never reaches the transport")
}

// TestDo_AttachesBearer tests that the held token rides every request
func TestDo_AttachesBearer(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/user/profile", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_id":"user-1","name":"Jake Jackson","role":"developer"}`))
	})
	f := setupTestFixture(t, mux)
	f.authenticate()

	profile, err := f.client.Profile(t.Context())

	require.NoError(t, err)
	require.Equal(t, "Bearer held-token", gotAuth)
	require.Equal(t, "Jake Jackson", profile.Name)

	// The fetched profile is merged into the session
	require.Equal(t, "Jake Jackson", f.sessions.Snapshot().User.Name)
	f.sessions.WaitForPersistence()
}

// TestDo_NetworkError tests transport failure classification
func TestDo_NetworkError(t *testing.T) {
	f := setupTestFixture(t, http.NewServeMux())
	f.authenticate()

	// Point the client at a closed server
	broken, err := apiclient.New("http://127.0.0.1:1", f.sessions, f.store, zerolog.Nop())
	require.NoError(t, err)

	_, err = broken.Profile(t.Context())

	require.Error(t, err)
	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, apiclient.KindNetwork, apiErr.Kind)
	require.True(t, f.sessions.Snapshot().IsAuthenticated, "network failures never touch the session")
}

// TestDo_ValidationError tests that a 400 surfaces the server message
func TestDo_ValidationError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/user/register", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"This email address is already in use."}`))
	})
	f := setupTestFixture(t, mux)

	_, err := f.client.Register(t.Context(), apiclient.RegisterParams{
		Name:     "Jake Jackson",
		Email:    "jake.jackson@example.com",
		Password: "UserPass123",
		Role:     users.RoleUser,
	})

	require.Error(t, err)
	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, apiclient.KindValidation, apiErr.Kind)
	require.Equal(t, "This email address is already in use.", apiErr.Message)
}
