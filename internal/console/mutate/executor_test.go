package mutate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mealqr/console/internal/console/models"
	"github.com/mealqr/console/internal/console/resource"
	"github.com/mealqr/console/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

// fakeBackend implements Backend with scriptable results and an optional
// gate to hold calls open.
type fakeBackend struct {
	mu sync.Mutex

	deleteErr   error
	deleteGate  chan struct{}
	deletedIDs  []string
	settingsErr error
	validateRes models.ValidationResult
	validateErr error
	operatorErr error
}

func (f *fakeBackend) CreateOperator(ctx context.Context, username, password, role string) (models.Operator, error) {
	if f.operatorErr != nil {
		return models.Operator{}, f.operatorErr
	}
	return models.Operator{ID: "op1", Username: username, Role: role}, nil
}

func (f *fakeBackend) DeleteUser(ctx context.Context, id string) error {
	if f.deleteGate != nil {
		<-f.deleteGate
	}
	f.mu.Lock()
	f.deletedIDs = append(f.deletedIDs, id)
	f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeBackend) UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error) {
	if f.settingsErr != nil {
		return models.Settings{}, f.settingsErr
	}
	return s, nil
}

func (f *fakeBackend) ValidateQR(ctx context.Context, code string) (models.ValidationResult, error) {
	return f.validateRes, f.validateErr
}

type refreshCounter struct {
	mu sync.Mutex
	n  int
}

func (r *refreshCounter) fn(ctx context.Context) {
	r.mu.Lock()
	r.n++
	r.mu.Unlock()
}

func (r *refreshCounter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

func settingsController() *resource.Controller[models.Settings] {
	fetch := func(ctx context.Context, q resource.Query) (resource.Page[models.Settings], error) {
		return resource.Page[models.Settings]{}, errors.New("must not fetch")
	}
	return resource.NewController("settings", fetch, testLogger())
}

func TestExecutor_DeleteUserRefreshesUsers(t *testing.T) {
	backend := &fakeBackend{}
	users := &refreshCounter{}
	e := New(backend, nil, users.fn, nil, testLogger())

	require.NoError(t, e.DeleteUser(context.Background(), "u7"))
	require.Equal(t, []string{"u7"}, backend.deletedIDs)
	require.Equal(t, 1, users.count(), "deleteUser must force a users re-fetch")
}

func TestExecutor_DeleteUserFailureDoesNotRefresh(t *testing.T) {
	backend := &fakeBackend{deleteErr: errors.New("boom")}
	users := &refreshCounter{}
	e := New(backend, nil, users.fn, nil, testLogger())

	require.Error(t, e.DeleteUser(context.Background(), "u7"))
	require.Equal(t, 0, users.count(), "failed mutation must not invalidate")
}

func TestExecutor_UpdateSettingsReplacesCacheWithoutRefetch(t *testing.T) {
	backend := &fakeBackend{}
	settings := settingsController()
	e := New(backend, settings, nil, nil, testLogger())

	want := models.Settings{
		QRGenerationStartTime: "07:00",
		QRGenerationEndTime:   "10:00",
		QRValidityHours:       48,
		MachineEnabled:        true,
	}
	require.NoError(t, e.UpdateSettings(context.Background(), want))

	st := settings.State()
	require.Equal(t, resource.StatusLoaded, st.Status)
	require.Len(t, st.Data.Items, 1)
	require.Equal(t, 48, st.Data.Items[0].QRValidityHours,
		"cache must hold the payload directly, no network round trip")
}

func TestExecutor_ValidateQRReturnsResultAndRefreshesHistory(t *testing.T) {
	backend := &fakeBackend{validateRes: models.ValidationResult{Success: false, Message: "QR already used"}}
	history := &refreshCounter{}
	e := New(backend, nil, nil, history.fn, testLogger())

	res, err := e.ValidateQR(context.Background(), "ABC123")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "QR already used", res.Message)
	require.Equal(t, 1, history.count())
}

func TestExecutor_CreateOperatorInvalidatesNothing(t *testing.T) {
	backend := &fakeBackend{}
	users := &refreshCounter{}
	history := &refreshCounter{}
	e := New(backend, nil, users.fn, history.fn, testLogger())

	op, err := e.CreateOperator(context.Background(), "op2", "pw", "operator")
	require.NoError(t, err)
	require.Equal(t, "op2", op.Username)
	require.Equal(t, 0, users.count())
	require.Equal(t, 0, history.count())
}

func TestExecutor_SameKindSingleFlight(t *testing.T) {
	backend := &fakeBackend{deleteGate: make(chan struct{})}
	e := New(backend, nil, nil, nil, testLogger())

	done := make(chan error, 1)
	go func() { done <- e.DeleteUser(context.Background(), "u1") }()

	require.Eventually(t, func() bool {
		return e.IsPending(KindDeleteUser)
	}, time.Second, 2*time.Millisecond)

	// Second delete while the first is in flight is refused...
	err := e.DeleteUser(context.Background(), "u2")
	require.ErrorIs(t, err, ErrMutationPending)

	// ...but a different kind may proceed concurrently.
	_, err = e.CreateOperator(context.Background(), "x", "y", "operator")
	require.NoError(t, err)

	close(backend.deleteGate)
	require.NoError(t, <-done)
	require.False(t, e.IsPending(KindDeleteUser))

	// After completion the kind is available again.
	require.NoError(t, e.DeleteUser(context.Background(), "u3"))
}
