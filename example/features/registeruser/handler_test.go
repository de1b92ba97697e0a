package registeruser_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pericialabs/coordination-go/coordination"
	"github.com/pericialabs/coordination-go/example/features/registeruser"
	"github.com/pericialabs/coordination-go/example/shared/core"
	"github.com/pericialabs/coordination-go/example/shared/shell"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []coordination.Event
}

func (r *eventRecorder) handle(_ context.Context, event coordination.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) recorded() []coordination.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]coordination.Event, len(r.events))
	copy(events, r.events)
	return events
}

type failingStore struct{}

func (failingStore) Begin(_ context.Context) (coordination.Transaction, error) {
	return nil, errors.New("connection refused")
}

func Test_Handler_RegistersUserAndPublishesEvent(t *testing.T) {
	ctx := context.Background()
	bus, err := coordination.NewEventBus()
	require.NoError(t, err)

	recorder := &eventRecorder{}
	bus.Subscribe(core.UserRegisteredEventType, recorder.handle)

	users := shell.NewUserStore()
	handler, err := registeruser.NewHandler(bus, users)
	require.NoError(t, err)

	userID := uuid.New()
	command := registeruser.BuildCommand(userID, "Ana", "ana@example.com", "123", "expert", time.Now())

	require.NoError(t, handler.Handle(ctx, command))

	user, exists := users.Get(userID.String())
	require.True(t, exists)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "expert", user.Role)

	events := recorder.recorded()
	require.Len(t, events, 1)
	registered, ok := events[0].(core.UserRegistered)
	require.True(t, ok)
	assert.Equal(t, userID.String(), registered.UserID)
}

func Test_Handler_SecondRegistrationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	bus, err := coordination.NewEventBus()
	require.NoError(t, err)

	recorder := &eventRecorder{}
	bus.Subscribe(core.UserRegisteredEventType, recorder.handle)

	users := shell.NewUserStore()
	handler, err := registeruser.NewHandler(bus, users)
	require.NoError(t, err)

	command := registeruser.BuildCommand(uuid.New(), "Ana", "ana@example.com", "123", "expert", time.Now())

	require.NoError(t, handler.Handle(ctx, command))
	require.NoError(t, handler.Handle(ctx, command))

	assert.Equal(t, 1, users.Len())
	assert.Len(t, recorder.recorded(), 1)
}

func Test_Handler_SubscriberSeesPersistedUser(t *testing.T) {
	ctx := context.Background()
	bus, err := coordination.NewEventBus()
	require.NoError(t, err)

	users := shell.NewUserStore()

	var visibleDuringDispatch bool
	bus.Subscribe(core.UserRegisteredEventType, func(_ context.Context, event coordination.Event) error {
		registered := event.(core.UserRegistered)
		_, visibleDuringDispatch = users.Get(registered.UserID)
		return nil
	})

	handler, err := registeruser.NewHandler(bus, users)
	require.NoError(t, err)

	command := registeruser.BuildCommand(uuid.New(), "Ana", "ana@example.com", "123", "expert", time.Now())
	require.NoError(t, handler.Handle(ctx, command))

	assert.True(t, visibleDuringDispatch, "handler must observe the user already persisted")
}

func Test_Handler_PersistenceFailureSuppressesEvent(t *testing.T) {
	ctx := context.Background()
	bus, err := coordination.NewEventBus()
	require.NoError(t, err)

	recorder := &eventRecorder{}
	bus.Subscribe(core.UserRegisteredEventType, recorder.handle)

	users := shell.NewUserStore()
	handler, err := registeruser.NewHandler(bus, users, registeruser.WithStore(failingStore{}))
	require.NoError(t, err)

	command := registeruser.BuildCommand(uuid.New(), "Ana", "ana@example.com", "123", "expert", time.Now())

	err = handler.Handle(ctx, command)
	assert.ErrorIs(t, err, coordination.ErrCommitFailed)

	assert.Equal(t, 0, users.Len(), "failed commit must not persist the user")
	assert.Empty(t, recorder.recorded(), "failed commit must not publish events")
}

func Test_NewHandler_RequiresBusAndValidOptions(t *testing.T) {
	users := shell.NewUserStore()

	_, err := registeruser.NewHandler(nil, users)
	assert.ErrorIs(t, err, coordination.ErrNilEventBus)

	bus, err := coordination.NewEventBus()
	require.NoError(t, err)

	_, err = registeruser.NewHandler(bus, users, registeruser.WithStore(nil))
	assert.ErrorIs(t, err, coordination.ErrNilStore)

	_, err = registeruser.NewHandler(bus, users, registeruser.WithMetrics(nil))
	assert.ErrorIs(t, err, shell.ErrNilMetricsCollector)
}
