package coordination_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pericialabs/coordination-go/coordination"
)

func Test_EventBus_Publish_InvokesHandlersInSubscriptionOrder(t *testing.T) {
	bus, err := coordination.NewEventBus()
	require.NoError(t, err)

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		bus.Subscribe(stubEventType, func(_ context.Context, _ coordination.Event) error {
			order = append(order, name)
			return nil
		})
	}

	for i := 0; i < 3; i++ {
		order = nil
		err = bus.Publish(context.Background(), buildStubEvent("ordering"))
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second", "third"}, order, "handlers must run in subscription order, every time")
	}
}

func Test_EventBus_Publish_NoHandlerRegistered_IsNoOp(t *testing.T) {
	bus, err := coordination.NewEventBus()
	require.NoError(t, err)

	err = bus.Publish(context.Background(), buildStubEvent("nobody listens"))

	assert.NoError(t, err)
}

func Test_EventBus_Publish_NilEvent_Fails(t *testing.T) {
	bus, err := coordination.NewEventBus()
	require.NoError(t, err)

	err = bus.Publish(context.Background(), nil)

	assert.ErrorIs(t, err, coordination.ErrNilEvent)
}

func Test_EventBus_Subscribe_DuplicateRegistrationsAreBothInvoked(t *testing.T) {
	bus, err := coordination.NewEventBus()
	require.NoError(t, err)

	calls := 0
	handler := func(_ context.Context, _ coordination.Event) error {
		calls++
		return nil
	}

	bus.Subscribe(stubEventType, handler)
	bus.Subscribe(stubEventType, handler)
	require.Equal(t, 2, bus.SubscriberCount(stubEventType))

	err = bus.Publish(context.Background(), buildStubEvent("fan-out"))

	require.NoError(t, err)
	assert.Equal(t, 2, calls, "duplicate registrations are kept, not deduplicated")
}

func Test_EventBus_Subscribe_NilHandlerIsIgnored(t *testing.T) {
	bus, err := coordination.NewEventBus()
	require.NoError(t, err)

	bus.Subscribe(stubEventType, nil)

	assert.Equal(t, 0, bus.SubscriberCount(stubEventType))
	assert.NoError(t, bus.Publish(context.Background(), buildStubEvent("ignored")))
}

func Test_EventBus_Publish_DispatchesOnlyToMatchingEventType(t *testing.T) {
	bus, err := coordination.NewEventBus()
	require.NoError(t, err)

	var received []coordination.Event
	bus.Subscribe(stubEventType, recordingHandler(&received))

	require.NoError(t, bus.Publish(context.Background(), buildOtherEvent()))
	assert.Empty(t, received)

	event := buildStubEvent("typed")
	require.NoError(t, bus.Publish(context.Background(), event))
	require.Len(t, received, 1)
	assert.Equal(t, event.EventID(), received[0].EventID())
}

func Test_EventBus_Publish_HandlerFailureIsIsolated(t *testing.T) {
	tests := []struct {
		name         string
		firstHandler coordination.HandlerFunc
	}{
		{
			name: "handler_returns_error",
			firstHandler: func(_ context.Context, _ coordination.Event) error {
				return errors.New("synthetic handler failure")
			},
		},
		{
			name: "handler_panics",
			firstHandler: func(_ context.Context, _ coordination.Event) error {
				panic("synthetic handler panic")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var hookErrs []error
			bus, err := coordination.NewEventBus(
				coordination.WithHandlerErrorHook(func(_ coordination.Event, _ int, hookErr error) {
					hookErrs = append(hookErrs, hookErr)
				}),
			)
			require.NoError(t, err)

			secondRan := false
			bus.Subscribe("OrderPlaced", tc.firstHandler)
			bus.Subscribe("OrderPlaced", func(_ context.Context, _ coordination.Event) error {
				secondRan = true
				return nil
			})

			event := orderPlacedEvent{EventRecord: coordination.BuildEventRecord()}
			err = bus.Publish(context.Background(), event)

			assert.NoError(t, err, "handler failures must not propagate to the publisher")
			assert.True(t, secondRan, "subsequently registered handlers must still run")
			require.Len(t, hookErrs, 1)
		})
	}
}

func Test_EventBus_Publish_HandlerTimeoutCountsAsFailureAndDispatchContinues(t *testing.T) {
	var hookErrs []error
	bus, err := coordination.NewEventBus(
		coordination.WithHandlerTimeout(10*time.Millisecond),
		coordination.WithHandlerErrorHook(func(_ coordination.Event, _ int, hookErr error) {
			hookErrs = append(hookErrs, hookErr)
		}),
	)
	require.NoError(t, err)

	secondRan := false
	bus.Subscribe(stubEventType, func(ctx context.Context, _ coordination.Event) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return ctx.Err()
	})
	bus.Subscribe(stubEventType, func(_ context.Context, _ coordination.Event) error {
		secondRan = true
		return nil
	})

	err = bus.Publish(context.Background(), buildStubEvent("slow handler"))

	assert.NoError(t, err)
	assert.True(t, secondRan, "remaining handlers must run after a timeout")
	require.Len(t, hookErrs, 1)
	assert.ErrorIs(t, hookErrs[0], coordination.ErrHandlerTimedOut)

	waitBriefly()
}

func Test_EventBus_Publish_CallerCancellationIsNotReportedAsTimeout(t *testing.T) {
	var hookErrs []error
	bus, err := coordination.NewEventBus(
		coordination.WithHandlerTimeout(time.Second),
		coordination.WithHandlerErrorHook(func(_ coordination.Event, _ int, hookErr error) {
			hookErrs = append(hookErrs, hookErr)
		}),
	)
	require.NoError(t, err)

	bus.Subscribe(stubEventType, func(ctx context.Context, _ coordination.Event) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = bus.Publish(ctx, buildStubEvent("cancelled caller"))

	assert.NoError(t, err)
	require.Len(t, hookErrs, 1)
	assert.ErrorIs(t, hookErrs[0], context.Canceled)
	assert.NotErrorIs(t, hookErrs[0], coordination.ErrHandlerTimedOut,
		"cancellation by the caller must not be labeled a handler timeout")

	waitBriefly()
}

func Test_EventBus_Options_NegativeHandlerTimeoutIsRejected(t *testing.T) {
	_, err := coordination.NewEventBus(coordination.WithHandlerTimeout(-time.Second))

	assert.ErrorIs(t, err, coordination.ErrNegativeHandlerTimeout)
}

type orderPlacedEvent struct {
	coordination.EventRecord
}

func (e orderPlacedEvent) EventType() string {
	return "OrderPlaced"
}

func (e orderPlacedEvent) PayloadToJSON() ([]byte, error) {
	return []byte("{}"), nil
}
