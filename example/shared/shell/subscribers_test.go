package shell

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pericialabs/coordination-go/coordination"
	"github.com/pericialabs/coordination-go/example/shared/core"
)

func Test_AuditTrailSubscriber_RecordsDispatchedEvents(t *testing.T) {
	ctx := context.Background()
	audit := NewAuditTrailSubscriber(nil)

	userEvent := core.BuildUserRegistered(uuid.New(), "Ana", "ana@example.com", "123", "expert", time.Now())
	buffetEvent := core.BuildBuffetRegistered(uuid.New(), "Silva & Associados", "12.345.678/0001-00", uuid.New(), time.Now())

	require.NoError(t, audit.Handle(ctx, userEvent))
	require.NoError(t, audit.Handle(ctx, buffetEvent))

	entries := audit.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, coordination.EventTypeString(core.UserRegisteredEventType), entries[0].EventType)
	assert.Equal(t, userEvent.EventID(), entries[0].EventID)
	assert.Contains(t, string(entries[0].Payload), "ana@example.com")
	assert.Equal(t, coordination.EventTypeString(core.BuffetRegisteredEventType), entries[1].EventType)
}

func Test_NotificationSubscriber_SendsForKnownEventsOnly(t *testing.T) {
	ctx := context.Background()
	notifications := NewNotificationSubscriber(nil)

	userEvent := core.BuildUserRegistered(uuid.New(), "Ana", "ana@example.com", "123", "expert", time.Now())
	openedEvent := core.BuildInvestigationOpened(uuid.New(), "ABC1D23", "9BWZZZ377VT004251", uuid.New(), uuid.New(), time.Now())
	completedEvent := core.BuildInvestigationCompleted(uuid.New(), uuid.New(), "no structural damage found", time.Now())

	require.NoError(t, notifications.Handle(ctx, userEvent))
	require.NoError(t, notifications.Handle(ctx, openedEvent)) // ignored
	require.NoError(t, notifications.Handle(ctx, completedEvent))

	sent := notifications.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "ana@example.com", sent[0].Recipient)
	assert.Contains(t, sent[1].Message, "completed")
}

func Test_RegisterSubscribers_WiresAuditForAllEventTypes(t *testing.T) {
	bus, err := coordination.NewEventBus()
	require.NoError(t, err)

	audit := NewAuditTrailSubscriber(nil)
	notifications := NewNotificationSubscriber(nil)

	RegisterSubscribers(bus, audit, notifications)

	assert.Equal(t, 2, bus.SubscriberCount(core.UserRegisteredEventType))
	assert.Equal(t, 1, bus.SubscriberCount(core.BuffetRegisteredEventType))
	assert.Equal(t, 1, bus.SubscriberCount(core.InvestigationOpenedEventType))
	assert.Equal(t, 2, bus.SubscriberCount(core.InvestigationCompletedEventType))

	ctx := context.Background()
	event := core.BuildUserRegistered(uuid.New(), "Ana", "ana@example.com", "123", "expert", time.Now())
	require.NoError(t, bus.Publish(ctx, event))

	assert.Len(t, audit.Entries(), 1)
	assert.Len(t, notifications.Sent(), 1)
}
