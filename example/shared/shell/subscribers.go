package shell

import (
	"context"
	"sync"
	"time"

	"github.com/pericialabs/coordination-go/coordination"
	"github.com/pericialabs/coordination-go/example/shared/core"
)

const (
	logMsgAuditEntryRecorded = "audit trail entry recorded"
	logMsgNotificationSent   = "notification sent"

	logAttrEventType = "event_type"
	logAttrEventID   = "event_id"
	logAttrRecipient = "recipient"
)

// AuditEntry is one line of the audit trail.
type AuditEntry struct {
	EventID    coordination.EventIDString
	EventType  coordination.EventTypeString
	OccurredAt time.Time
	Payload    []byte
}

// AuditTrailSubscriber records every dispatched domain event into an
// in-memory audit trail. Register its Handle method for each event type
// the trail should cover.
type AuditTrailSubscriber struct {
	mu               sync.Mutex
	entries          []AuditEntry
	contextualLogger coordination.ContextualLogger
}

// NewAuditTrailSubscriber creates an audit trail subscriber.
// The logger may be nil.
func NewAuditTrailSubscriber(contextualLogger coordination.ContextualLogger) *AuditTrailSubscriber {
	return &AuditTrailSubscriber{contextualLogger: contextualLogger}
}

// Handle appends the event to the audit trail.
func (s *AuditTrailSubscriber) Handle(ctx context.Context, event coordination.Event) error {
	payload, err := event.PayloadToJSON()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries = append(s.entries, AuditEntry{
		EventID:    event.EventID(),
		EventType:  event.EventType(),
		OccurredAt: event.HasOccurredAt(),
		Payload:    payload,
	})
	s.mu.Unlock()

	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgAuditEntryRecorded,
			logAttrEventType, event.EventType(),
			logAttrEventID, event.EventID())
	}

	return nil
}

// Entries returns a copy of the recorded audit trail.
func (s *AuditTrailSubscriber) Entries() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]AuditEntry, len(s.entries))
	copy(entries, s.entries)

	return entries
}

// Notification is one message handed to the notification channel.
type Notification struct {
	Recipient string
	Message   string
}

// NotificationSubscriber turns selected domain events into notifications on
// a logging channel. A real deployment would hand them to mail or chat
// delivery instead.
type NotificationSubscriber struct {
	mu               sync.Mutex
	sent             []Notification
	contextualLogger coordination.ContextualLogger
}

// NewNotificationSubscriber creates a notification subscriber.
// The logger may be nil.
func NewNotificationSubscriber(contextualLogger coordination.ContextualLogger) *NotificationSubscriber {
	return &NotificationSubscriber{contextualLogger: contextualLogger}
}

// Handle sends a notification for the events it knows about and ignores the rest.
func (s *NotificationSubscriber) Handle(ctx context.Context, event coordination.Event) error {
	var notification Notification

	switch e := event.(type) {
	case core.UserRegistered:
		notification = Notification{
			Recipient: e.Email,
			Message:   "welcome to the platform, " + e.Name,
		}
	case core.InvestigationCompleted:
		notification = Notification{
			Recipient: e.CompletedByUserID,
			Message:   "investigation " + e.InvestigationID + " completed",
		}
	default:
		return nil
	}

	s.mu.Lock()
	s.sent = append(s.sent, notification)
	s.mu.Unlock()

	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgNotificationSent,
			logAttrEventType, event.EventType(),
			logAttrRecipient, notification.Recipient)
	}

	return nil
}

// Sent returns a copy of the notifications sent so far.
func (s *NotificationSubscriber) Sent() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	sent := make([]Notification, len(s.sent))
	copy(sent, s.sent)

	return sent
}

// RegisterSubscribers wires the audit trail and notification subscribers
// into the bus, typically once at process start.
func RegisterSubscribers(
	bus *coordination.EventBus,
	audit *AuditTrailSubscriber,
	notifications *NotificationSubscriber,
) {
	for _, eventType := range []coordination.EventTypeString{
		core.UserRegisteredEventType,
		core.BuffetRegisteredEventType,
		core.InvestigationOpenedEventType,
		core.InvestigationCompletedEventType,
	} {
		bus.Subscribe(eventType, audit.Handle)
	}

	bus.Subscribe(core.UserRegisteredEventType, notifications.Handle)
	bus.Subscribe(core.InvestigationCompletedEventType, notifications.Handle)
}
