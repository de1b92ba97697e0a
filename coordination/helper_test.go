package coordination_test

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/pericialabs/coordination-go/coordination"
)

const stubEventType = "SomethingHappened"

// stubEvent is a minimal immutable event for core tests.
type stubEvent struct {
	coordination.EventRecord
	Payload stubEventPayload
}

type stubEventPayload struct {
	Name string
}

func buildStubEvent(name string) stubEvent {
	return stubEvent{
		EventRecord: coordination.BuildEventRecord(),
		Payload:     stubEventPayload{Name: name},
	}
}

func (e stubEvent) EventType() string {
	return stubEventType
}

func (e stubEvent) PayloadToJSON() ([]byte, error) {
	return jsoniter.ConfigFastest.Marshal(e.Payload)
}

// otherEvent uses a different type tag to verify per-type dispatch.
type otherEvent struct {
	coordination.EventRecord
}

func buildOtherEvent() otherEvent {
	return otherEvent{EventRecord: coordination.BuildEventRecord()}
}

func (e otherEvent) EventType() string {
	return "SomethingElseHappened"
}

func (e otherEvent) PayloadToJSON() ([]byte, error) {
	return []byte("{}"), nil
}

// stubParticipant records the flush/discard protocol a scope drives.
type stubParticipant struct {
	flushCalls   int
	discardCalls int
	flushErr     error
	onFlush      func()
}

func (p *stubParticipant) Flush(_ context.Context, _ coordination.Transaction) error {
	p.flushCalls++
	if p.onFlush != nil {
		p.onFlush()
	}

	return p.flushErr
}

func (p *stubParticipant) Discard() {
	p.discardCalls++
}

// stubStore hands out stubTx transactions and can be forced to fail.
type stubStore struct {
	beginErr error
	lastTx   *stubTx
}

func (s *stubStore) Begin(_ context.Context) (coordination.Transaction, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}

	s.lastTx = &stubTx{}

	return s.lastTx, nil
}

type stubTx struct {
	execStatements []string
	commitCalls    int
	rollbackCalls  int
	commitErr      error
}

func (t *stubTx) Exec(_ context.Context, query string) (int64, error) {
	t.execStatements = append(t.execStatements, query)
	return 1, nil
}

func (t *stubTx) Query(_ context.Context, _ string) (coordination.Rows, error) {
	return nil, errors.New("not supported in stub")
}

func (t *stubTx) Commit(_ context.Context) error {
	t.commitCalls++
	return t.commitErr
}

func (t *stubTx) Rollback(_ context.Context) error {
	t.rollbackCalls++
	return nil
}

// recordingHandler collects the events it receives.
func recordingHandler(received *[]coordination.Event) coordination.HandlerFunc {
	return func(_ context.Context, event coordination.Event) error {
		*received = append(*received, event)
		return nil
	}
}

// waitBriefly gives abandoned handler goroutines a moment to settle.
func waitBriefly() {
	time.Sleep(20 * time.Millisecond)
}
