package coordination_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pericialabs/coordination-go/coordination"
)

func Test_BuildEventRecord_GeneratesUniqueIdentifiers(t *testing.T) {
	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		record := coordination.BuildEventRecord()
		_, duplicate := seen[record.EventID()]
		assert.False(t, duplicate, "event identifiers must never repeat")
		seen[record.EventID()] = struct{}{}
	}
}

func Test_BuildEventRecordAt_NormalizesOccurredAt(t *testing.T) {
	location := time.FixedZone("UTC-3", -3*60*60)
	occurredAt := time.Date(2025, 6, 15, 14, 30, 45, 123456789, location)

	record := coordination.BuildEventRecordAt(occurredAt)

	assert.Equal(t, time.UTC, record.HasOccurredAt().Location())
	assert.Equal(t, occurredAt.UTC().Truncate(time.Microsecond), record.HasOccurredAt())
}

func Test_State_String(t *testing.T) {
	assert.Equal(t, "open", coordination.StateOpen.String())
	assert.Equal(t, "committed", coordination.StateCommitted.String())
	assert.Equal(t, "rolled_back", coordination.StateRolledBack.String())
}
