package live

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

func punch(user, device, ts string, action types.PunchAction) types.AttendanceEvent {
	return types.AttendanceEvent{
		UserID:    user,
		DeviceID:  device,
		Timestamp: ts,
		Action:    action,
	}
}

func TestMerge_Deduplicates(t *testing.T) {
	historical := []types.AttendanceEvent{
		punch("u1", "d1", "2025-06-01 08:00:00", types.ActionCheckIn),
		punch("u2", "d1", "2025-06-01 08:05:00", types.ActionCheckIn),
	}
	// Pushed copy of an event the historical page already delivered.
	pushed := []types.AttendanceEvent{
		punch("u1", "d1", "2025-06-01 08:00:00", types.ActionCheckIn),
	}

	merged := Merge(pushed, historical)

	assert.Len(t, merged, 2)
	keys := make(map[string]int)
	for _, e := range merged {
		keys[e.Key()]++
	}
	for k, n := range keys {
		assert.Equal(t, 1, n, "key %s appears %d times", k, n)
	}
}

func TestMerge_IncomingWinsOnDuplicateKey(t *testing.T) {
	existing := []types.AttendanceEvent{
		punch("u1", "d1", "2025-06-01 08:00:00", types.ActionCheckIn),
	}
	refreshed := punch("u1", "d1", "2025-06-01 08:00:00", types.ActionCheckIn)
	refreshed.Name = "Alice"
	refreshed.AvatarURL = "http://example/avatar.png"

	merged := Merge([]types.AttendanceEvent{refreshed}, existing)

	assert.Len(t, merged, 1)
	assert.Equal(t, "Alice", merged[0].Name)
	assert.Equal(t, "http://example/avatar.png", merged[0].AvatarURL)
}

func TestMerge_Idempotent(t *testing.T) {
	incoming := []types.AttendanceEvent{
		punch("u1", "d1", "2025-06-01 08:00:00", types.ActionCheckIn),
		punch("u1", "d1", "2025-06-01 17:00:00", types.ActionCheckOut),
		punch("u2", "d2", "2025-06-01 09:00:00", types.ActionCheckIn),
	}

	once := Merge(incoming, nil)
	twice := Merge(incoming, once)

	assert.Equal(t, once, twice)
}

func TestMerge_DescendingByTimestamp(t *testing.T) {
	incoming := []types.AttendanceEvent{
		punch("u1", "d1", "2025-06-01 08:00:00", types.ActionCheckIn),
		punch("u2", "d1", "2025-06-01 12:30:00", types.ActionCheckIn),
		punch("u3", "d1", "2025-06-01 07:15:00", types.ActionCheckIn),
	}

	merged := Merge(incoming, nil)

	for i := 1; i < len(merged); i++ {
		prev, cur := merged[i-1].Time(), merged[i].Time()
		assert.False(t, prev.Before(cur),
			"records out of order at %d: %s before %s", i, prev, cur)
	}
}

func TestMerge_CapsAtMaxRecords(t *testing.T) {
	var existing []types.AttendanceEvent
	for i := 0; i < MaxRecords; i++ {
		ts := fmt.Sprintf("2025-06-01 08:%02d:00", i)
		existing = append(existing, punch("u1", "d1", ts, types.ActionCheckIn))
	}

	newest := punch("u2", "d1", "2025-06-01 09:00:00", types.ActionCheckIn)
	merged := Merge([]types.AttendanceEvent{newest}, existing)

	assert.Len(t, merged, MaxRecords)
	// Newest event survives; the oldest fell off.
	assert.Equal(t, newest.Key(), merged[0].Key())
	for _, e := range merged {
		assert.NotEqual(t, "2025-06-01 08:00:00", e.Timestamp)
	}
}

func TestMerge_MalformedTimestampSortsLast(t *testing.T) {
	bad := punch("u1", "d1", "not-a-timestamp", types.ActionCheckIn)
	good := punch("u2", "d1", "2025-06-01 08:00:00", types.ActionCheckIn)

	merged := Merge([]types.AttendanceEvent{bad, good}, nil)

	assert.Len(t, merged, 2)
	assert.Equal(t, good.Key(), merged[0].Key())
	assert.Equal(t, bad.Key(), merged[1].Key())
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	existing := []types.AttendanceEvent{
		punch("u1", "d1", "2025-06-01 08:00:00", types.ActionCheckIn),
	}
	incoming := []types.AttendanceEvent{
		punch("u2", "d1", "2025-06-01 09:00:00", types.ActionCheckIn),
	}

	_ = Merge(incoming, existing)

	assert.Equal(t, "u1", existing[0].UserID)
	assert.Equal(t, "u2", incoming[0].UserID)
	assert.Len(t, existing, 1)
	assert.Len(t, incoming, 1)
}
