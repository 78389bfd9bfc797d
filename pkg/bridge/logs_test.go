package bridge

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

func TestLogRing_DropsOldestAtCapacity(t *testing.T) {
	ring := newLogRing()

	for i := 0; i < maxLogEntries+10; i++ {
		ring.Append(systemEntry(types.LogLevelInfo, fmt.Sprintf("line %d", i)))
	}

	all := ring.All()
	assert.Len(t, all, maxLogEntries)
	assert.Equal(t, "line 10", all[0].Message)
	assert.Equal(t, fmt.Sprintf("line %d", maxLogEntries+9), all[len(all)-1].Message)
}

func TestLogRing_ErrorsFilter(t *testing.T) {
	ring := newLogRing()
	ring.Append(systemEntry(types.LogLevelInfo, "starting"))
	ring.Append(systemEntry(types.LogLevelError, "boom"))
	ring.Append(systemEntry(types.LogLevelWarning, "careful"))
	ring.Append(systemEntry(types.LogLevelError, "boom again"))

	errs := ring.Errors()
	assert.Len(t, errs, 2)
	assert.Equal(t, "boom", errs[0].Message)
	assert.Equal(t, "boom again", errs[1].Message)
}

func TestLogRing_Clear(t *testing.T) {
	ring := newLogRing()
	ring.Append(systemEntry(types.LogLevelInfo, "something"))

	ring.Clear()

	assert.Empty(t, ring.All())
}

func TestLogRing_AllReturnsCopy(t *testing.T) {
	ring := newLogRing()
	ring.Append(systemEntry(types.LogLevelInfo, "original"))

	all := ring.All()
	all[0].Message = "mutated"

	assert.Equal(t, "original", ring.All()[0].Message)
}

func TestClassifyStderr(t *testing.T) {
	tests := []struct {
		line     string
		expected types.LogLevel
	}{
		{"2025-06-01 08:00:00 ERROR failed to open device", types.LogLevelError},
		{"Error: connection reset", types.LogLevelError},
		{"ModuleNotFoundError: No module named 'zk'", types.LogLevelError},
		{"Failed to execute script", types.LogLevelError},
		{"2025-06-01 08:00:00 WARNING device slow to respond", types.LogLevelWarning},
		{"Warning: deprecated option", types.LogLevelWarning},
		{"2025-06-01 08:00:00 INFO listening on :57575", types.LogLevelInfo},
		{"plain progress output", types.LogLevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyStderr(tt.line))
		})
	}
}
