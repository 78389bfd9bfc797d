package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

func TestServiceStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/service/status", r.URL.Path)
		_ = json.NewEncoder(w).Encode(types.ServiceStatus{
			Status:      "running",
			PID:         1234,
			MemoryUsage: 42.5,
			CPUPercent:  3.2,
			Uptime:      600,
		})
	}))
	defer server.Close()

	c := New(StaticBase(server.URL), nil)
	status, err := c.ServiceStatus(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "running", status.Status)
	assert.Equal(t, 1234, status.PID)
}

func TestServiceMetrics_AdaptsStatusBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(types.ServiceStatus{
			Status:      "running",
			PID:         1234,
			MemoryUsage: 42.5,
			CPUPercent:  3.2,
			Uptime:      600,
		})
	}))
	defer server.Close()

	c := New(StaticBase(server.URL), nil)
	m, err := c.ServiceMetrics(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 42.5, m.MemoryUsage)
	assert.Equal(t, 3.2, m.CPUPercent)
	assert.Equal(t, 600.0, m.Uptime)
}

func TestAttendanceLogs_QueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/attendance/logs", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "50", q.Get("limit"))
		assert.Equal(t, "dev-1", q.Get("device_id"))
		assert.Equal(t, "2025-06-01", q.Get("date"))
		assert.Empty(t, q.Get("offset"))

		_ = json.NewEncoder(w).Encode(types.AttendancePage{
			Data: []types.AttendanceEvent{
				{UserID: "u1", DeviceID: "dev-1", Timestamp: "2025-06-01 08:00:00"},
			},
			Pagination: types.Pagination{Limit: 50, TotalCount: 1},
		})
	}))
	defer server.Close()

	c := New(StaticBase(server.URL), nil)
	page, err := c.AttendanceLogs(context.Background(), AttendanceQuery{
		Limit:    50,
		DeviceID: "dev-1",
		Date:     "2025-06-01",
	})

	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "u1", page.Data[0].UserID)
	assert.Equal(t, 1, page.Pagination.TotalCount)
}

func TestGetJSON_Non2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(StaticBase(server.URL), nil)
	_, err := c.ServiceStatus(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestLiveEventsURL_FollowsBase(t *testing.T) {
	c := New(StaticBase("http://127.0.0.1:57575"), nil)
	assert.Equal(t, "http://127.0.0.1:57575/live-events", c.LiveEventsURL())
}
