package live

import (
	"sort"

	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

// FirstLastByDay reduces a reconciled buffer to at most two punches per
// person per day: the earliest check-in and the latest check-out. People
// with only one side present keep just that side. Other punch actions
// (breaks, overtime) never appear in this view. Result is sorted
// newest-first like the input buffer.
func FirstLastByDay(records []types.AttendanceEvent) []types.AttendanceEvent {
	type slot struct {
		firstIn *types.AttendanceEvent
		lastOut *types.AttendanceEvent
	}
	slots := make(map[string]*slot)
	order := make([]string, 0)

	for i := range records {
		e := records[i]
		day := e.Day()
		if day == "" {
			continue
		}
		k := e.UserID + "|" + day
		s, ok := slots[k]
		if !ok {
			s = &slot{}
			slots[k] = s
			order = append(order, k)
		}
		switch e.Action {
		case types.ActionCheckIn:
			if s.firstIn == nil || e.Time().Before(s.firstIn.Time()) {
				s.firstIn = &records[i]
			}
		case types.ActionCheckOut:
			if s.lastOut == nil || e.Time().After(s.lastOut.Time()) {
				s.lastOut = &records[i]
			}
		}
	}

	out := make([]types.AttendanceEvent, 0, 2*len(order))
	for _, k := range order {
		s := slots[k]
		if s.firstIn != nil {
			out = append(out, *s.firstIn)
		}
		if s.lastOut != nil {
			out = append(out, *s.lastOut)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time().After(out[j].Time())
	})
	return out
}
