package attendance

import (
	"sort"

	"school_reminder_bot/internal/domain/calendar"
)

// StreakLength is the number of consecutive unexplained absences that raise an alert.
const StreakLength = 2

// Streak is a student whose most recent marks are all unexplained absences.
type Streak struct {
	StudentID   int64
	StudentName string
	// GroupID and GroupName come from the first history in which the student appeared.
	GroupID   int64
	GroupName string
	// Dates of the absences, most recent first.
	Dates []calendar.Day
}

type datedMark struct {
	day    calendar.Day
	status Status
}

// DetectStreaks pools each student's marks over all of their group records
// and reports the students whose two most recent non-empty marks are both
// StatusAbsent. StatusAbsentWithReason breaks a streak. Marks with dates that
// cannot be parsed are ignored. Each student appears at most once, in the
// order of first appearance in histories.
func DetectStreaks(histories []StudentHistory) []Streak {
	var order []int64
	first := make(map[int64]StudentHistory)
	pooled := make(map[int64][]datedMark)

	for _, h := range histories {
		if _, seen := first[h.StudentID]; !seen {
			first[h.StudentID] = h
			order = append(order, h.StudentID)
		}
		for _, m := range h.Marks {
			if m.Status.Empty() {
				continue
			}
			day, err := calendar.ParseDay(m.RawDate)
			if err != nil {
				continue
			}
			pooled[h.StudentID] = append(pooled[h.StudentID], datedMark{day: day, status: m.Status})
		}
	}

	var streaks []Streak
	for _, studentID := range order {
		dates, ok := recentAbsences(pooled[studentID])
		if !ok {
			continue
		}
		h := first[studentID]
		streaks = append(streaks, Streak{
			StudentID:   studentID,
			StudentName: h.StudentName,
			GroupID:     h.GroupID,
			GroupName:   h.GroupName,
			Dates:       dates,
		})
	}
	return streaks
}

func recentAbsences(marks []datedMark) ([]calendar.Day, bool) {
	if len(marks) < StreakLength {
		return nil, false
	}
	sort.SliceStable(marks, func(i, j int) bool {
		return marks[i].day.After(marks[j].day)
	})

	dates := make([]calendar.Day, 0, StreakLength)
	for _, m := range marks[:StreakLength] {
		if m.status != StatusAbsent {
			return nil, false
		}
		dates = append(dates, m.day)
	}
	return dates, true
}
