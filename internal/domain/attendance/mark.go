// Package attendance holds attendance marks and the absence-streak rule.
package attendance

import "strings"

// Status is the value recorded for a student on a class date.
type Status string

const (
	StatusNone             Status = ""
	StatusPresent          Status = "present"
	StatusLate             Status = "late"
	StatusAbsent           Status = "absent"
	StatusAbsentWithReason Status = "absent_with_reason"
)

// ParseStatus normalizes a stored status. Unknown non-empty values are kept
// as they are: they count as a mark but never as an unexplained absence.
func ParseStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "":
		return StatusNone
	case "absent with reason", "absent-with-reason", "excused":
		return StatusAbsentWithReason
	}
	return Status(s)
}

func (s Status) Empty() bool { return s == StatusNone }

// Mark is one attendance cell. RawDate is kept unparsed because records are
// edited by hand and may hold malformed dates.
type Mark struct {
	RawDate string
	Status  Status
}

// StudentHistory is a student's marks within one group record.
type StudentHistory struct {
	StudentID   int64
	StudentName string
	GroupID     int64
	GroupName   string
	Marks       []Mark
}
