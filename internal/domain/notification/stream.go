// internal/domain/notification/stream.go
package notification

import "fmt"

// Stream is one of the independent reminder categories. Every stream has its
// own trigger times and its own dedup key space.
type Stream string

const (
	StreamAttendanceReminder Stream = "ATTENDANCE_REMINDER" // today's class attendance not marked
	StreamPaymentDue         Stream = "PAYMENT_DUE"         // tuition due in 0-3 days
	StreamAbsenceStreak      Stream = "ABSENCE_STREAK"      // two unexplained absences in a row
	StreamUnprocessedBacklog Stream = "UNPROCESSED_BACKLOG" // enrollment still unprocessed
)

// Streams lists every stream in evaluation order.
var Streams = []Stream{
	StreamAttendanceReminder,
	StreamPaymentDue,
	StreamAbsenceStreak,
	StreamUnprocessedBacklog,
}

// ObligationKey identifies what a reminder is about, independent of who receives it:
// the group for attendance reminders, the student for the other streams.
type ObligationKey struct {
	Stream Stream
	ID     int64
}

func KeyFor(stream Stream, id int64) ObligationKey {
	return ObligationKey{Stream: stream, ID: id}
}

func (k ObligationKey) String() string {
	return fmt.Sprintf("%s:%d", k.Stream, k.ID)
}
