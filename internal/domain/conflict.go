package domain

// IsFree decides whether [start, start+duration) can be booked on the resource.
//
// The service must fit the working window; the buffer may run past closing time.
// Breaks are checked against the service interval alone. Against existing bookings both
// sides carry a buffer: the candidate occupies [start, start+duration+buffer) with the shop's
// current buffer, and every non-cancelled booking of the resource occupies
// [bStart, bEnd+b.BufferMinutes) with the buffer stored at commit time. The same padded
// intervals are what the bookings_no_overlap constraint compares. Bookings of other
// resources are ignored.
func IsFree(resourceID int64, schedule EffectiveSchedule, bookings []*Booking, start, duration, buffer int) bool {
	if duration <= 0 || !schedule.Contains(start, duration) {
		return false
	}

	service := Interval{Start: start, End: start + duration}
	for _, b := range schedule.Breaks {
		if service.Overlaps(b) {
			return false
		}
	}

	occupied := Interval{Start: start, End: start + duration + buffer}
	for _, b := range bookings {
		if b.ResourceID != resourceID || !b.IsActive() {
			continue
		}
		existing := Interval{Start: b.StartMinute(), End: b.EndMinute() + b.BufferMinutes}
		if occupied.Overlaps(existing) {
			return false
		}
	}

	return true
}

// FreeResources returns, in pool order, every resource on which the interval can be booked
func FreeResources(pool []ResourceSchedule, bookings []*Booking, start, duration, buffer int) []int64 {
	var free []int64
	for _, rs := range pool {
		if IsFree(rs.ResourceID, rs.Schedule, bookings, start, duration, buffer) {
			free = append(free, rs.ResourceID)
		}
	}
	return free
}

// AnyFree reports whether at least one resource of the pool can take the interval
func AnyFree(pool []ResourceSchedule, bookings []*Booking, start, duration, buffer int) bool {
	for _, rs := range pool {
		if IsFree(rs.ResourceID, rs.Schedule, bookings, start, duration, buffer) {
			return true
		}
	}
	return false
}
