package domain

// Slot search
const (
	// SlotStepMinutes granularity of candidate start times
	SlotStepMinutes = 15
)

// Business validation constants
const (
	MinServiceDurationMinutes   = 5
	MaxServiceDurationMinutes   = 480 // 8 hours
	MaxServicesPerBooking       = 20
	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
	ConfirmationCodeLength      = 4
	MaxShopBookingsRangeDays    = 92
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ResourceSelectorAny the caller lets the engine choose among all active resources
const ResourceSelectorAny = "any"
