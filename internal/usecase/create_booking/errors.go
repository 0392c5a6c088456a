package create_booking

import "errors"

var (
	// ErrShopNotFound возвращается, когда салон не найден
	ErrShopNotFound = errors.New("create_booking: shop not found")

	// ErrResourceNotFound возвращается, когда мастер не найден в салоне
	ErrResourceNotFound = errors.New("create_booking: resource not found")

	// ErrUserNotFound возвращается, когда клиент не найден в UserService
	ErrUserNotFound = errors.New("create_booking: user not found")

	// ErrAccessDenied возвращается, когда walk-in или блокировку создает не владелец салона
	ErrAccessDenied = errors.New("create_booking: access denied")

	// ErrSlotNotAvailable возвращается, когда ни один подходящий мастер не свободен в это время
	ErrSlotNotAvailable = errors.New("create_booking: slot is not available")

	// ErrInvalidSchedule возвращается, когда расписание выбранного мастера настроено некорректно
	ErrInvalidSchedule = errors.New("create_booking: invalid resource schedule")

	// ErrPastOrTooFarAhead возвращается, когда дата или время нарушают окно бронирования салона
	ErrPastOrTooFarAhead = errors.New("create_booking: booking time is in the past or too far ahead")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
