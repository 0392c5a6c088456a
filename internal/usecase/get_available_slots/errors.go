package get_available_slots

import "errors"

var (
	// ErrShopNotFound возвращается, когда салон не найден
	ErrShopNotFound = errors.New("get_available_slots: shop not found")

	// ErrResourceNotFound возвращается, когда мастер не найден в салоне
	ErrResourceNotFound = errors.New("get_available_slots: resource not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_available_slots: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_available_slots: internal error")
)
