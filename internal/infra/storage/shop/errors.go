package shop

import "errors"

var (
	// ErrShopNotFound возвращается, когда салон не найден
	ErrShopNotFound = errors.New("shop.repository: shop not found")

	// ErrResourceNotFound возвращается, когда мастер не найден в салоне
	ErrResourceNotFound = errors.New("shop.repository: resource not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("shop.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("shop.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("shop.repository: failed to scan row")

	// ErrDecodeBreaks возвращается, когда JSON с перерывами не разбирается
	ErrDecodeBreaks = errors.New("shop.repository: failed to decode breaks")
)
