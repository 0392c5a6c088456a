package eventbus

import "errors"

var (
	// ErrMarshalEvent возвращается, когда событие не сериализуется в JSON
	ErrMarshalEvent = errors.New("eventbus: failed to marshal event")

	// ErrPublish возвращается при ошибке записи в брокер
	ErrPublish = errors.New("eventbus: failed to publish event")
)
