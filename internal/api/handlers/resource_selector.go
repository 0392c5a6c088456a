package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// ErrInvalidResourceSelector resourceId не "any" и не положительное число
var ErrInvalidResourceSelector = errors.New("resourceId must be \"any\" or a positive integer")

// ParseResourceSelector разбирает resourceId из query: "any" или пусто - nil (любой мастер)
func ParseResourceSelector(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, domain.ResourceSelectorAny) {
		return nil, nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrInvalidResourceSelector
	}
	return &id, nil
}

// ResourceSelector resourceId в JSON: "any", число или число строкой
type ResourceSelector struct {
	ID *int64 // nil - любой мастер
}

func (s *ResourceSelector) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		s.ID = nil
		return nil
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return ErrInvalidResourceSelector
		}
	} else {
		raw = string(data)
	}

	id, err := ParseResourceSelector(raw)
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}
