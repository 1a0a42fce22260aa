package domain

import "errors"

var (
	ErrValidation   = errors.New("validation failed")
	ErrPersistence  = errors.New("persistence failed")
	ErrDeliveryPush = errors.New("delivery push failed")
)

const HistoryMaxLimit = 100

// ClampHistoryLimit normaliza el limite pedido al rango (0, HistoryMaxLimit].
func ClampHistoryLimit(limit int) int {
	if limit <= 0 || limit > HistoryMaxLimit {
		return HistoryMaxLimit
	}
	return limit
}
