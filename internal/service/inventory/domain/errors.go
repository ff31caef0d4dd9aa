// internal/service/inventory/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrVariantNotFound      = errors.New("product variant not found")
	ErrProductInactive      = errors.New("product is inactive")
	ErrInvalidOperation     = errors.New("unknown stock operation")
	ErrDuplicateReservation = errors.New("reservation id already exists")
	ErrInvalidQuantity      = errors.New("quantity must be a positive number")
)

// InsufficientStockError 表示预占请求超出了当前可售库存。
// 调用方 (购物车/订单流程) 根据 Available 决定对用户的提示文案。
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available, %d requested", e.Available, e.Requested)
}
