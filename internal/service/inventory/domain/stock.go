// internal/service/inventory/domain/stock.go
package domain

import "fmt"

// VariantKey 标识商品的一个规格维度 (尺码 + 颜色)。
// 零值表示基础商品本身，没有规格。
type VariantKey struct {
	Size  string
	Color string
}

// IsZero 判断是否为基础商品 (无规格)。
func (v VariantKey) IsZero() bool {
	return v.Size == "" && v.Color == ""
}

// Matches 判断一个目录规格是否命中本查询键。
// 未指定的维度视为通配：只按尺码查询时，任意颜色都可命中。
func (v VariantKey) Matches(size, color string) bool {
	if v.Size != "" && v.Size != size {
		return false
	}
	if v.Color != "" && v.Color != color {
		return false
	}
	return true
}

// StockKey 是库存子系统内部的复合主键 (商品 + 规格)。
// 与字符串拼接键不同，结构化键不会让 "any" 与空规格值互相碰撞。
type StockKey struct {
	ProductID string
	Variant   VariantKey
}

// CacheField 仅用于生成缓存键的后缀，不参与任何身份比较。
func (k StockKey) CacheField() string {
	return fmt.Sprintf("%s:%s:%s", k.ProductID, k.Variant.Size, k.Variant.Color)
}

// Variant 是目录中一条规格记录，拥有自己独立的库存数。
type Variant struct {
	Size  string
	Color string
	Stock int
}

// Product 是目录服务拥有的权威商品记录。
// 库存子系统只通过 CatalogStore 读写它，从不直接持有。
type Product struct {
	ID       string
	Name     string
	Price    float64
	Stock    int
	Active   bool
	Variants []Variant
}

// StockLevelInfo 是一次账面库存读取的结果。
type StockLevelInfo struct {
	Total  int
	Active bool
}
