// internal/service/inventory/domain/repository.go
package domain

import "context"

// CatalogStore 是商品目录的仓储接口，库存子系统对账面库存的
// 一切读写都经由它完成，由基础设施层实现 (GORM/MySQL)。
type CatalogStore interface {
	// GetProduct 读取一条完整的商品记录，含全部规格。
	// 不存在时返回 ErrProductNotFound。
	GetProduct(ctx context.Context, productID string) (*Product, error)

	// SaveProduct 整条覆盖写回商品记录 (StockLedger.Mutate 使用)。
	SaveProduct(ctx context.Context, product *Product) error

	// ListProducts 枚举全部商品，供库存报表聚合使用。
	ListProducts(ctx context.Context) ([]*Product, error)
}
