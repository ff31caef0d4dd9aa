package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"storefront/internal/service/inventory/domain"
)

// GormCatalogRepository 是 domain.CatalogStore 的 GORM 实现。
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository 创建一个新的 GORM 仓储实例
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// GetProduct 使用 GORM 从数据库中查找商品，并预加载全部规格。
func (r *GormCatalogRepository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var model ProductModel
	err := r.db.WithContext(ctx).Preload("Variants").Where("product_id = ?", productID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, errors.Wrapf(err, "query product %s", productID)
	}
	return ToDomainProduct(&model), nil
}

// SaveProduct 将商品记录整条写回数据库。
// 库存子系统是这些字段的唯一写入方，整条覆盖不会丢别人的更新。
func (r *GormCatalogRepository) SaveProduct(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model ProductModel
		if err := tx.Where("product_id = ?", product.ID).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrProductNotFound
			}
			return errors.Wrapf(err, "load product %s for save", product.ID)
		}

		updates := map[string]interface{}{
			"name":   product.Name,
			"price":  product.Price,
			"stock":  product.Stock,
			"active": product.Active,
		}
		if err := tx.Model(&model).Updates(updates).Error; err != nil {
			return errors.Wrapf(err, "update product %s", product.ID)
		}

		for _, v := range product.Variants {
			err := tx.Model(&ProductVariantModel{}).
				Where("product_ref = ? AND size = ? AND color = ?", model.ID, v.Size, v.Color).
				Update("stock", v.Stock).Error
			if err != nil {
				return errors.Wrapf(err, "update variant %s/%s of product %s", v.Size, v.Color, product.ID)
			}
		}
		return nil
	})
}

// ListProducts 枚举全部商品，供报表聚合使用。
func (r *GormCatalogRepository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	var models []*ProductModel
	if err := r.db.WithContext(ctx).Preload("Variants").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	products := make([]*domain.Product, len(models))
	for i, m := range models {
		products[i] = ToDomainProduct(m)
	}
	return products, nil
}

// AutoMigrate 建表，仅在开发/测试环境使用。
func (r *GormCatalogRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&ProductModel{}, &ProductVariantModel{})
}
