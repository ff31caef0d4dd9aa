package infrastructure

import (
	"storefront/internal/service/inventory/domain"
)

// ToDomainProduct 将数据库模型转换为领域模型
func ToDomainProduct(model *ProductModel) *domain.Product {
	if model == nil {
		return nil
	}
	variants := make([]domain.Variant, len(model.Variants))
	for i, v := range model.Variants {
		variants[i] = domain.Variant{Size: v.Size, Color: v.Color, Stock: v.Stock}
	}
	return &domain.Product{
		ID:       model.ProductID,
		Name:     model.Name,
		Price:    model.Price,
		Stock:    model.Stock,
		Active:   model.Active,
		Variants: variants,
	}
}
