package infrastructure

import (
	"gorm.io/gorm"
)

// ProductModel 对应数据库中的 product 表
type ProductModel struct {
	gorm.Model
	ProductID string `gorm:"uniqueIndex;size:64"`
	Name      string
	Price     float64 `gorm:"type:decimal(10,2)"`
	Stock     int
	Active    bool `gorm:"default:true"`
	// 关联关系
	Variants []ProductVariantModel `gorm:"foreignKey:ProductRef"`
}

// TableName 指定 GORM 应该使用的表名
func (ProductModel) TableName() string {
	return "product"
}

// ProductVariantModel 对应数据库中的 product_variant 表
type ProductVariantModel struct {
	gorm.Model
	ProductRef uint   `gorm:"index"`
	Size       string `gorm:"size:32"`
	Color      string `gorm:"size:32"`
	Stock      int
}

// TableName 指定 GORM 应该使用的表名
func (ProductVariantModel) TableName() string {
	return "product_variant"
}
