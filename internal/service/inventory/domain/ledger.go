// internal/service/inventory/domain/ledger.go
package domain

import (
	"context"
	"sync"
)

// StockOperation 定义了账面库存的三种变更方式
type StockOperation string

const (
	OpSet      StockOperation = "set"
	OpAdd      StockOperation = "add"
	OpSubtract StockOperation = "subtract"
)

// StockLedger 持有商品 (及规格) 的权威账面库存，
// 对目录仓储暴露读和读改写两类操作。
//
// Mutate 的 读-改-写 往返会真正落到目录存储上，属于慢路径；
// 为避免丢失更新，同一商品的写入由账本内的互斥锁串行化。
// 预占的准入判定不走这条路径，它在注册表的内存临界区内完成。
type StockLedger struct {
	catalog CatalogStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex // productID -> 写锁
}

func NewStockLedger(catalog CatalogStore) *StockLedger {
	return &StockLedger{
		catalog: catalog,
		locks:   make(map[string]*sync.Mutex),
	}
}

// productLock 返回指定商品的写锁，必要时创建。
func (l *StockLedger) productLock(productID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[productID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[productID] = lock
	}
	return lock
}

// GetStock 解析键并返回账面库存。
// 指定了规格时按尺码/颜色匹配 (未指定的维度视为通配)，
// 返回命中规格的库存；基础键返回商品总库存。
func (l *StockLedger) GetStock(ctx context.Context, key StockKey) (StockLevelInfo, error) {
	product, err := l.catalog.GetProduct(ctx, key.ProductID)
	if err != nil {
		return StockLevelInfo{}, err
	}

	if key.Variant.IsZero() {
		return StockLevelInfo{Total: product.Stock, Active: product.Active}, nil
	}

	for i := range product.Variants {
		v := &product.Variants[i]
		if key.Variant.Matches(v.Size, v.Color) {
			return StockLevelInfo{Total: v.Stock, Active: product.Active}, nil
		}
	}
	return StockLevelInfo{}, ErrVariantNotFound
}

// Mutate 对账面库存执行一次读改写，返回变更前后的数值。
// Subtract 的结果在 0 处截断，账面库存永不为负。
// 变更规格库存时，商品总库存重算为全部规格之和。
func (l *StockLedger) Mutate(ctx context.Context, key StockKey, op StockOperation, amount int) (oldStock, newStock int, err error) {
	lock := l.productLock(key.ProductID)
	lock.Lock()
	defer lock.Unlock()

	product, err := l.catalog.GetProduct(ctx, key.ProductID)
	if err != nil {
		return 0, 0, err
	}

	if key.Variant.IsZero() {
		oldStock = product.Stock
		newStock, err = apply(op, oldStock, amount)
		if err != nil {
			return 0, 0, err
		}
		product.Stock = newStock
	} else {
		variant := matchVariant(product, key.Variant)
		if variant == nil {
			return 0, 0, ErrVariantNotFound
		}
		oldStock = variant.Stock
		newStock, err = apply(op, oldStock, amount)
		if err != nil {
			return 0, 0, err
		}
		variant.Stock = newStock

		// 规格变动后，商品聚合库存 = 各规格库存之和。
		var total int
		for i := range product.Variants {
			total += product.Variants[i].Stock
		}
		product.Stock = total
	}

	if err := l.catalog.SaveProduct(ctx, product); err != nil {
		return 0, 0, err
	}
	return oldStock, newStock, nil
}

func matchVariant(product *Product, key VariantKey) *Variant {
	for i := range product.Variants {
		v := &product.Variants[i]
		if key.Matches(v.Size, v.Color) {
			return v
		}
	}
	return nil
}

func apply(op StockOperation, current, amount int) (int, error) {
	switch op {
	case OpSet:
		return amount, nil
	case OpAdd:
		return current + amount, nil
	case OpSubtract:
		next := current - amount
		if next < 0 {
			next = 0
		}
		return next, nil
	default:
		return 0, ErrInvalidOperation
	}
}
