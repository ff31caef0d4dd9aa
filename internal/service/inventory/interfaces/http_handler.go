// internal/service/inventory/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"storefront/internal/service/inventory/application"
	"storefront/internal/service/inventory/domain"
)

// InventoryHandler 封装了库存服务的 HTTP 处理器。
// 认证、限流等外围关注点属于上层网关，不在这里处理。
type InventoryHandler struct {
	service *application.InventoryService
}

// NewInventoryHandler 创建一个新的 HTTP 处理器实例
func NewInventoryHandler(service *application.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *InventoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/check_availability", h.checkAvailability)
	mux.HandleFunc("/reserve_stock", h.reserveStock)
	mux.HandleFunc("/release_reservation", h.releaseReservation)
	mux.HandleFunc("/update_stock", h.updateStock)
	mux.HandleFunc("/batch_update_stock", h.batchUpdateStock)
	mux.HandleFunc("/inventory_report", h.inventoryReport)
}

func (h *InventoryHandler) checkAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	quantity, err := intParam(r.URL.Query(), "quantity", 1)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if quantity <= 0 {
		quantity = 1 // 默认数量
	}

	result, err := h.service.CheckAvailability(ctx, r.URL.Query().Get("productId"), quantity, variantFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *InventoryHandler) reserveStock(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	q := r.URL.Query()

	reservationID := q.Get("reservationId")
	if reservationID == "" {
		reservationID = uuid.New().String()
	}
	quantity, err := intParam(q, "quantity", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ttlSeconds, err := intParam(q, "ttlSeconds", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	req := &application.ReserveStockRequest{
		ReservationID: reservationID,
		ProductID:     q.Get("productId"),
		Size:          q.Get("size"),
		Color:         q.Get("color"),
		Quantity:      quantity,
		TTL:           time.Duration(ttlSeconds) * time.Second,
	}
	result, err := h.service.ReserveStock(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *InventoryHandler) releaseReservation(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	q := r.URL.Query()

	result, err := h.service.ReleaseReservation(ctx, q.Get("reservationId"), q.Get("productId"), variantFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *InventoryHandler) updateStock(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	q := r.URL.Query()

	quantity, err := intParam(q, "quantity", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	req := &application.UpdateStockRequest{
		ProductID: q.Get("productId"),
		Size:      q.Get("size"),
		Color:     q.Get("color"),
		Operation: domain.StockOperation(q.Get("operation")),
		Quantity:  quantity,
		Reason:    q.Get("reason"),
	}
	result, err := h.service.UpdateStock(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *InventoryHandler) batchUpdateStock(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var updates []application.UpdateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.service.BatchUpdateStock(ctx, updates))
}

func (h *InventoryHandler) inventoryReport(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	report, err := h.service.GenerateInventoryReport(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// extract 从请求头中提取追踪上下文。
func extract(r *http.Request) context.Context {
	propagator := otel.GetTextMapPropagator()
	return propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

// intParam 解析整型查询参数。参数缺失时返回 def，无法解析时报错，
// 让调用方以 400 拒绝，而不是静默退化成 0。
func intParam(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return value, nil
}

func variantFrom(r *http.Request) domain.VariantKey {
	q := r.URL.Query()
	return domain.VariantKey{Size: q.Get("size"), Color: q.Get("color")}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zlog.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError 将领域错误翻译为 HTTP 状态码。
func writeError(w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":     insufficient.Error(),
			"available": insufficient.Available,
			"requested": insufficient.Requested,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrVariantNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateReservation), errors.Is(err, domain.ErrProductInactive):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidOperation), errors.Is(err, domain.ErrInvalidQuantity):
		status = http.StatusBadRequest
	default:
		zlog.Error().Err(err).Msg("inventory request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
