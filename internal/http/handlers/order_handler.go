// README: Order REST handlers (intake, live board fetch, courier assignment, kitchen prep).
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/modules/order"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/modules/tracking"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/types"
)

type OrderHandler struct {
	orders   *order.Service
	tracking *tracking.Service
	bc       order.Broadcaster
	speedMps float64
}

func NewOrderHandler(orders *order.Service, trk *tracking.Service, bc order.Broadcaster, speedMps float64) *OrderHandler {
	return &OrderHandler{orders: orders, tracking: trk, bc: bc, speedMps: speedMps}
}

type createItemRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type createOrderRequest struct {
	Type         string              `json:"type"`
	ScheduledFor *time.Time          `json:"scheduledFor,omitempty"`
	Address      *addressRequest     `json:"address,omitempty"`
	Items        []createItemRequest `json:"items"`
}

type addressRequest struct {
	Street string  `json:"street"`
	City   string  `json:"city"`
	Zip    string  `json:"zip"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid body")
		return
	}
	cmd := order.CreateCommand{
		Type:         order.Type(req.Type),
		ScheduledFor: req.ScheduledFor,
	}
	if req.Address != nil {
		cmd.Address = &order.Address{
			Street:   req.Address.Street,
			City:     req.Address.City,
			Zip:      req.Address.Zip,
			Position: types.Point{Lat: req.Address.Lat, Lng: req.Address.Lng},
		}
	}
	for _, it := range req.Items {
		cmd.Items = append(cmd.Items, order.Item{
			ID:       types.ID(it.ID),
			Name:     it.Name,
			Quantity: it.Quantity,
		})
	}
	id, err := h.orders.Create(c.Request.Context(), cmd)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"id": string(id)})
}

func (h *OrderHandler) Get(c *gin.Context) {
	id := types.ID(c.Param("id"))
	o, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	resp := orderResponse(o)
	if o.Type == order.TypeDelivery && o.Address != nil {
		if sample, ok, err := h.tracking.LastPosition(c.Request.Context(), id); err == nil && ok {
			resp["lastPosition"] = sample
			resp["etaMinutes"] = tracking.EtaMinutes(sample.Position, o.Address.Position, h.speedMps)
		}
	}
	writeJSON(c, http.StatusOK, resp)
}

func (h *OrderHandler) ListLive(c *gin.Context) {
	orders, err := h.orders.ListLive(c.Request.Context())
	if err != nil {
		writeOrderError(c, err)
		return
	}
	out := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderResponse(o))
	}
	writeJSON(c, http.StatusOK, gin.H{"orders": out})
}

type assignRequest struct {
	CourierID string `json:"courierId"`
}

func (h *OrderHandler) AssignCourier(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CourierID == "" {
		writeError(c, http.StatusBadRequest, "missing courierId")
		return
	}
	err := h.orders.AssignCourier(c.Request.Context(), order.AssignCommand{
		OrderID:   types.ID(c.Param("id")),
		CourierID: types.ID(req.CourierID),
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	if h.bc != nil {
		h.bc.BroadcastLiveOrders()
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

func (h *OrderHandler) MarkItemPrepared(c *gin.Context) {
	err := h.orders.MarkItemPrepared(c.Request.Context(), order.PrepareCommand{
		OrderID: types.ID(c.Param("id")),
		ItemID:  types.ID(c.Param("itemId")),
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	if h.bc != nil {
		h.bc.BroadcastLiveOrders()
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

func orderResponse(o *order.Order) gin.H {
	items := make([]gin.H, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, gin.H{
			"id":               string(it.ID),
			"name":             it.Name,
			"quantity":         it.Quantity,
			"preparedQuantity": it.PreparedQuantity,
			"isPrepared":       it.Prepared(),
		})
	}
	resp := gin.H{
		"id":          string(o.ID),
		"type":        string(o.Type),
		"status":      string(o.Status),
		"items":       items,
		"allPrepared": o.AllPrepared(),
		"createdAt":   o.CreatedAt,
		"updatedAt":   o.UpdatedAt,
	}
	if o.ScheduledFor != nil {
		resp["scheduledFor"] = o.ScheduledFor
	}
	if o.CourierID != nil {
		resp["courierId"] = string(*o.CourierID)
	}
	if o.Address != nil {
		resp["address"] = gin.H{
			"street": o.Address.Street,
			"city":   o.Address.City,
			"zip":    o.Address.Zip,
			"lat":    o.Address.Position.Lat,
			"lng":    o.Address.Position.Lng,
		}
	}
	return resp
}
