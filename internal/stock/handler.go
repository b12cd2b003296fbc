package stock

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-dist/meridian/internal/platform/httpx"
	"github.com/meridian-dist/meridian/internal/shared"
)

// Handler manages stock HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/levels", h.listLevels)
	r.Get("/levels/low", h.listLowStock)
	r.Get("/level", h.getLevel)
	r.Put("/levels", h.setLevel)
	r.Get("/movements", h.listMovements)
	r.Get("/movements/export", h.exportMovements)
	r.Patch("/movements/{id}", h.updateMovement)
	r.Post("/movements/inbound", h.recordInbound)
	r.Post("/movements/outbound", h.recordOutbound)
	r.Post("/movements/transfers", h.recordTransfer)
	r.Get("/corrections", h.listCorrections)
	r.Post("/corrections", h.adjust)
}

type inboundRequest struct {
	ProductID       int64  `json:"product_id" validate:"required,gt=0"`
	LocationID      int64  `json:"location_id" validate:"required,gt=0"`
	Quantity        int64  `json:"quantity" validate:"required,gt=0"`
	UnitType        string `json:"unit_type,omitempty"`
	ReferenceNumber string `json:"reference_number,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

type outboundRequest struct {
	ProductID  int64  `json:"product_id" validate:"required,gt=0"`
	LocationID int64  `json:"location_id" validate:"required,gt=0"`
	Quantity   int64  `json:"quantity" validate:"required,gt=0"`
	UnitType   string `json:"unit_type,omitempty"`
	OrderID    int64  `json:"order_id,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type transferRequest struct {
	ProductID      int64  `json:"product_id" validate:"required,gt=0"`
	FromLocationID int64  `json:"from_location_id" validate:"required,gt=0"`
	ToLocationID   int64  `json:"to_location_id" validate:"required,gt=0"`
	Quantity       int64  `json:"quantity" validate:"required,gt=0"`
	UnitType       string `json:"unit_type,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type correctionRequest struct {
	ProductID  int64  `json:"product_id" validate:"required,gt=0"`
	LocationID int64  `json:"location_id" validate:"required,gt=0"`
	Delta      int64  `json:"delta" validate:"required"`
	Reason     string `json:"reason" validate:"required,min=3"`
}

type setLevelRequest struct {
	ProductID  int64 `json:"product_id" validate:"required,gt=0"`
	LocationID int64 `json:"location_id" validate:"required,gt=0"`
	Quantity   int64 `json:"quantity" validate:"gte=0"`
}

type updateMovementRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) recordInbound(w http.ResponseWriter, r *http.Request) {
	actorID, err := shared.ActorID(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}
	var req inboundRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	m, err := h.service.RecordInbound(r.Context(), InboundInput{
		ProductID:       req.ProductID,
		LocationID:      req.LocationID,
		Quantity:        req.Quantity,
		UnitType:        req.UnitType,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
		ActorID:         actorID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movementResponse(m))
}

func (h *Handler) recordOutbound(w http.ResponseWriter, r *http.Request) {
	actorID, err := shared.ActorID(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}
	var req outboundRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	m, err := h.service.RecordOutbound(r.Context(), OutboundInput{
		ProductID:  req.ProductID,
		LocationID: req.LocationID,
		Quantity:   req.Quantity,
		UnitType:   req.UnitType,
		OrderID:    req.OrderID,
		Notes:      req.Notes,
		ActorID:    actorID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movementResponse(m))
}

func (h *Handler) recordTransfer(w http.ResponseWriter, r *http.Request) {
	actorID, err := shared.ActorID(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}
	var req transferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	m, err := h.service.RecordTransfer(r.Context(), TransferInput{
		ProductID:      req.ProductID,
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		Quantity:       req.Quantity,
		UnitType:       req.UnitType,
		Notes:          req.Notes,
		ActorID:        actorID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movementResponse(m))
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	actorID, err := shared.ActorID(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}
	var req correctionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c, err := h.service.AdjustQuantity(r.Context(), CorrectionInput{
		ProductID:  req.ProductID,
		LocationID: req.LocationID,
		Delta:      req.Delta,
		Reason:     req.Reason,
		ActorID:    actorID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":           c.ID,
		"old_quantity": c.OldQuantity,
		"new_quantity": c.NewQuantity,
		"adjustment":   c.Adjustment,
		"type":         c.Type,
	})
}

func (h *Handler) setLevel(w http.ResponseWriter, r *http.Request) {
	if _, err := shared.ActorID(r.Context()); err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}
	var req setLevelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.SetQuantity(r.Context(), req.ProductID, req.LocationID, req.Quantity); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"product_id": req.ProductID, "location_id": req.LocationID, "quantity": req.Quantity})
}

func (h *Handler) updateMovement(w http.ResponseWriter, r *http.Request) {
	actorID, err := shared.ActorID(r.Context())
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid movement id")
		return
	}
	var req updateMovementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	m, err := h.service.UpdateMovement(r.Context(), id, req.Quantity, actorID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movementResponse(m))
}

func (h *Handler) getLevel(w http.ResponseWriter, r *http.Request) {
	productID, _ := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	locationID, _ := strconv.ParseInt(r.URL.Query().Get("location_id"), 10, 64)
	if productID <= 0 || locationID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "product_id and location_id are required")
		return
	}
	level, err := h.service.GetLevel(r.Context(), productID, locationID)
	if err != nil {
		if errors.Is(err, ErrLevelNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no stock recorded for this product and location")
			return
		}
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"product_id":   level.ProductID,
		"location_id":  level.LocationID,
		"quantity":     level.Quantity,
		"last_updated": level.LastUpdated,
	})
}

func (h *Handler) listLevels(w http.ResponseWriter, r *http.Request) {
	locationID, _ := strconv.ParseInt(r.URL.Query().Get("location_id"), 10, 64)
	levels, err := h.service.ListLevels(r.Context(), locationID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"levels": levels})
}

func (h *Handler) listLowStock(w http.ResponseWriter, r *http.Request) {
	levels, err := h.service.ListLowStock(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"levels": levels})
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.service.ListMovements(r.Context(), movementFilterFromQuery(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(movements))
	for _, m := range movements {
		out = append(out, movementResponse(m))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movements": out})
}

func (h *Handler) exportMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.service.ListMovements(r.Context(), movementFilterFromQuery(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="stock_movements.csv"`)
	if err := WriteMovementsCSV(w, movements); err != nil {
		h.logger.Error("export movements", slog.Any("error", err))
	}
}

func (h *Handler) listCorrections(w http.ResponseWriter, r *http.Request) {
	productID, _ := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	corrections, err := h.service.ListCorrections(r.Context(), productID, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"corrections": corrections})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoSuchStock):
		httpx.Problem(w, http.StatusConflict, "No Such Stock", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidAdjustment),
		errors.Is(err, ErrSameLocation), errors.Is(err, ErrReasonRequired):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrMovementNotFound), errors.Is(err, ErrLevelNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("stock operation failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func movementFilterFromQuery(r *http.Request) MovementFilter {
	productID, _ := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	locationID, _ := strconv.ParseInt(r.URL.Query().Get("location_id"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return MovementFilter{
		ProductID:  productID,
		LocationID: locationID,
		Type:       MovementType(r.URL.Query().Get("type")),
		Limit:      limit,
	}
}

func movementResponse(m Movement) map[string]any {
	resp := map[string]any{
		"id":            m.ID,
		"product_id":    m.ProductID,
		"location_id":   m.LocationID,
		"type":          m.Type,
		"quantity":      m.Quantity,
		"performed_by":  m.PerformedBy,
		"movement_date": m.MovementDate,
	}
	if m.UnitType != "" {
		resp["unit_type"] = m.UnitType
	}
	if m.FromLocationID != 0 {
		resp["from_location_id"] = m.FromLocationID
	}
	if m.ToLocationID != 0 {
		resp["to_location_id"] = m.ToLocationID
	}
	if m.OrderID != 0 {
		resp["order_id"] = m.OrderID
	}
	if m.ReferenceNumber != "" {
		resp["reference_number"] = m.ReferenceNumber
	}
	if m.Notes != "" {
		resp["notes"] = m.Notes
	}
	return resp
}
