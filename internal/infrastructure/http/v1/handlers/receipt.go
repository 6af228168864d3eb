package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"warungpos/internal/core/apperror"
	appctx "warungpos/internal/core/context"
	"warungpos/internal/domain/receipt"
	"warungpos/internal/infrastructure/http/v1/dto"
)

const dateLayout = "2006-01-02"

// ReceiptHandler serves committed receipts.
type ReceiptHandler struct {
	*BaseHandler
	service *receipt.Service
	history *receipt.History
	loc     *time.Location
}

// NewReceiptHandler creates a receipt handler.
func NewReceiptHandler(base *BaseHandler, service *receipt.Service, history *receipt.History, loc *time.Location) *ReceiptHandler {
	return &ReceiptHandler{BaseHandler: base, service: service, history: history, loc: loc}
}

// List handles GET /receipts.
func (h *ReceiptHandler) List(c *gin.Context) {
	var q dto.ReceiptListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	if q.Recent {
		h.OK(c, dto.NewListResponse(dto.FromReceipts(h.recent(c, q.Limit), h.loc)))
		return
	}

	filter, err := h.listFilter(q)
	if err != nil {
		h.Error(c, err)
		return
	}
	receipts, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromReceipts(receipts, h.loc)))
}

func (h *ReceiptHandler) listFilter(q dto.ReceiptListQuery) (receipt.ListFilter, error) {
	filter := receipt.ListFilter{CashierID: q.Cashier, Manual: q.Manual, Limit: q.Limit}
	if q.From != "" {
		from, err := time.ParseInLocation(dateLayout, q.From, h.loc)
		if err != nil {
			return filter, apperror.NewValidation("invalid date").WithDetail("field", "from")
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := time.ParseInLocation(dateLayout, q.To, h.loc)
		if err != nil {
			return filter, apperror.NewValidation("invalid date").WithDetail("field", "to")
		}
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return filter, apperror.NewValidation("from must not be after to")
	}
	return filter, nil
}

// recent returns the in-memory history. Cashiers only see their own receipts.
func (h *ReceiptHandler) recent(c *gin.Context, limit int) []receipt.Receipt {
	all := h.history.List(0)
	ctx := c.Request.Context()
	cashierID := appctx.GetCashierID(ctx)
	out := make([]receipt.Receipt, 0, len(all))
	for _, r := range all {
		if cashierID != "" && !appctx.IsAdmin(ctx) && r.CashierID != cashierID {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Get handles GET /receipts/:id.
func (h *ReceiptHandler) Get(c *gin.Context) {
	r, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromReceipt(r, h.loc))
}
