package queries

import (
	"context"
	"time"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

// SalesSummaryQuery selects the reporting window. Range takes "week" or
// "month"; an explicit Start/End pair overrides it. The default window is
// the trailing week.
type SalesSummaryQuery struct {
	Range string
	Start time.Time
	End   time.Time
}

func (q SalesSummaryQuery) Validate() error {
	switch q.Range {
	case "", "week", "month":
	default:
		return domain.ValidationError("range must be week or month")
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.End.Before(q.Start) {
		return domain.ValidationError("end must not precede start")
	}
	return nil
}

// Window resolves the query into a concrete [since, until] pair.
func (q SalesSummaryQuery) Window(now time.Time) (time.Time, time.Time) {
	if !q.Start.IsZero() && !q.End.IsZero() {
		return q.Start, q.End
	}

	days := 6
	if q.Range == "month" {
		days = 29
	}
	return now.AddDate(0, 0, -days), now
}

type SalesSummaryQueryHandler struct {
	orders ports.OrderRepository
}

func NewSalesSummaryQueryHandler(orders ports.OrderRepository) *SalesSummaryQueryHandler {
	return &SalesSummaryQueryHandler{orders: orders}
}

func (h *SalesSummaryQueryHandler) Handle(ctx context.Context, query SalesSummaryQuery) (*ports.SalesSummary, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	since, until := query.Window(time.Now().UTC())
	return h.orders.Summary(ctx, since, until)
}
