package schedule

import (
	"sort"

	"microfinance-payments/internal/domain/money"

	"github.com/shopspring/decimal"
)

type ItemUpdate struct {
	ID         uint64
	ItemID     string
	Take       decimal.Decimal
	AmountPaid decimal.Decimal
	Status     Status
}

type Allocation struct {
	Updates   []ItemUpdate
	Allocated decimal.Decimal
	// Leftover is what remains once every item is covered.
	Leftover decimal.Decimal
}

// Allocate spreads amount over items, oldest due date first (ties broken by
// creation id), never putting more on an item than it still owes.
// Allocated+Leftover always equals amount. items is not modified.
func Allocate(items []Item, amount decimal.Decimal) (Allocation, error) {
	if err := money.RequirePositive(amount); err != nil {
		return Allocation{}, err
	}

	ordered := make([]Item, 0, len(items))
	for _, it := range items {
		if it.AmountPaid.GreaterThan(it.TotalDue) {
			return Allocation{}, ErrItemOverpaid
		}
		if it.Status == StatusPaid {
			continue
		}
		ordered = append(ordered, it)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].DueDate.Equal(ordered[j].DueDate) {
			return ordered[i].DueDate.Before(ordered[j].DueDate)
		}
		return ordered[i].ID < ordered[j].ID
	})

	out := Allocation{Allocated: decimal.Zero}
	remaining := amount
	for _, it := range ordered {
		if !remaining.IsPositive() {
			break
		}
		outstanding := it.Outstanding()
		if !outstanding.IsPositive() {
			continue
		}
		take := money.Min(remaining, outstanding)
		paid := it.AmountPaid.Add(take)
		out.Updates = append(out.Updates, ItemUpdate{
			ID:         it.ID,
			ItemID:     it.ItemID,
			Take:       take,
			AmountPaid: paid,
			Status:     DeriveStatus(paid, it.TotalDue, it.Status),
		})
		out.Allocated = out.Allocated.Add(take)
		remaining = remaining.Sub(take)
	}
	out.Leftover = remaining
	return out, nil
}
