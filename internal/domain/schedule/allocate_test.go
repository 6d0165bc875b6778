package schedule

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"microfinance-payments/internal/domain/money"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, dd int) time.Time { return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC) }

func twoItems() []Item {
	return []Item{
		// passed out of order on purpose
		{ID: 2, ItemID: "feb", DueDate: day(2024, 2, 1), TotalDue: d("500"), AmountPaid: d("0"), Status: StatusPending},
		{ID: 1, ItemID: "jan", DueDate: day(2024, 1, 1), TotalDue: d("1000"), AmountPaid: d("0"), Status: StatusPending},
	}
}

func TestAllocate_OldestFirst(t *testing.T) {
	got, err := Allocate(twoItems(), d("1200"))
	if err != nil {
		t.Fatalf("Allocate err: %v", err)
	}
	if len(got.Updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(got.Updates))
	}
	first, second := got.Updates[0], got.Updates[1]
	if first.ItemID != "jan" || first.Status != StatusPaid || !first.AmountPaid.Equal(d("1000")) {
		t.Fatalf("first update = %+v", first)
	}
	if second.ItemID != "feb" || second.Status != StatusPartial || !second.AmountPaid.Equal(d("200")) {
		t.Fatalf("second update = %+v", second)
	}
	if !got.Leftover.IsZero() {
		t.Fatalf("leftover = %s, want 0", got.Leftover)
	}
}

func TestAllocate_Overflow(t *testing.T) {
	got, err := Allocate(twoItems(), d("2000"))
	if err != nil {
		t.Fatalf("Allocate err: %v", err)
	}
	for _, u := range got.Updates {
		if u.Status != StatusPaid {
			t.Fatalf("item %s status = %s, want paid", u.ItemID, u.Status)
		}
	}
	if !got.Leftover.Equal(d("500")) {
		t.Fatalf("leftover = %s, want 500", got.Leftover)
	}
	if !got.Allocated.Equal(d("1500")) {
		t.Fatalf("allocated = %s, want 1500", got.Allocated)
	}
}

func TestAllocate_StopsWhenExhausted(t *testing.T) {
	got, err := Allocate(twoItems(), d("400"))
	if err != nil {
		t.Fatalf("Allocate err: %v", err)
	}
	if len(got.Updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(got.Updates))
	}
	if got.Updates[0].Status != StatusPartial || !got.Updates[0].AmountPaid.Equal(d("400")) {
		t.Fatalf("update = %+v", got.Updates[0])
	}
}

func TestAllocate_TieBreakByID(t *testing.T) {
	items := []Item{
		{ID: 9, ItemID: "later", DueDate: day(2024, 3, 1), TotalDue: d("100"), AmountPaid: d("0"), Status: StatusPending},
		{ID: 4, ItemID: "earlier", DueDate: day(2024, 3, 1), TotalDue: d("100"), AmountPaid: d("0"), Status: StatusPending},
	}
	got, err := Allocate(items, d("50"))
	if err != nil {
		t.Fatalf("Allocate err: %v", err)
	}
	if got.Updates[0].ItemID != "earlier" {
		t.Fatalf("first item = %s, want earlier", got.Updates[0].ItemID)
	}
}

func TestAllocate_PartialItemContinues(t *testing.T) {
	items := []Item{
		{ID: 1, ItemID: "a", DueDate: day(2024, 1, 1), TotalDue: d("100"), AmountPaid: d("60"), Status: StatusPartial},
	}
	got, err := Allocate(items, d("40"))
	if err != nil {
		t.Fatalf("Allocate err: %v", err)
	}
	if got.Updates[0].Status != StatusPaid || !got.Updates[0].Take.Equal(d("40")) {
		t.Fatalf("update = %+v", got.Updates[0])
	}
}

func TestAllocate_SkipsPaidItems(t *testing.T) {
	items := []Item{
		{ID: 1, ItemID: "done", DueDate: day(2024, 1, 1), TotalDue: d("100"), AmountPaid: d("100"), Status: StatusPaid},
		{ID: 2, ItemID: "open", DueDate: day(2024, 2, 1), TotalDue: d("100"), AmountPaid: d("0"), Status: StatusOverdue},
	}
	got, err := Allocate(items, d("10"))
	if err != nil {
		t.Fatalf("Allocate err: %v", err)
	}
	if len(got.Updates) != 1 || got.Updates[0].ItemID != "open" {
		t.Fatalf("updates = %+v", got.Updates)
	}
	// partial payment on an overdue item moves it to partial
	if got.Updates[0].Status != StatusPartial {
		t.Fatalf("status = %s", got.Updates[0].Status)
	}
}

func TestAllocate_EmptyItemsAllLeftover(t *testing.T) {
	got, err := Allocate(nil, d("75.50"))
	if err != nil {
		t.Fatalf("Allocate err: %v", err)
	}
	if len(got.Updates) != 0 || !got.Leftover.Equal(d("75.50")) {
		t.Fatalf("got %+v", got)
	}
}

func TestAllocate_InvalidAmount(t *testing.T) {
	for _, amt := range []string{"0", "-1"} {
		if _, err := Allocate(twoItems(), d(amt)); !errors.Is(err, money.ErrInvalidAmount) {
			t.Fatalf("amount %s: want ErrInvalidAmount, got %v", amt, err)
		}
	}
}

func TestAllocate_RejectsOverpaidInput(t *testing.T) {
	items := []Item{{ID: 1, DueDate: day(2024, 1, 1), TotalDue: d("100"), AmountPaid: d("101"), Status: StatusPartial}}
	if _, err := Allocate(items, d("1")); !errors.Is(err, ErrItemOverpaid) {
		t.Fatalf("want ErrItemOverpaid, got %v", err)
	}
}

func TestAllocate_DoesNotMutateInput(t *testing.T) {
	items := twoItems()
	if _, err := Allocate(items, d("1200")); err != nil {
		t.Fatalf("Allocate err: %v", err)
	}
	if items[0].ItemID != "feb" || !items[1].AmountPaid.IsZero() {
		t.Fatalf("input was modified: %+v", items)
	}
}

// Conservation and the per-item cap over random schedules.
func TestAllocate_ConservesMoney(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 500; round++ {
		n := rng.Intn(6)
		items := make([]Item, 0, n)
		for i := 0; i < n; i++ {
			total := decimal.New(int64(rng.Intn(100000)+1), -2)
			paid := decimal.New(rng.Int63n(total.Shift(2).IntPart()+1), -2)
			items = append(items, Item{
				ID:         uint64(i + 1),
				DueDate:    day(2024, time.Month(rng.Intn(12)+1), rng.Intn(28)+1),
				TotalDue:   total,
				AmountPaid: paid,
				Status:     DeriveStatus(paid, total, StatusPending),
			})
		}
		amount := decimal.New(int64(rng.Intn(200000)+1), -2)

		got, err := Allocate(items, amount)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		sum := decimal.Zero
		byID := make(map[uint64]Item, len(items))
		for _, it := range items {
			byID[it.ID] = it
		}
		for _, u := range got.Updates {
			sum = sum.Add(u.Take)
			if u.AmountPaid.GreaterThan(byID[u.ID].TotalDue) {
				t.Fatalf("round %d: item %d over-allocated: %s > %s", round, u.ID, u.AmountPaid, byID[u.ID].TotalDue)
			}
		}
		if !sum.Add(got.Leftover).Equal(amount) {
			t.Fatalf("round %d: takes %s + leftover %s != %s", round, sum, got.Leftover, amount)
		}
		if got.Leftover.IsNegative() {
			t.Fatalf("round %d: negative leftover %s", round, got.Leftover)
		}
	}
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		paid, total string
		prev, want  Status
	}{
		{"100", "100", StatusPending, StatusPaid},
		{"1", "100", StatusPending, StatusPartial},
		{"0", "100", StatusOverdue, StatusOverdue},
		{"0", "100", StatusPending, StatusPending},
	}
	for _, tc := range cases {
		if got := DeriveStatus(d(tc.paid), d(tc.total), tc.prev); got != tc.want {
			t.Fatalf("DeriveStatus(%s,%s,%s) = %s, want %s", tc.paid, tc.total, tc.prev, got, tc.want)
		}
	}
}
