package domain

import (
	"testing"
	"time"
)

func TestBorrowRecord_DaysLate(t *testing.T) {
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &BorrowRecord{Status: BorrowActive, DueDate: due}

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"before due date", due.Add(-48 * time.Hour), 0},
		{"exactly due", due, 0},
		{"five days late", due.Add(5 * 24 * time.Hour), 5},
		{"partial day rounds up", due.Add(36 * time.Hour), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rec.DaysLate(tt.now); got != tt.want {
				t.Errorf("DaysLate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBorrowRecord_CalculateFine(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := &BorrowRecord{Status: BorrowActive, DueDate: due}

	if fine := rec.CalculateFine(due.Add(5*24*time.Hour), 1.0); fine != 5.0 {
		t.Errorf("fine for 5 days late = %v, want 5.0", fine)
	}
	if fine := rec.CalculateFine(due.Add(-time.Hour), 1.0); fine != 0 {
		t.Errorf("fine before due date = %v, want 0", fine)
	}
	if fine := rec.CalculateFine(due.Add(3*24*time.Hour), 0.5); fine != 1.5 {
		t.Errorf("fine with 0.5/day rate = %v, want 1.5", fine)
	}
}

func TestBorrowRecord_IsOverdue(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	active := &BorrowRecord{Status: BorrowActive, DueDate: due}
	if !active.IsOverdue(due.Add(time.Hour)) {
		t.Error("active record past due date should be overdue")
	}
	if active.IsOverdue(due.Add(-time.Hour)) {
		t.Error("active record before due date should not be overdue")
	}

	ret := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	returned := &BorrowRecord{Status: BorrowReturned, DueDate: due, ReturnDate: &ret}
	if returned.IsOverdue(due.Add(time.Hour)) {
		t.Error("returned record should never be overdue")
	}
}

func TestBook_StockStatus(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		available int
		want      AvailabilityStatus
	}{
		{"out of stock", 10, 0, StockOut},
		{"low stock", 10, 1, StockLow},
		{"boundary at twenty percent", 10, 2, StockAvailable},
		{"fully stocked", 10, 10, StockAvailable},
		{"single copy available", 1, 1, StockAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Book{TotalCopies: tt.total, AvailableCopies: tt.available}
			if got := b.StockStatus(); got != tt.want {
				t.Errorf("StockStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}
