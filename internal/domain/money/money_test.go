package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRequirePositive(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"0.01", false},
		{"100", false},
		{"0", true},
		{"-5", true},
	}
	for _, tc := range cases {
		err := RequirePositive(decimal.RequireFromString(tc.in))
		if tc.wantErr && !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%s: want ErrInvalidAmount, got %v", tc.in, err)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected err %v", tc.in, err)
		}
	}
}

func TestMin(t *testing.T) {
	a, b := decimal.NewFromInt(3), decimal.RequireFromString("2.50")
	if got := Min(a, b); !got.Equal(b) {
		t.Fatalf("Min = %s, want %s", got, b)
	}
	if got := Min(b, a); !got.Equal(b) {
		t.Fatalf("Min = %s, want %s", got, b)
	}
}

func TestRequireAmount(t *testing.T) {
	cases := []struct {
		in      string
		wantErr error
	}{
		{"100", nil},
		{"100.5", nil},
		{"100.05", nil},
		{"100.050", nil},
		{"100.005", ErrInvalidScale},
		{"0.1000000000001", ErrInvalidScale},
		{"0", ErrInvalidAmount},
		{"-0.001", ErrInvalidAmount},
	}
	for _, tc := range cases {
		err := RequireAmount(decimal.RequireFromString(tc.in))
		if tc.wantErr == nil {
			if err != nil {
				t.Fatalf("%s: unexpected err %v", tc.in, err)
			}
			continue
		}
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: want %v, got %v", tc.in, tc.wantErr, err)
		}
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%s: scale errors must still be ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}
