package lending

import (
	"math/big"
	"testing"
)

func TestAccruedInterestSimpleLinear(t *testing.T) {
	cases := []struct {
		name      string
		principal int64
		rateBps   uint64
		elapsed   int64
		want      int64
	}{
		{"one year at 5 percent", 1000, 500, 31_536_000, 50},
		{"half year at 5 percent", 1000, 500, 15_768_000, 25},
		{"two years does not compound", 1000, 500, 63_072_000, 100},
		{"zero elapsed", 1000, 500, 0, 0},
		{"negative elapsed clamps", 1000, 500, -3600, 0},
		{"zero rate", 1000, 0, 31_536_000, 0},
		{"sub unit truncates", 1, 500, 31_536_000, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AccruedInterest(big.NewInt(tc.principal), tc.rateBps, tc.elapsed)
			if got.Cmp(big.NewInt(tc.want)) != 0 {
				t.Fatalf("expected %d, got %s", tc.want, got)
			}
		})
	}
}

func TestRepaymentAmount(t *testing.T) {
	loan := &Loan{
		ID:              1,
		Principal:       big.NewInt(750),
		InterestRateBps: 500,
		StartTime:       1_700_000_000,
		Status:          LoanActive,
	}
	if got := RepaymentAmount(loan, loan.StartTime); got.Cmp(big.NewInt(750)) != 0 {
		t.Fatalf("owed at origination must equal principal, got %s", got)
	}
	if got := RepaymentAmount(loan, loan.StartTime+31_536_000); got.Cmp(big.NewInt(787)) != 0 {
		t.Fatalf("expected 787 after a year, got %s", got)
	}
	// Clock skew before the start owes principal only.
	if got := RepaymentAmount(loan, loan.StartTime-60); got.Cmp(big.NewInt(750)) != 0 {
		t.Fatalf("pre-start timestamp must owe principal, got %s", got)
	}
	loan.Status = LoanRepaid
	if got := RepaymentAmount(loan, loan.StartTime+60); got.Sign() != 0 {
		t.Fatalf("inactive loan owes zero, got %s", got)
	}
	if got := RepaymentAmount(nil, 0); got.Sign() != 0 {
		t.Fatalf("nil loan owes zero, got %s", got)
	}
}

func TestMaxPrincipal(t *testing.T) {
	if got := MaxPrincipal(big.NewInt(1000), 7_500); got.Cmp(big.NewInt(750)) != 0 {
		t.Fatalf("expected 750, got %s", got)
	}
	if got := MaxPrincipal(big.NewInt(3), 7_500); got.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("expected truncation to 2, got %s", got)
	}
	if got := MaxPrincipal(nil, 7_500); got.Sign() != 0 {
		t.Fatalf("nil collateral caps at zero, got %s", got)
	}
	if got := MaxPrincipal(big.NewInt(1000), 0); got.Sign() != 0 {
		t.Fatalf("zero LTV caps at zero, got %s", got)
	}
}
