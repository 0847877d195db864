package lending

import "math/big"

var basisPoints = big.NewInt(10_000)

// secondsPerYear is the annualisation divisor for interest accrual.
const secondsPerYear = 31_536_000

// AccruedInterest computes simple, linear, continuously accruing interest:
//
//	principal * rateBps * elapsedSeconds / (10000 * secondsPerYear)
//
// Interest does not compound; the charge at repayment is whatever has accrued
// against the original principal. Elapsed times before the loan start clamp to
// zero so clock skew can never produce a negative charge.
func AccruedInterest(principal *big.Int, rateBps uint64, elapsedSeconds int64) *big.Int {
	if principal == nil || principal.Sign() <= 0 || rateBps == 0 || elapsedSeconds <= 0 {
		return big.NewInt(0)
	}
	interest := new(big.Int).Mul(principal, new(big.Int).SetUint64(rateBps))
	interest.Mul(interest, big.NewInt(elapsedSeconds))
	divisor := new(big.Int).Mul(basisPoints, big.NewInt(secondsPerYear))
	return interest.Div(interest, divisor)
}

// RepaymentAmount returns principal plus accrued interest for an Active loan
// at the supplied timestamp. A loan that is no longer Active owes nothing.
func RepaymentAmount(loan *Loan, now int64) *big.Int {
	if loan == nil || loan.Status != LoanActive {
		return big.NewInt(0)
	}
	elapsed := now - loan.StartTime
	if elapsed < 0 {
		elapsed = 0
	}
	principal := big.NewInt(0)
	if loan.Principal != nil {
		principal = new(big.Int).Set(loan.Principal)
	}
	return principal.Add(principal, AccruedInterest(loan.Principal, loan.InterestRateBps, elapsed))
}

// MaxPrincipal returns the largest principal issuable against the collateral
// quantity under the supplied LTV cap. Collateral is valued at a 1:1 unit peg
// to the issued asset regardless of the collateral asset's own precision or
// market price; the peg is a deliberate simplification carried over from the
// protocol definition.
func MaxPrincipal(collateralAmount *big.Int, maxLTVBps uint64) *big.Int {
	if collateralAmount == nil || collateralAmount.Sign() <= 0 {
		return big.NewInt(0)
	}
	max := new(big.Int).Mul(collateralAmount, new(big.Int).SetUint64(maxLTVBps))
	return max.Div(max, basisPoints)
}
