package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "testament/pkg/domain"
	dErrors "testament/pkg/domain-errors"
)

func newAccount() id.AccountID {
	return id.AccountID(uuid.New())
}

func testWill(t *testing.T, deposit uint64) *Will {
	t.Helper()
	w, err := NewWill(newAccount(), MinInactivityPeriod, deposit, time.Unix(1_700_000_000, 0))
	require.NoError(t, err)
	return w
}

func TestNewWill_Invariants(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	t.Run("rejects period below the 30-day minimum", func(t *testing.T) {
		_, err := NewWill(newAccount(), MinInactivityPeriod-time.Second, 100, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePeriodTooShort))
	})

	t.Run("accepts exactly the minimum period", func(t *testing.T) {
		w, err := NewWill(newAccount(), MinInactivityPeriod, 100, now)
		require.NoError(t, err)
		assert.True(t, w.Active)
		assert.False(t, w.Executed)
		assert.Equal(t, now, w.LastCheckIn)
	})

	t.Run("rejects zero deposit regardless of period", func(t *testing.T) {
		_, err := NewWill(newAccount(), 365*24*time.Hour, 0, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeZeroDeposit))
	})

	t.Run("rejects null owner identity", func(t *testing.T) {
		_, err := NewWill(id.AccountID{}, MinInactivityPeriod, 100, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestValidateBeneficiaries(t *testing.T) {
	a, b := newAccount(), newAccount()

	t.Run("rejects empty list", func(t *testing.T) {
		_, err := ValidateBeneficiaries(nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeEmptyList))
	})

	t.Run("rejects null identity", func(t *testing.T) {
		_, err := ValidateBeneficiaries([]BeneficiaryInput{
			{Account: a, SharePercent: 50},
			{Account: id.AccountID{}, SharePercent: 50},
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidBeneficiary))
	})

	t.Run("rejects non-positive share", func(t *testing.T) {
		_, err := ValidateBeneficiaries([]BeneficiaryInput{
			{Account: a, SharePercent: 100},
			{Account: b, SharePercent: 0},
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidBeneficiary))
	})

	t.Run("rejects sum below 100", func(t *testing.T) {
		_, err := ValidateBeneficiaries([]BeneficiaryInput{
			{Account: a, SharePercent: 60},
			{Account: b, SharePercent: 30},
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodePercentageMismatch))
	})

	t.Run("rejects sum above 100", func(t *testing.T) {
		_, err := ValidateBeneficiaries([]BeneficiaryInput{
			{Account: a, SharePercent: 60},
			{Account: b, SharePercent: 50},
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodePercentageMismatch))
	})

	t.Run("accepts exact 100 and starts entries unclaimed", func(t *testing.T) {
		validated, err := ValidateBeneficiaries([]BeneficiaryInput{
			{Account: a, SharePercent: 60},
			{Account: b, SharePercent: 40},
		})
		require.NoError(t, err)
		require.Len(t, validated, 2)
		for _, v := range validated {
			assert.False(t, v.Claimed)
		}
		// Input order preserved.
		assert.Equal(t, a, validated[0].Account)
		assert.Equal(t, b, validated[1].Account)
	})
}

func TestExecutionTransition(t *testing.T) {
	w := testWill(t, 10)
	a, b := newAccount(), newAccount()
	validated, err := ValidateBeneficiaries([]BeneficiaryInput{
		{Account: a, SharePercent: 60},
		{Account: b, SharePercent: 40},
	})
	require.NoError(t, err)
	w.ApplyReplaceBeneficiaries(validated, w.LastCheckIn)

	beforeDeadline := w.Deadline().Add(-time.Second)
	atDeadline := w.Deadline()

	t.Run("not executable before the deadline", func(t *testing.T) {
		assert.False(t, w.CanExecute(beforeDeadline))
		err := w.CanMarkExecuted(beforeDeadline)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInactivityNotElapsed))
	})

	t.Run("executable exactly at the deadline", func(t *testing.T) {
		assert.True(t, w.CanExecute(atDeadline))
		assert.NoError(t, w.CanMarkExecuted(atDeadline))
	})

	t.Run("check-in pushes the deadline", func(t *testing.T) {
		cp := w.Clone()
		cp.ApplyCheckIn(beforeDeadline)
		assert.False(t, cp.CanExecute(atDeadline))
		assert.True(t, cp.CanExecute(beforeDeadline.Add(cp.InactivityPeriod)))
	})

	t.Run("execution is one-way and snapshots the balance", func(t *testing.T) {
		w.ApplyExecution(atDeadline)
		assert.True(t, w.Executed)
		assert.Equal(t, uint64(10), w.ExecutedBalance)

		err := w.CanMarkExecuted(atDeadline.Add(time.Hour))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyExecuted))
		err = w.CanCheckIn()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyExecuted))
		err = w.CanDeposit(5)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyExecuted))
	})
}

func TestShareAmount_Truncation(t *testing.T) {
	tests := []struct {
		name    string
		balance uint64
		percent int
		want    uint64
	}{
		{"even split", 10, 60, 6},
		{"remainder discarded", 10, 33, 3},
		{"one unit below percent", 99, 50, 49},
		{"full share", 100, 100, 100},
		{"large balance no overflow", 1<<63 + 11, 99, (uint64(1<<63+11)/100)*99 + (uint64(1<<63+11)%100)*99/100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Will{ExecutedBalance: tt.balance}
			got := w.ShareAmount(Beneficiary{SharePercent: tt.percent})
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestClaimAccounting verifies the dust property: total paid out never exceeds
// the executed balance, with equality only when every share divides evenly.
func TestClaimAccounting(t *testing.T) {
	w := testWill(t, 1003)
	accounts := []id.AccountID{newAccount(), newAccount(), newAccount()}
	validated, err := ValidateBeneficiaries([]BeneficiaryInput{
		{Account: accounts[0], SharePercent: 33},
		{Account: accounts[1], SharePercent: 33},
		{Account: accounts[2], SharePercent: 34},
	})
	require.NoError(t, err)
	w.ApplyReplaceBeneficiaries(validated, w.LastCheckIn)
	w.ApplyExecution(w.Deadline())

	var total uint64
	for _, a := range accounts {
		require.NoError(t, w.CanClaim(a))
		total += w.ApplyClaim(a, w.Deadline())
	}
	assert.Less(t, total, uint64(1003))
	assert.Equal(t, uint64(1003)-total, w.Balance, "dust remains on the will balance")

	t.Run("second claim by same beneficiary fails", func(t *testing.T) {
		err := w.CanClaim(accounts[0])
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyClaimed))
	})

	t.Run("stranger cannot claim", func(t *testing.T) {
		err := w.CanClaim(newAccount())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotABeneficiary))
	})
}

func TestCanClaim_BeforeExecution(t *testing.T) {
	w := testWill(t, 10)
	a := newAccount()
	validated, err := ValidateBeneficiaries([]BeneficiaryInput{{Account: a, SharePercent: 100}})
	require.NoError(t, err)
	w.ApplyReplaceBeneficiaries(validated, w.LastCheckIn)

	err = w.CanClaim(a)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotExecuted))
}
