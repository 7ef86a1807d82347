package lock

import (
	"sync"
	"testing"

	"pgregory.net/rapid"
)

// TestConcurrentBalanceSafetyProperty verifies that for any set of
// concurrent balance mutations on the same account, the final balance
// equals the result of sequential execution when every mutation holds
// the account lock.
func TestConcurrentBalanceSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initialBalance := rapid.Int64Range(1000, 100000).Draw(t, "initialBalance")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")

		amounts := make([]int64, numOps)
		expected := initialBalance
		for i := 0; i < numOps; i++ {
			amounts[i] = rapid.Int64Range(-500, 500).Draw(t, "amount")
			expected += amounts[i]
		}

		accountID := rapid.Int64Range(1, 1000000).Draw(t, "accountID")

		al := NewAccountLock()
		balance := initialBalance

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, amount := range amounts {
			go func(amount int64) {
				defer wg.Done()
				al.Lock(accountID)
				defer al.Unlock(accountID)
				balance += amount
			}(amount)
		}
		wg.Wait()

		if balance != expected {
			t.Fatalf("balance mismatch with locking: expected %d, got %d (initial=%d, numOps=%d)",
				expected, balance, initialBalance, numOps)
		}
	})
}

// TestTryLockExclusive verifies TryLock fails while the lock is held
// and succeeds after release.
func TestTryLockExclusive(t *testing.T) {
	al := NewAccountLock()

	al.Lock(42)
	if al.TryLock(42) {
		t.Fatal("TryLock succeeded while lock held")
	}
	// Independent account is unaffected.
	if !al.TryLock(43) {
		t.Fatal("TryLock failed on unrelated account")
	}
	al.Unlock(43)

	al.Unlock(42)
	if !al.TryLock(42) {
		t.Fatal("TryLock failed after release")
	}
	al.Unlock(42)
}
