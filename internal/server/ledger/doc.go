// Package ledger holds the accrual and reconciliation rules of the mining
// ledger as pure functions over models.UserRecord. Nothing here touches
// storage or the clock; callers pass "now" in Unix milliseconds and persist
// the returned record through an atomic store update.
package ledger
