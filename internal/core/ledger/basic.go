package ledger

import (
	"github.com/stablemint/serpd/internal/core/store"
	"github.com/stablemint/serpd/internal/core/types"
)

// BasicCurrency is the single-currency capability: the full ledger operation
// set with the currency fixed. The multi-currency ledger lifts one of these
// into its interface for the native currency, so an external asset
// implementation can be plugged in without duplicating invariant logic.
type BasicCurrency interface {
	Balance(v *store.View, account types.AccountID) (types.Balance, error)
	Issuance(v *store.View) (types.Balance, error)
	MinimumBalance() types.Balance

	Transfer(v *store.View, from, to types.AccountID, amount types.Balance) error
	Deposit(v *store.View, to types.AccountID, amount types.Balance) error
	Withdraw(v *store.View, from types.AccountID, amount types.Balance) error
	Slash(v *store.View, account types.AccountID, amount types.Balance) (types.Balance, error)
	UpdateBalance(v *store.View, account types.AccountID, delta types.Amount) error

	CanSlash(v *store.View, account types.AccountID, amount types.Balance) bool
	EnsureCanWithdraw(v *store.View, account types.AccountID, amount types.Balance) error

	// The reserve family moves value between an account's free and reserved
	// balances. Reserved funds stay committed to the account but are
	// excluded from transfers, slashes of the free balance, and holder
	// iteration; issuance counts free plus reserved.
	ReservedBalance(v *store.View, account types.AccountID) (types.Balance, error)
	CanReserve(v *store.View, account types.AccountID, amount types.Balance) bool
	Reserve(v *store.View, account types.AccountID, amount types.Balance) error
	Unreserve(v *store.View, account types.AccountID, amount types.Balance) (types.Balance, error)
	SlashReserved(v *store.View, account types.AccountID, amount types.Balance) (types.Balance, error)
	RepatriateReserved(v *store.View, from, to types.AccountID, amount types.Balance) (types.Balance, error)
}

// NewStoreCurrency returns the store-backed BasicCurrency for one currency,
// the same implementation the multi-currency ledger uses internally. It is
// the building block for wrapping or replacing the native currency.
func NewStoreCurrency(currency types.CurrencyID, minBalance types.Balance, rejectZero bool) BasicCurrency {
	return &storeCurrency{currency: currency, minBalance: minBalance, rejectZero: rejectZero}
}

// storeCurrency implements BasicCurrency for one currency of the shared
// multi-currency balance store.
type storeCurrency struct {
	currency   types.CurrencyID
	minBalance types.Balance
	rejectZero bool
}

func (c *storeCurrency) Balance(v *store.View, account types.AccountID) (types.Balance, error) {
	return v.GetBalance(account, c.currency)
}

func (c *storeCurrency) Issuance(v *store.View) (types.Balance, error) {
	return v.GetIssuance(c.currency)
}

func (c *storeCurrency) MinimumBalance() types.Balance {
	return c.minBalance
}

func (c *storeCurrency) Transfer(v *store.View, from, to types.AccountID, amount types.Balance) error {
	if amount == 0 {
		if c.rejectZero {
			return ErrZeroAmount
		}
		return nil
	}
	if from == to {
		return nil
	}

	fromBal, err := c.Balance(v, from)
	if err != nil {
		return err
	}
	newFrom, err := types.SubBalance(fromBal, amount)
	if err != nil {
		return ErrInsufficientBalance
	}
	toBal, err := c.Balance(v, to)
	if err != nil {
		return err
	}
	newTo, err := types.AddBalance(toBal, amount)
	if err != nil {
		return err
	}

	// Both sides computed; the two writes land in the same overlay, so no
	// intermediate state is ever observable.
	v.SetBalance(from, c.currency, newFrom)
	v.SetBalance(to, c.currency, newTo)
	return nil
}

func (c *storeCurrency) Deposit(v *store.View, to types.AccountID, amount types.Balance) error {
	if amount == 0 {
		return nil
	}
	issuance, err := c.Issuance(v)
	if err != nil {
		return err
	}
	newIssuance, err := types.AddBalance(issuance, amount)
	if err != nil {
		return err
	}
	bal, err := c.Balance(v, to)
	if err != nil {
		return err
	}
	newBal, err := types.AddBalance(bal, amount)
	if err != nil {
		return err
	}

	v.SetIssuance(c.currency, newIssuance)
	v.SetBalance(to, c.currency, newBal)
	return nil
}

func (c *storeCurrency) Withdraw(v *store.View, from types.AccountID, amount types.Balance) error {
	if amount == 0 {
		return nil
	}
	bal, err := c.Balance(v, from)
	if err != nil {
		return err
	}
	newBal, err := types.SubBalance(bal, amount)
	if err != nil {
		return ErrInsufficientBalance
	}
	issuance, err := c.Issuance(v)
	if err != nil {
		return err
	}
	newIssuance, err := types.SubBalance(issuance, amount)
	if err != nil {
		return err
	}

	v.SetBalance(from, c.currency, newBal)
	v.SetIssuance(c.currency, newIssuance)
	return nil
}

func (c *storeCurrency) Slash(v *store.View, account types.AccountID, amount types.Balance) (types.Balance, error) {
	bal, err := c.Balance(v, account)
	if err != nil {
		return 0, err
	}
	actual := amount
	if bal < amount {
		actual = bal
	}
	if actual == 0 {
		return 0, nil
	}
	issuance, err := c.Issuance(v)
	if err != nil {
		return 0, err
	}
	newIssuance, err := types.SubBalance(issuance, actual)
	if err != nil {
		return 0, err
	}

	v.SetBalance(account, c.currency, bal-actual)
	v.SetIssuance(c.currency, newIssuance)
	return actual, nil
}

func (c *storeCurrency) UpdateBalance(v *store.View, account types.AccountID, delta types.Amount) error {
	if delta == 0 {
		return nil
	}
	if delta.IsPositive() {
		return c.Deposit(v, account, delta.Abs())
	}

	// A negative correction must not take the balance below zero.
	bal, err := c.Balance(v, account)
	if err != nil {
		return err
	}
	if bal < delta.Abs() {
		return ErrUnderflow
	}
	return c.Withdraw(v, account, delta.Abs())
}

func (c *storeCurrency) ReservedBalance(v *store.View, account types.AccountID) (types.Balance, error) {
	return v.GetReserved(account, c.currency)
}

func (c *storeCurrency) CanReserve(v *store.View, account types.AccountID, amount types.Balance) bool {
	bal, err := c.Balance(v, account)
	return err == nil && bal >= amount
}

// Reserve moves amount from the account's free balance into its reserved
// balance. Issuance is unchanged.
func (c *storeCurrency) Reserve(v *store.View, account types.AccountID, amount types.Balance) error {
	if amount == 0 {
		return nil
	}
	bal, err := c.Balance(v, account)
	if err != nil {
		return err
	}
	newBal, err := types.SubBalance(bal, amount)
	if err != nil {
		return ErrInsufficientBalance
	}
	res, err := c.ReservedBalance(v, account)
	if err != nil {
		return err
	}
	newRes, err := types.AddBalance(res, amount)
	if err != nil {
		return err
	}

	v.SetBalance(account, c.currency, newBal)
	v.SetReserved(account, c.currency, newRes)
	return nil
}

// Unreserve moves up to amount back from reserved to free, saturating at the
// reserved balance, and returns the amount actually moved.
func (c *storeCurrency) Unreserve(v *store.View, account types.AccountID, amount types.Balance) (types.Balance, error) {
	return c.RepatriateReserved(v, account, account, amount)
}

// SlashReserved removes up to amount from the reserved balance, decreasing
// issuance, and returns the amount actually removed.
func (c *storeCurrency) SlashReserved(v *store.View, account types.AccountID, amount types.Balance) (types.Balance, error) {
	res, err := c.ReservedBalance(v, account)
	if err != nil {
		return 0, err
	}
	actual := amount
	if res < amount {
		actual = res
	}
	if actual == 0 {
		return 0, nil
	}
	issuance, err := c.Issuance(v)
	if err != nil {
		return 0, err
	}
	newIssuance, err := types.SubBalance(issuance, actual)
	if err != nil {
		return 0, err
	}

	v.SetReserved(account, c.currency, res-actual)
	v.SetIssuance(c.currency, newIssuance)
	return actual, nil
}

// RepatriateReserved moves up to amount from from's reserved balance into
// to's free balance, saturating at the reserved balance, and returns the
// amount actually moved. Issuance is unchanged.
func (c *storeCurrency) RepatriateReserved(v *store.View, from, to types.AccountID, amount types.Balance) (types.Balance, error) {
	res, err := c.ReservedBalance(v, from)
	if err != nil {
		return 0, err
	}
	actual := amount
	if res < amount {
		actual = res
	}
	if actual == 0 {
		return 0, nil
	}
	bal, err := c.Balance(v, to)
	if err != nil {
		return 0, err
	}
	newBal, err := types.AddBalance(bal, actual)
	if err != nil {
		return 0, err
	}

	v.SetReserved(from, c.currency, res-actual)
	v.SetBalance(to, c.currency, newBal)
	return actual, nil
}

func (c *storeCurrency) CanSlash(v *store.View, account types.AccountID, amount types.Balance) bool {
	bal, err := c.Balance(v, account)
	return err == nil && bal >= amount
}

func (c *storeCurrency) EnsureCanWithdraw(v *store.View, account types.AccountID, amount types.Balance) error {
	bal, err := c.Balance(v, account)
	if err != nil {
		return err
	}
	if bal < amount {
		return ErrInsufficientBalance
	}
	return nil
}
