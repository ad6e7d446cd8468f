package plaid

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/service"
)

// BalanceSource uses a linked account's current balance as the opening balance.
type BalanceSource struct {
	lister    AccountLister
	accountID string
}

var _ service.BalanceSource = (*BalanceSource)(nil)

// NewBalanceSource reads accountID through lister. With an empty accountID
// the access token must cover exactly one account.
func NewBalanceSource(lister AccountLister, accountID string) *BalanceSource {
	return &BalanceSource{lister: lister, accountID: accountID}
}

// Name implements service.BalanceSource.
func (s *BalanceSource) Name() string {
	if s.accountID == "" {
		return "plaid"
	}
	return "plaid:" + s.accountID
}

// CurrentBalance implements service.BalanceSource.
func (s *BalanceSource) CurrentBalance(ctx context.Context) (decimal.Decimal, error) {
	accounts, err := s.lister.ListAccounts(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	account, err := selectAccount(accounts, s.accountID)
	if err != nil {
		return decimal.Zero, err
	}
	if account.Current == nil {
		return decimal.Zero, fmt.Errorf("%w: account %s reports no current balance", common.ErrNoBalance, account.ID)
	}

	// Plaid reports what is owed on credit and loan accounts as a positive number.
	if account.Type == "credit" || account.Type == "loan" {
		return account.Current.Neg(), nil
	}
	return *account.Current, nil
}

func selectAccount(accounts []Account, accountID string) (Account, error) {
	if accountID == "" {
		switch len(accounts) {
		case 0:
			return Account{}, fmt.Errorf("%w: no accounts linked", common.ErrInvalidAccount)
		case 1:
			return accounts[0], nil
		default:
			return Account{}, fmt.Errorf("%w: %d accounts linked, choose one", common.ErrInvalidAccount, len(accounts))
		}
	}

	for _, a := range accounts {
		if a.ID == accountID {
			return a, nil
		}
	}
	return Account{}, fmt.Errorf("%w: %s", common.ErrInvalidAccount, accountID)
}
