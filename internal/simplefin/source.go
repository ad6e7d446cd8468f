package simplefin

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/service"
)

// BalanceSource uses a bridged account's balance as the opening balance.
type BalanceSource struct {
	lister    AccountLister
	accountID string
}

var _ service.BalanceSource = (*BalanceSource)(nil)

// NewBalanceSource reads accountID through lister. With an empty accountID
// the bridge must report exactly one account.
func NewBalanceSource(lister AccountLister, accountID string) *BalanceSource {
	return &BalanceSource{lister: lister, accountID: accountID}
}

// Name implements service.BalanceSource.
func (s *BalanceSource) Name() string {
	if s.accountID == "" {
		return "simplefin"
	}
	return "simplefin:" + s.accountID
}

// CurrentBalance implements service.BalanceSource.
func (s *BalanceSource) CurrentBalance(ctx context.Context) (decimal.Decimal, error) {
	accounts, err := s.lister.ListAccounts(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	if s.accountID == "" {
		if len(accounts) != 1 {
			return decimal.Zero, fmt.Errorf("%w: %d accounts reported, set simplefin.account_id", common.ErrInvalidAccount, len(accounts))
		}
		return accounts[0].Balance, nil
	}

	for _, a := range accounts {
		if a.ID == s.accountID {
			return a.Balance, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: account %s not reported", common.ErrInvalidAccount, s.accountID)
}
