package ofx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/service"
)

// BalanceSource reads the opening balance from a statement file.
type BalanceSource struct {
	parser    *Parser
	path      string
	accountID string
}

var _ service.BalanceSource = (*BalanceSource)(nil)

// NewBalanceSource reads path. With an empty accountID the file must hold
// exactly one statement.
func NewBalanceSource(path, accountID string) *BalanceSource {
	return &BalanceSource{
		parser:    NewParser(),
		path:      path,
		accountID: accountID,
	}
}

// Name implements service.BalanceSource.
func (s *BalanceSource) Name() string {
	return "ofx:" + filepath.Base(s.path)
}

// CurrentBalance implements service.BalanceSource.
func (s *BalanceSource) CurrentBalance(ctx context.Context) (decimal.Decimal, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to open statement: %w", err)
	}
	defer func() { _ = f.Close() }()

	balances, err := s.parser.ParseBalances(ctx, f)
	if err != nil {
		return decimal.Zero, err
	}

	b, err := SelectBalance(balances, s.accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", s.path, err)
	}
	return b.Amount, nil
}

// SelectBalance picks the statement for accountID, or the only statement
// when accountID is empty.
func SelectBalance(balances []Balance, accountID string) (Balance, error) {
	if len(balances) == 0 {
		return Balance{}, common.ErrNoBalance
	}

	if accountID == "" {
		if len(balances) > 1 {
			return Balance{}, fmt.Errorf("%w: %d statements found, choose an account", common.ErrInvalidAccount, len(balances))
		}
		return balances[0], nil
	}

	for _, b := range balances {
		if b.AccountID == accountID {
			return b, nil
		}
	}
	return Balance{}, fmt.Errorf("%w: %s", common.ErrInvalidAccount, accountID)
}
