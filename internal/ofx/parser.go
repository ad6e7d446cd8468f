// Package ofx reads ledger balances from OFX/QFX statement downloads.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/jamesfulford/cashflow-projector/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Balance is the ledger balance of one account in a statement.
type Balance struct {
	AsOf      civil.Date
	AccountID string
	Kind      string
	Amount    decimal.Decimal
}

// Parser implements OFX/QFX balance extraction.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	// Trim any leading whitespace or blank lines before the header
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Fix missing closing angle brackets in SGML-style OFX files
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseBalances returns the ledger balance of every bank and credit card
// statement in the file, ordered by account ID.
func (p *Parser) ParseBalances(_ context.Context, reader io.Reader) ([]Balance, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var balances []Balance

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			balances = append(balances, Balance{
				AccountID: string(stmt.BankAcctFrom.AcctID),
				Kind:      stmt.BankAcctFrom.AcctType.String(),
				Amount:    toDecimal(stmt.BalAmt),
				AsOf:      civil.DateOf(stmt.DtAsOf.Time),
			})
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			balances = append(balances, Balance{
				AccountID: string(stmt.CCAcctFrom.AcctID),
				Kind:      "CREDITCARD",
				Amount:    toDecimal(stmt.BalAmt),
				AsOf:      civil.DateOf(stmt.DtAsOf.Time),
			})
		}
	}

	sort.SliceStable(balances, func(i, j int) bool {
		return balances[i].AccountID < balances[j].AccountID
	})

	slog.Debug("Parsed OFX balances", "statements", len(balances))
	return balances, nil
}

func toDecimal(amt ofxgo.Amount) decimal.Decimal {
	return model.RoundCents(decimal.NewFromBigRat(&amt.Rat, model.CentPlaces+2))
}
