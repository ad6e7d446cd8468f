package ofx

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesfulford/cashflow-projector/internal/common"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseBalances(t *testing.T) {
	tests := []struct {
		name        string
		ofxData     string
		wantAccount string
		wantKind    string
		wantAmount  string
		wantErr     bool
	}{
		{
			name:        "bank statement",
			ofxData:     sampleBankOFX,
			wantAccount: "1234567890",
			wantKind:    "CHECKING",
			wantAmount:  "1000.00",
		},
		{
			name:        "credit card statement",
			ofxData:     sampleCreditCardOFX,
			wantAccount: "4111111111111111",
			wantKind:    "CREDITCARD",
			wantAmount:  "-500.00",
		},
		{
			name:        "leading blank lines",
			ofxData:     "\n\n  " + sampleBankOFX,
			wantAccount: "1234567890",
			wantKind:    "CHECKING",
			wantAmount:  "1000.00",
		},
		{
			name:    "invalid OFX data",
			ofxData: "not valid OFX",
			wantErr: true,
		},
	}

	parser := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances, err := parser.ParseBalances(context.Background(), strings.NewReader(tt.ofxData))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, balances, 1)

			b := balances[0]
			assert.Equal(t, tt.wantAccount, b.AccountID)
			assert.Equal(t, tt.wantKind, b.Kind)
			assert.Equal(t, tt.wantAmount, b.Amount.StringFixed(2))
			assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 31}, b.AsOf)
		})
	}
}

func TestSelectBalance(t *testing.T) {
	checking := Balance{AccountID: "chk"}
	savings := Balance{AccountID: "sav"}

	tests := []struct {
		name      string
		balances  []Balance
		accountID string
		want      string
		wantErr   error
	}{
		{name: "only statement", balances: []Balance{checking}, want: "chk"},
		{name: "by account", balances: []Balance{checking, savings}, accountID: "sav", want: "sav"},
		{name: "ambiguous", balances: []Balance{checking, savings}, wantErr: common.ErrInvalidAccount},
		{name: "unknown account", balances: []Balance{checking}, accountID: "nope", wantErr: common.ErrInvalidAccount},
		{name: "empty", wantErr: common.ErrNoBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectBalance(tt.balances, tt.accountID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.AccountID)
		})
	}
}

func TestBalanceSourceReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checking.qfx")
	require.NoError(t, os.WriteFile(path, []byte(sampleBankOFX), 0600))

	src := NewBalanceSource(path, "")
	assert.Equal(t, "ofx:checking.qfx", src.Name())

	balance, err := src.CurrentBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1000.00", balance.StringFixed(2))

	_, err = NewBalanceSource(path, "other").CurrentBalance(context.Background())
	assert.ErrorIs(t, err, common.ErrInvalidAccount)

	_, err = NewBalanceSource(filepath.Join(t.TempDir(), "missing.qfx"), "").CurrentBalance(context.Background())
	assert.Error(t, err)
}

func TestPreprocessOFX(t *testing.T) {
	p := NewParser()

	got := p.preprocessOFX("\n  <SEVERITY>Info</SEVERITY>\n<CODE\n")
	assert.Equal(t, "<SEVERITY>INFO</SEVERITY>\n<CODE>\n", got)
}
