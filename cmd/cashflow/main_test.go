package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/service"
	"github.com/jamesfulford/cashflow-projector/internal/sheets"
)

const rentRules = `{
  "rules": [
    {"id": "rent", "name": "Rent", "rrule": "DTSTART:20240101\nRRULE:FREQ=MONTHLY;BYMONTHDAY=1", "value": "-500"}
  ],
  "parameters": {"startDate": "2024-01-01", "endDate": "2024-04-01", "currentBalance": "1000"}
}`

type testEnv struct {
	dir        string
	configFile string
	rulesFile  string
}

func newTestEnv(t *testing.T, rules, configYAML string) testEnv {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	origToday := today
	today = func() civil.Date { return civil.Date{Year: 2024, Month: 1, Day: 1} }
	t.Cleanup(func() { today = origToday })

	env := testEnv{
		dir:        dir,
		configFile: filepath.Join(dir, "config.yaml"),
		rulesFile:  filepath.Join(dir, "rules.json"),
	}
	require.NoError(t, os.WriteFile(env.configFile, []byte("logging:\n  level: error\n"+configYAML), 0o600))
	require.NoError(t, os.WriteFile(env.rulesFile, []byte(rules), 0o600))
	return env
}

// run executes the CLI once. viper is reset between runs so bindings from a
// previous command do not leak.
func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", e.configFile}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &out))
	return out
}

func TestTransactionsJSON(t *testing.T) {
	env := newTestEnv(t, rentRules, "")

	out, err := env.run(t, "transactions", "--rules", env.rulesFile, "--format", "json")
	require.NoError(t, err)

	got := decode(t, out)
	txns := got["transactions"].([]any)
	require.Len(t, txns, 4)
	assert.Equal(t, "2024-02-01", txns[1].(map[string]any)["date"])
	assert.Equal(t, -500.0, txns[1].(map[string]any)["value"])
}

func TestTransactionsTable(t *testing.T) {
	env := newTestEnv(t, rentRules, "")

	out, err := env.run(t, "transactions", "--rules", env.rulesFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Parameters")
	assert.Contains(t, out, "Transactions")
	assert.Contains(t, out, "2024-03-01")
	assert.Contains(t, out, "-500.00")
}

func TestRulesFileFromConfig(t *testing.T) {
	env := newTestEnv(t, rentRules, "")
	require.NoError(t, os.WriteFile(env.configFile, []byte("rules:\n  file: "+env.rulesFile+"\n"), 0o600))

	out, err := env.run(t, "params", "--format", "json")
	require.NoError(t, err)
	params := decode(t, out)["params"].(map[string]any)
	assert.Equal(t, "2024-04-01", params["endDate"])
}

func TestParamsFlagsOverrideFile(t *testing.T) {
	env := newTestEnv(t, `{
		"rules": [{"id": "once", "name": "Once", "rrule": "DTSTART:20180721\nRRULE:FREQ=YEARLY;COUNT=1", "value": 100}],
		"parameters": {"startDate": "2024-01-01", "currentBalance": "5"}
	}`, "")

	out, err := env.run(t, "params", "--rules", env.rulesFile, "--format", "json",
		"--start", "2018-06-20", "--end", "2018-06-22", "--balance", "42.5", "--high-low")
	require.NoError(t, err)

	params := decode(t, out)["params"].(map[string]any)
	assert.Equal(t, "2018-06-20", params["startDate"])
	assert.Equal(t, "2018-07-22", params["endDate"])
	assert.Equal(t, 42.5, params["currentBalance"])
	assert.Equal(t, true, params["highLow"])
}

func TestSetAsidePrecedence(t *testing.T) {
	withFile := `{"rules": [], "parameters": {"startDate": "2024-01-01", "endDate": "2024-01-02", "setAside": "50"}}`
	withoutFile := `{"rules": [], "parameters": {"startDate": "2024-01-01", "endDate": "2024-01-02"}}`
	config := "projection:\n  set_aside: 100\n  high_low: true\n"

	tests := []struct {
		name     string
		rules    string
		args     []string
		want     float64
		wantHiLo bool
	}{
		{name: "config fills a missing value", rules: withoutFile, want: 100, wantHiLo: true},
		{name: "file wins over config", rules: withFile, want: 50, wantHiLo: true},
		{name: "flag wins over file", rules: withFile, args: []string{"--set-aside", "10", "--high-low=false"}, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.rules, config)
			args := append([]string{"params", "--rules", env.rulesFile, "--format", "json"}, tt.args...)
			out, err := env.run(t, args...)
			require.NoError(t, err)

			params := decode(t, out)["params"].(map[string]any)
			assert.Equal(t, tt.want, params["setAside"])
			assert.Equal(t, tt.wantHiLo, params["highLow"])
		})
	}
}

func TestDayByDaysRecordAndHistory(t *testing.T) {
	env := newTestEnv(t, rentRules, "")
	dbPath := filepath.Join(env.dir, "runs", "cashflow.db")
	require.NoError(t, os.WriteFile(env.configFile, []byte("storage:\n  path: "+dbPath+"\n"), 0o600))

	out, err := env.run(t, "daybydays", "--rules", env.rulesFile, "--format", "json", "--record", "--label", "baseline")
	require.NoError(t, err)
	days := decode(t, out)["daybydays"].([]any)
	require.Len(t, days, 92)
	assert.FileExists(t, dbPath)

	out, err = env.run(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "baseline")
	assert.Contains(t, out, "2024-01-01..2024-04-01")
	assert.Contains(t, out, "-1,000.00")

	out, err = env.run(t, "history", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted run 1")

	out, err = env.run(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No recorded runs yet")

	_, err = env.run(t, "history", "delete", "1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = env.run(t, "history", "delete", "abc")
	assert.Error(t, err)
}

func TestSummaryReportsOverdraft(t *testing.T) {
	env := newTestEnv(t, rentRules, "")

	out, err := env.run(t, "summary", "--rules", env.rulesFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Shortfalls")
	assert.Contains(t, out, "Impact")
	assert.Contains(t, out, "Overdrawn from 2024-03-01")

	out, err = env.run(t, "summary", "--rules", env.rulesFile, "--format", "json")
	require.NoError(t, err)
	shortfalls := decode(t, out)["shortfalls"].(map[string]any)
	assert.Equal(t, "2024-03-01", shortfalls["belowZero"])
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, rentRules, "sheets:\n  service_account_path: /keys/sa.json\n")

	mock := sheets.NewMockWriter()
	var gotCfg sheets.Config
	orig := newLedgerWriter
	newLedgerWriter = func(_ context.Context, cfg sheets.Config) (service.LedgerWriter, error) {
		gotCfg = cfg
		return mock, nil
	}
	t.Cleanup(func() { newLedgerWriter = orig })

	out, err := env.run(t, "export", "--rules", env.rulesFile, "--spreadsheet-id", "sheet-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 92 days")

	assert.Equal(t, "sheet-1", gotCfg.SpreadsheetID)
	assert.Equal(t, "/keys/sa.json", gotCfg.ServiceAccountPath)
	require.Equal(t, 1, mock.WriteCallCount)
	require.NotNil(t, mock.LastReport)
	assert.Len(t, mock.LastReport.Days, 92)
	require.NotNil(t, mock.LastReport.Shortfalls.BelowZero)
	assert.Equal(t, "2024-03-01", mock.LastReport.Shortfalls.BelowZero.String())
	require.Len(t, mock.LastReport.Impact.Expenses, 1)
}

func TestExportFailure(t *testing.T) {
	env := newTestEnv(t, rentRules, "sheets:\n  service_account_path: /keys/sa.json\n")

	mock := sheets.NewMockWriter()
	mock.SetWriteError(common.ErrRateLimit)
	orig := newLedgerWriter
	newLedgerWriter = func(context.Context, sheets.Config) (service.LedgerWriter, error) {
		return mock, nil
	}
	t.Cleanup(func() { newLedgerWriter = orig })

	_, err := env.run(t, "export", "--rules", env.rulesFile)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRateLimit)
	assert.Contains(t, err.Error(), "export failed")

	calls := mock.GetWriteCalls()
	require.Len(t, calls, 1)
	assert.ErrorIs(t, calls[0].Error, common.ErrRateLimit)
	assert.Len(t, calls[0].Report.Days, 92)

	mock.Reset()
	assert.Empty(t, mock.GetWriteCalls())
	assert.Nil(t, mock.LastReport)
}

func TestExportRequiresSheetsConfig(t *testing.T) {
	env := newTestEnv(t, rentRules, "")
	for _, key := range []string{"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "GOOGLE_SHEETS_CLIENT_ID", "GOOGLE_SHEETS_CLIENT_SECRET", "GOOGLE_SHEETS_REFRESH_TOKEN"} {
		t.Setenv(key, "")
	}

	_, err := env.run(t, "export", "--rules", env.rulesFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google sheets is not configured")
}

func TestInvalidInputs(t *testing.T) {
	tests := []struct {
		name    string
		rules   string
		args    []string
		wantErr error
	}{
		{
			name:    "start after end",
			rules:   rentRules,
			args:    []string{"--start", "2024-05-01"},
			wantErr: common.ErrInvalidWindow,
		},
		{
			name:    "bad recurrence",
			rules:   `{"rules": [{"id": "x", "rrule": "FREQ=SOMETIMES", "value": 1}]}`,
			wantErr: common.ErrRecurrenceParse,
		},
		{
			name:    "unknown format",
			rules:   rentRules,
			args:    []string{"--format", "csv"},
			wantErr: common.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.rules, "")
			args := append([]string{"transactions", "--rules", env.rulesFile}, tt.args...)
			_, err := env.run(t, args...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBalanceFlagsAreExclusive(t *testing.T) {
	env := newTestEnv(t, rentRules, "")

	_, err := env.run(t, "params", "--rules", env.rulesFile, "--balance", "10", "--balance-plaid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestMissingRulesFile(t *testing.T) {
	env := newTestEnv(t, rentRules, "")

	_, err := env.run(t, "transactions", "--rules", filepath.Join(env.dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t, rentRules, "")

	out, err := env.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cashflow dev\n", out)
}

func TestOpeningBalanceFromSimpleFIN(t *testing.T) {
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "user" || pass != "pass" || r.URL.Path != "/simplefin/accounts" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"accounts": [{"id": "chk", "balance": "1234.56"}, {"id": "sav", "balance": "9000"}]}`))
	}))
	t.Cleanup(bridge.Close)

	accessURL := strings.Replace(bridge.URL, "http://", "http://user:pass@", 1) + "/simplefin"
	env := newTestEnv(t, rentRules, "simplefin:\n  access_url: "+accessURL+"\n  account_id: chk\n")

	out, err := env.run(t, "params", "--rules", env.rulesFile, "--format", "json", "--balance-simplefin")
	require.NoError(t, err)
	params := decode(t, out)["params"].(map[string]any)
	assert.Equal(t, 1234.56, params["currentBalance"])
}
