package feature

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

var groupKeys = []string{"CNPJ_FUNDO_CLASSE", "DENOM_SOCIAL", "competencia"}

// rowsTable builds a string table from column order and row literals
func rowsTable(t *testing.T, cols []string, rows [][]string) *table.Table {
	t.Helper()
	tb := table.New()
	for c, name := range cols {
		vals := make([]string, len(rows))
		for r, row := range rows {
			vals[r] = row[c]
		}
		require.NoError(t, tb.AddStrings(name, vals))
	}
	return tb
}

// sampleHoldings is a two-fund CDA snapshot:
// F1 holds 1000 of credit (E1) and 0 of treasury from a related issuer (E2),
// F2 holds 500 of credit (E1).
func sampleHoldings(t *testing.T) *table.Table {
	return rowsTable(t,
		[]string{"CNPJ_FUNDO_CLASSE", "DENOM_SOCIAL", "competencia", "VL_PATRIM_LIQ", "VL_MERC_POS_FINAL", "CD_ATIVO", "CPF_CNPJ_EMISSOR", "TP_APLIC", "EMISSOR_LIGADO"},
		[][]string{
			{"F1", "Fund A", "202501", "1000.0", "1000.0", "A1", "E1", "Debêntures", "N"},
			{"F1", "Fund A", "202501", "1000.0", "0.0", "A2", "E2", "Tesouro", "S"},
			{"F2", "Fund B", "202501", "500.0", "500.0", "A3", "E1", "CRI", "N"},
		})
}

// valuesByFund maps the fund key column to a numeric feature column
func valuesByFund(t *testing.T, tb *table.Table, col string) map[string]table.Float {
	t.Helper()
	funds, ok := tb.Strings("CNPJ_FUNDO_CLASSE")
	require.True(t, ok)
	vals, ok := tb.Numeric(col)
	require.True(t, ok, "missing column %s", col)

	out := make(map[string]table.Float, len(funds))
	for i, f := range funds {
		out[f] = vals[i]
	}
	return out
}
