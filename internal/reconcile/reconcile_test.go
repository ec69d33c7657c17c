package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/recon/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func agg(key, amount string) model.AggregatedRecord {
	return model.AggregatedRecord{TransactionKey: key, OutletCode: "O1", Amount: dec(amount)}
}

func TestJoin_ToleranceBoundary(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		reference string
		want      model.Status
	}{
		{"exact", "100", "100", model.StatusMatched},
		{"diff 0.01 is matched", "100.01", "100", model.StatusMatched},
		{"diff -0.01 is matched", "100", "100.01", model.StatusMatched},
		{"diff 0.010001 is discrepancy", "100.010001", "100", model.StatusDiscrepancy},
		{"diff 0.02", "99.98", "100", model.StatusDiscrepancy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Join([]model.AggregatedRecord{agg("A", tt.target)}, []model.AggregatedRecord{agg("A", tt.reference)})
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Status)
			assert.True(t, got[0].Difference.Equal(dec(tt.target).Sub(dec(tt.reference))))
			assert.True(t, got[0].ReferenceFound)
		})
	}
}

func TestJoin_MissingReferenceIsZero(t *testing.T) {
	got := Join([]model.AggregatedRecord{agg("B", "12000"), agg("Z", "0")}, nil)
	require.Len(t, got, 2)

	assert.True(t, got[0].ReferenceValue.IsZero())
	assert.True(t, got[0].Difference.Equal(dec("12000")))
	assert.Equal(t, model.StatusDiscrepancy, got[0].Status)
	assert.False(t, got[0].ReferenceFound)

	assert.Equal(t, model.StatusMatched, got[1].Status, "zero against absent zero matches")
}

func TestJoin_EverySourceKeyOnceInOrder(t *testing.T) {
	source := []model.AggregatedRecord{agg("C", "1"), agg("A", "2"), agg("B", "3")}
	reference := []model.AggregatedRecord{agg("A", "2"), agg("X", "9")}

	got := Join(source, reference)
	require.Len(t, got, 3)
	assert.Equal(t, "C", got[0].TransactionKey)
	assert.Equal(t, "A", got[1].TransactionKey)
	assert.Equal(t, "B", got[2].TransactionKey)
	assert.Equal(t, model.StatusMatched, got[1].Status)
}

func TestJoin_Idempotent(t *testing.T) {
	source := []model.AggregatedRecord{agg("A", "10"), agg("B", "20.5")}
	reference := []model.AggregatedRecord{agg("A", "10"), agg("B", "20")}

	first := Join(source, reference)
	second := Join(source, reference)
	assert.Equal(t, first, second)
}

func TestRecalculate(t *testing.T) {
	primary := Join(
		[]model.AggregatedRecord{agg("A", "1000"), agg("B", "500"), agg("C", "300"), agg("D", "50")},
		[]model.AggregatedRecord{agg("A", "1000"), agg("B", "450"), agg("C", "250"), agg("D", "40")},
	)
	require.Equal(t, model.StatusMatched, primary[0].Status)

	alternate := []model.AggregatedRecord{
		agg("A", "1"),   // primary matched: not recalculated
		agg("B", "495"), // diff 5: below threshold
		agg("C", "290"), // diff 10: threshold is inclusive
		// D absent
	}

	got := Recalculate(primary, alternate)
	require.Len(t, got, 3)

	assert.Equal(t, "B", got[0].TransactionKey)
	assert.True(t, got[0].ReferenceValue.Equal(dec("495")))
	assert.Equal(t, model.StatusMatched, got[0].Status)

	assert.Equal(t, "C", got[1].TransactionKey)
	assert.Equal(t, model.StatusDiscrepancy, got[1].Status)

	assert.Equal(t, "D", got[2].TransactionKey)
	assert.False(t, got[2].ReferenceFound)
	assert.True(t, got[2].ReferenceValue.IsZero())
	assert.True(t, got[2].Difference.Equal(dec("50")))
	assert.Equal(t, model.StatusDiscrepancy, got[2].Status)
}

func TestRecalculate_NoDiscrepancies(t *testing.T) {
	primary := Join([]model.AggregatedRecord{agg("A", "1")}, []model.AggregatedRecord{agg("A", "1")})
	assert.Empty(t, Recalculate(primary, nil))
}
