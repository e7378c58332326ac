package detection

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ringsight/ringsight/pkg/models"
)

func TestMerchantClassification(t *testing.T) {
	class := newClassifier(mustGraph(merchantBatch()))
	assert.True(t, class.excluded("MERCH"))
	assert.False(t, class.excluded("BUYER_0"))
}

func TestMerchantNeedsZeroOutgoing(t *testing.T) {
	txs := merchantBatch()
	txs = append(txs, tx("OUT", "MERCH", "SUPPLIER", 100, at(time.Hour)))
	class := newClassifier(mustGraph(txs))
	assert.False(t, class.excluded("MERCH"))
}

func TestMerchantNeedsHighAverage(t *testing.T) {
	var txs []models.Transaction
	for i := 0; i < 150; i++ {
		txs = append(txs, tx(fmt.Sprintf("M%d", i), fmt.Sprintf("B%d", i), "SHOP", 1500, at(0)))
	}
	class := newClassifier(mustGraph(txs))
	assert.False(t, class.excluded("SHOP"))
}

func TestPayrollClassification(t *testing.T) {
	var txs []models.Transaction
	for i := 0; i < 101; i++ {
		txs = append(txs, tx(fmt.Sprintf("P%d", i), "EMPLOYER", fmt.Sprintf("EMP_%d", i), 3000, at(0)))
	}
	txs = append(txs, tx("FUND", "BANK", "EMPLOYER", 400000, at(-time.Hour)))
	class := newClassifier(mustGraph(txs))
	assert.True(t, class.excluded("EMPLOYER"))

	// six incoming funding transfers break the payroll shape
	for i := 0; i < 5; i++ {
		txs = append(txs, tx(fmt.Sprintf("FUND%d", i), "BANK", "EMPLOYER", 1000, at(-2*time.Hour)))
	}
	class = newClassifier(mustGraph(txs))
	assert.False(t, class.excluded("EMPLOYER"))
}

func TestBurstOverrides(t *testing.T) {
	// full-history average is too low for the merchant predicate
	var txs []models.Transaction
	for i := 0; i < 120; i++ {
		txs = append(txs, tx(fmt.Sprintf("M%d", i), fmt.Sprintf("B%d", i), "SHOP", 1000, at(0)))
	}
	class := newClassifier(mustGraph(txs))
	assert.False(t, class.excluded("SHOP"))

	// burst-local statistics can still classify it
	assert.True(t, class.excludedWith("SHOP", 120, decimal.NewFromInt(2500)))
	assert.False(t, class.excludedWith("SHOP", 90, decimal.NewFromInt(2500)))
}

func TestUnknownAccountNotExcluded(t *testing.T) {
	class := newClassifier(mustGraph(nil))
	assert.False(t, class.excluded("GHOST"))
}

func TestAccountStats(t *testing.T) {
	class := newClassifier(mustGraph([]models.Transaction{
		tx("T1", "A", "B", 100, at(0)),
		tx("T2", "A", "B", 300, at(time.Minute)),
		tx("T3", "B", "C", 200, at(2*time.Minute)),
	}))

	b := class.stat("B")
	assert.Equal(t, 2, b.incomingCount)
	assert.Equal(t, 1, b.outgoingCount)
	assert.Equal(t, 1, b.uniqueSenders)
	assert.Equal(t, 1, b.uniqueReceivers)
	assert.True(t, b.avgIncoming().Equal(decimal.NewFromInt(200)))
}
