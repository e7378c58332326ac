package detection

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ringsight/ringsight/pkg/models"
)

var testBase = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// at formats a timestamp offset from the test base time.
func at(offset time.Duration) string {
	return testBase.Add(offset).Format(time.RFC3339)
}

func tx(id, sender, receiver string, amount float64, timestamp string) models.Transaction {
	return models.Transaction{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Amount:     decimal.NewFromFloat(amount),
		Timestamp:  timestamp,
	}
}

// cycleBatch is the canonical three-account round trip used across tests.
func cycleBatch() []models.Transaction {
	return []models.Transaction{
		tx("T1", "ACC_A", "ACC_B", 5000, at(0)),
		tx("T2", "ACC_B", "ACC_C", 4900, at(5*time.Minute)),
		tx("T3", "ACC_C", "ACC_A", 4800, at(10*time.Minute)),
	}
}

// merchantBatch gives MERCH a fan-in of 150 senders, zero outgoing
// transactions, and a 5000 average incoming amount.
func merchantBatch() []models.Transaction {
	txs := make([]models.Transaction, 0, 150)
	for i := 0; i < 150; i++ {
		txs = append(txs, tx(
			fmt.Sprintf("M%d", i),
			fmt.Sprintf("BUYER_%d", i),
			"MERCH",
			5000,
			at(time.Duration(i)*time.Minute),
		))
	}
	return txs
}

func mustGraph(txs []models.Transaction) *Graph {
	g, err := BuildGraph(txs)
	if err != nil {
		panic(err)
	}
	return g
}
