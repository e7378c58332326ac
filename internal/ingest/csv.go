// Package ingest validates raw transaction batches before the detection core
// is invoked. A malformed batch surfaces an InvalidInput error here; the core
// only ever sees well-formed records.
package ingest

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ringsight/ringsight/pkg/errors"
	"github.com/ringsight/ringsight/pkg/models"
)

var requiredColumns = []string{
	"transaction_id",
	"sender_id",
	"receiver_id",
	"amount",
	"timestamp",
}

func invalid(format string, args ...any) error {
	return errors.NewWithKind(errors.KindInvalidInput).Explain(format, args...)
}

// ReadBatch parses a CSV transaction batch. The header must contain every
// required column (order-independent, case-insensitive); each row must carry
// non-empty ids and a non-negative amount.
func ReadBatch(r io.Reader) ([]models.Transaction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, invalid("empty batch: missing header row")
	}
	if err != nil {
		return nil, errors.NewWithKind(errors.KindInvalidInput).
			Explain("unreadable header row").Wrap(err)
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, invalid("missing required column %q", col)
		}
	}

	var txs []models.Transaction
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.NewWithKind(errors.KindInvalidInput).
				Explain("unreadable row at line %d", line).Wrap(err)
		}

		tx := models.Transaction{
			ID:         strings.TrimSpace(row[idx["transaction_id"]]),
			SenderID:   strings.TrimSpace(row[idx["sender_id"]]),
			ReceiverID: strings.TrimSpace(row[idx["receiver_id"]]),
			Timestamp:  strings.TrimSpace(row[idx["timestamp"]]),
		}
		if tx.ID == "" || tx.SenderID == "" || tx.ReceiverID == "" || tx.Timestamp == "" {
			return nil, invalid("line %d: required field is empty", line)
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(row[idx["amount"]]))
		if err != nil {
			return nil, invalid("line %d: amount %q is not a number", line, row[idx["amount"]])
		}
		if amount.IsNegative() {
			return nil, invalid("line %d: amount must be non-negative", line)
		}
		tx.Amount = amount

		txs = append(txs, tx)
	}
	return txs, nil
}
