// Package models defines the shared data model for the fraud-ring detection
// service: the transaction input record and the detection result structures
// returned by the core and serialized by the HTTP layer.
package models

import (
	"github.com/shopspring/decimal"
)

// Pattern labels attached to fraud rings and suspicious accounts.
const (
	PatternCycle    = "cycle"
	PatternSmurfing = "smurfing"
	PatternShell    = "shell"
)

// Transaction is a single transfer between two accounts. It is immutable for
// the duration of one analysis; the core never writes to it.
type Transaction struct {
	ID         string          `json:"transaction_id" binding:"required"`
	SenderID   string          `json:"sender_id" binding:"required"`
	ReceiverID string          `json:"receiver_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"gte=0"`
	Timestamp  string          `json:"timestamp" binding:"required"`
}

// FraudRing is a group of accounts implicated in one laundering pattern.
type FraudRing struct {
	RingID         string   `json:"ring_id"`
	MemberAccounts []string `json:"member_accounts"`
	PatternType    string   `json:"pattern_type"`
	RiskScore      float64  `json:"risk_score"`
}

// SuspiciousAccount is the merged per-account suspicion record across all
// rings the account belongs to. RingID references the single highest-scoring
// ring; DetectedPatterns is the union over all of them.
type SuspiciousAccount struct {
	AccountID        string   `json:"account_id"`
	SuspicionScore   float64  `json:"suspicion_score"`
	DetectedPatterns []string `json:"detected_patterns"`
	RingID           string   `json:"ring_id"`
}

// DetectionSummary carries batch-level counters for one analysis call.
type DetectionSummary struct {
	TotalAccountsAnalyzed     int     `json:"total_accounts_analyzed"`
	SuspiciousAccountsFlagged int     `json:"suspicious_accounts_flagged"`
	FraudRingsDetected        int     `json:"fraud_rings_detected"`
	ProcessingTimeSeconds     float64 `json:"processing_time_seconds"`
}

// DetectionResult is the complete output of one analysis call.
type DetectionResult struct {
	SuspiciousAccounts []SuspiciousAccount `json:"suspicious_accounts"`
	FraudRings         []FraudRing         `json:"fraud_rings"`
	Summary            DetectionSummary    `json:"summary"`
}

// AnalyzeRequest is the JSON body accepted by the analyze endpoint.
type AnalyzeRequest struct {
	Transactions []Transaction `json:"transactions" binding:"required,dive"`
}
