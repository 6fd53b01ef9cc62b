package enums

type TransactionType string

const (
	TransactionTypeCreditPurchase TransactionType = "credit_purchase"
	TransactionTypeSubscription   TransactionType = "subscription"
)

type TransactionStatus string

const (
	TransactionStatusSucceeded TransactionStatus = "succeeded"
	TransactionStatusFailed    TransactionStatus = "failed"
)
