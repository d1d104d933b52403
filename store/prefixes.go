package store

// Storage prefixes
const (
	ReceiptPrefix = "receipt-"
)
