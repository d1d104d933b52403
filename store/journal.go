package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/thrylos-labs/sandnet/amount"
	"github.com/thrylos-labs/sandnet/types"
)

// Receipt records one broadcast transaction.
type Receipt struct {
	TxID           string            `json:"txid"`
	Sender         string            `json:"sender"`
	Type           types.TxType      `json:"type"`
	AssetName      string            `json:"asset_name,omitempty"`
	FirstValid     types.Round       `json:"first_valid"`
	LastValid      types.Round       `json:"last_valid"`
	Fee            amount.MicroAlgos `json:"fee"`
	SubmittedAt    time.Time         `json:"submitted_at"`
	ConfirmedRound types.Round       `json:"confirmed_round,omitempty"`
	AssetIndex     types.AssetIndex  `json:"asset_index,omitempty"`
}

// Confirmed reports whether the transaction was seen in a block.
func (r Receipt) Confirmed() bool {
	return r.ConfirmedRound > 0
}

// NewReceipt fills a receipt from a broadcast transaction.
func NewReceipt(txid string, tx types.Transaction, submittedAt time.Time) Receipt {
	return Receipt{
		TxID:        txid,
		Sender:      tx.Sender.String(),
		Type:        tx.Type,
		AssetName:   tx.AssetParams.AssetName,
		FirstValid:  tx.FirstValid,
		LastValid:   tx.LastValid,
		Fee:         tx.Fee,
		SubmittedAt: submittedAt.UTC(),
	}
}

// Journal is the submission history kept by the CLI.
type Journal struct {
	db *Database
}

func NewJournal(db *Database) *Journal {
	return &Journal{db: db}
}

// OpenJournal opens a journal under dir; an empty dir keeps it in memory.
func OpenJournal(dir string) (*Journal, error) {
	var (
		db  *Database
		err error
	)
	if dir == "" {
		db, err = NewInMemoryDatabase()
	} else {
		db, err = NewDatabase(dir)
	}
	if err != nil {
		return nil, err
	}
	return NewJournal(db), nil
}

func receiptKey(txid string) []byte {
	return []byte(ReceiptPrefix + txid)
}

// Put stores r, replacing any receipt with the same id.
func (j *Journal) Put(r Receipt) error {
	if r.TxID == "" {
		return fmt.Errorf("receipt has no transaction id")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("error marshalling receipt: %v", err)
	}
	if err := j.db.Set(receiptKey(r.TxID), data); err != nil {
		return fmt.Errorf("error storing receipt %s: %v", r.TxID, err)
	}
	return nil
}

// Get returns the receipt for txid or an error wrapping ErrNotFound.
func (j *Journal) Get(txid string) (Receipt, error) {
	data, err := j.db.Get(receiptKey(txid))
	if err != nil {
		return Receipt{}, fmt.Errorf("receipt %s: %w", txid, err)
	}
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return Receipt{}, fmt.Errorf("error unmarshalling receipt %s: %v", txid, err)
	}
	return r, nil
}

// List returns every receipt, oldest submission first.
func (j *Journal) List() ([]Receipt, error) {
	var receipts []Receipt
	err := j.db.Scan([]byte(ReceiptPrefix), func(key, value []byte) error {
		var r Receipt
		if err := json.Unmarshal(value, &r); err != nil {
			return fmt.Errorf("error unmarshalling receipt %s: %v", key, err)
		}
		receipts = append(receipts, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(receipts, func(a, b int) bool {
		return receipts[a].SubmittedAt.Before(receipts[b].SubmittedAt)
	})
	return receipts, nil
}

// MarkConfirmed records the round (and created asset, if any) of txid.
func (j *Journal) MarkConfirmed(txid string, round types.Round, assetIndex types.AssetIndex) error {
	err := j.db.Update(receiptKey(txid), func(old []byte) ([]byte, error) {
		var r Receipt
		if err := json.Unmarshal(old, &r); err != nil {
			return nil, err
		}
		r.ConfirmedRound = round
		if assetIndex != 0 {
			r.AssetIndex = assetIndex
		}
		return json.Marshal(r)
	})
	if err != nil {
		return fmt.Errorf("failed to confirm receipt %s: %w", txid, err)
	}
	return nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
