package types

import (
	"fmt"

	"github.com/thrylos-labs/sandnet/amount"
	"github.com/thrylos-labs/sandnet/crypto/hash"
)

// SuggestedParams is the ledger node's snapshot of what a well-formed
// transaction needs. It says nothing about freshness beyond LastRound.
type SuggestedParams struct {
	ConsensusVersion string            `json:"consensus-version"`
	Fee              amount.MicroAlgos `json:"fee"`
	GenesisHash      []byte            `json:"genesis-hash"`
	GenesisID        string            `json:"genesis-id"`
	LastRound        Round             `json:"last-round"`
	MinFee           amount.MicroAlgos `json:"min-fee"`
}

// GenesisDigest returns the genesis hash as a fixed-size digest.
func (p SuggestedParams) GenesisDigest() (hash.Digest, error) {
	d, err := hash.FromBytes(p.GenesisHash)
	if err != nil {
		return hash.Digest{}, fmt.Errorf("invalid genesis hash: %v", err)
	}
	return d, nil
}

// NodeStatus is the subset of node status the client reads.
type NodeStatus struct {
	LastRound          Round  `json:"last-round"`
	LastVersion        string `json:"last-version"`
	TimeSinceLastRound int64  `json:"time-since-last-round"`
	CatchupTime        int64  `json:"catchup-time"`
}

// PendingTransaction reports where a submitted transaction is.
// ConfirmedRound is 0 until the transaction lands; PoolError is set when the
// pool dropped it.
type PendingTransaction struct {
	ConfirmedRound Round      `json:"confirmed-round,omitempty"`
	PoolError      string     `json:"pool-error"`
	AssetIndex     AssetIndex `json:"asset-index,omitempty"`
}

// TransactionID is the broadcast reply.
type TransactionID struct {
	TxID string `json:"txId"`
}
