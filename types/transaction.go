package types

import (
	"github.com/thrylos-labs/sandnet/amount"
	"github.com/thrylos-labs/sandnet/crypto/address"
	"github.com/thrylos-labs/sandnet/crypto/hash"
)

// TxType is the short wire name of a transaction kind.
type TxType string

const (
	PaymentTx     TxType = "pay"
	AssetConfigTx TxType = "acfg"
)

// Round is a unit of ledger progress, analogous to a block height.
type Round uint64

// AssetIndex identifies an asset on the ledger; 0 in a config transaction means "create".
type AssetIndex uint64

// TxIDPrefix separates transaction hashes and signatures from other signed objects.
const TxIDPrefix = "TX"

// Header holds the fields common to every transaction type.
type Header struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Sender      address.Address   `codec:"snd"`
	Fee         amount.MicroAlgos `codec:"fee"`
	FirstValid  Round             `codec:"fv"`
	LastValid   Round             `codec:"lv"`
	Note        []byte            `codec:"note"`
	GenesisID   string            `codec:"gen"`
	GenesisHash hash.Digest       `codec:"gh"`
}

// PaymentTxnFields moves Algos between accounts.
type PaymentTxnFields struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Receiver address.Address   `codec:"rcv"`
	Amount   amount.MicroAlgos `codec:"amt"`
}

// AssetConfigTxnFields creates (ConfigAsset == 0), reconfigures or destroys an asset.
// Destroy is a reconfiguration with empty AssetParams.
type AssetConfigTxnFields struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	ConfigAsset AssetIndex  `codec:"caid"`
	AssetParams AssetParams `codec:"apar"`
}

// Transaction is the unsigned transaction record.
type Transaction struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Type TxType `codec:"type"`

	Header
	PaymentTxnFields
	AssetConfigTxnFields
}

// Signature is a raw ed25519 signature.
type Signature [64]byte

// SignedTxn is a transaction together with the sender's signature.
type SignedTxn struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Sig Signature   `codec:"sig"`
	Txn Transaction `codec:"txn"`
}

// BytesToSign returns "TX" ‖ canonical msgpack, the message signed and hashed.
func (tx *Transaction) BytesToSign() []byte {
	encoded := Encode(tx)
	msg := make([]byte, 0, len(TxIDPrefix)+len(encoded))
	msg = append(msg, TxIDPrefix...)
	return append(msg, encoded...)
}

// ID returns the transaction identifier, the base32 sha512/256 of BytesToSign.
func (tx *Transaction) ID() string {
	return tx.Digest().String()
}

func (tx *Transaction) Digest() hash.Digest {
	return hash.Sum(tx.BytesToSign())
}

// Marshal serializes the transaction into canonical msgpack.
func (tx *Transaction) Marshal() []byte {
	return Encode(tx)
}

// Unmarshal parses canonical msgpack into the transaction.
func (tx *Transaction) Unmarshal(data []byte) error {
	return Decode(data, tx)
}

func (stx *SignedTxn) Marshal() []byte {
	return Encode(stx)
}

func (stx *SignedTxn) Unmarshal(data []byte) error {
	return Decode(data, stx)
}

// ID is the id of the wrapped transaction; the signature does not change it.
func (stx *SignedTxn) ID() string {
	return stx.Txn.ID()
}
