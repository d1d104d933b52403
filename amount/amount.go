package amount

import (
	"errors"
	"math"
	"strconv"
)

const (
	MicroAlgosPerAlgo = 1e6
)

type Unit int

const (
	KiloAlgo  Unit = 3
	Algo      Unit = 0
	MilliAlgo Unit = -3
	MicroAlgo Unit = -6
)

func (u Unit) String() string {
	switch u {
	case KiloAlgo:
		return "kALGO"
	case Algo:
		return "ALGO"
	case MilliAlgo:
		return "mALGO"
	case MicroAlgo:
		return "μALGO"
	default:
		return "1e" + strconv.FormatInt(int64(u), 10) + " ALGO"
	}
}

// MicroAlgos is the atomic fee and balance unit of the ledger.
// Each unit equals 1e-6 of an Algo.
type MicroAlgos uint64

func round(f float64) MicroAlgos {
	return MicroAlgos(f + 0.5)
}

// NewAmount converts a whole-Algo quantity to MicroAlgos.
func NewAmount(f float64) (MicroAlgos, error) {
	switch {
	case math.IsNaN(f),
		math.IsInf(f, 1),
		math.IsInf(f, -1):
		return 0, errors.New("invalid ALGO amount")
	case f < 0:
		return 0, errors.New("negative ALGO amount")
	case f*MicroAlgosPerAlgo >= math.MaxUint64:
		return 0, errors.New("ALGO amount overflows")
	}

	return round(f * MicroAlgosPerAlgo), nil
}

// FromString parses a count of MicroAlgos.
func FromString(str string) (MicroAlgos, error) {
	v, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0, err
	}
	return MicroAlgos(v), nil
}

func (a MicroAlgos) ToUnit(u Unit) float64 {
	return float64(a) / math.Pow10(int(u+6))
}

func (a MicroAlgos) Format(u Unit) string {
	units := " " + u.String()
	formatted := strconv.FormatFloat(a.ToUnit(u), 'f', -int(u+6), 64)
	return formatted + units
}

// String is the equivalent of calling Format with Algo.
func (a MicroAlgos) String() string {
	return a.Format(Algo)
}

// Max returns the larger of a and b.
func Max(a, b MicroAlgos) MicroAlgos {
	if a > b {
		return a
	}
	return b
}

// MulUint64 multiplies and reports overflow.
func (a MicroAlgos) MulUint64(n uint64) (MicroAlgos, bool) {
	if a == 0 || n == 0 {
		return 0, true
	}
	product := uint64(a) * n
	if product/n != uint64(a) {
		return 0, false
	}
	return MicroAlgos(product), true
}
