package replicate

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("replicate: cbor encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("replicate: cbor decoder mode: %v", err))
	}
}

// Frame is one replicated durability change.
//
// CBOR encoding:
//
//	{
//	  1: entity,         // text
//	  2: durability,     // int
//	  3: maxDurability,  // int
//	  4: removed         // bool, omitted when false
//	}
type Frame struct {
	Entity        string `cbor:"1,keyasint"`
	Durability    int    `cbor:"2,keyasint"`
	MaxDurability int    `cbor:"3,keyasint"`
	Removed       bool   `cbor:"4,keyasint,omitempty"`
}

// Batch is what a flush produces. Seq increases by one per non-empty flush.
type Batch struct {
	Seq    uint64  `cbor:"1,keyasint"`
	Frames []Frame `cbor:"2,keyasint"`
}

func Encode(b Batch) ([]byte, error) {
	return encMode.Marshal(b)
}

func Decode(data []byte) (Batch, error) {
	var b Batch
	if err := decMode.Unmarshal(data, &b); err != nil {
		return Batch{}, fmt.Errorf("decode batch: %w", err)
	}
	return b, nil
}
