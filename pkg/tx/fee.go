package tx

import (
	"github.com/btcsuite/btcd/wire"
)

// Serialized sizes of P2WPKH transaction parts, in bytes.
const (
	txOverhead     = 4 + 4 // version + locktime
	segwitMarker   = 2     // marker + flag, witness data
	p2wpkhInput    = 32 + 4 + 1 + 4
	p2wpkhWitness  = 1 + 1 + 72 + 1 + 33 // item count, DER sig with sighash byte, compressed pubkey
	p2wpkhOutput   = 8 + 1 + 22
	witnessScaling = 4
)

// EstimateSize returns the virtual size, in vbytes, of a transaction
// spending numInputs P2WPKH inputs to numOutputs P2WPKH outputs, plus an
// OP_RETURN output when memo is non-empty. Witness bytes count a quarter.
func EstimateSize(numInputs, numOutputs int, memo string) int {
	outputs := numOutputs
	memoBytes := 0
	if memo != "" {
		outputs++
		memoBytes = memoOutputSize(len(memo))
	}

	base := txOverhead +
		wire.VarIntSerializeSize(uint64(numInputs)) + numInputs*p2wpkhInput +
		wire.VarIntSerializeSize(uint64(outputs)) + numOutputs*p2wpkhOutput + memoBytes
	witness := 0
	if numInputs > 0 {
		witness = segwitMarker + numInputs*p2wpkhWitness
	}
	weight := base*witnessScaling + witness
	return (weight + witnessScaling - 1) / witnessScaling
}

// EstimateFee returns EstimateSize times feeRate (sat/vB).
func EstimateFee(numInputs, numOutputs int, memo string, feeRate uint64) uint64 {
	return uint64(EstimateSize(numInputs, numOutputs, memo)) * feeRate
}

// VirtualSize returns the exact virtual size of a serialized transaction.
func VirtualSize(msg *wire.MsgTx) int {
	weight := msg.SerializeSizeStripped()*(witnessScaling-1) + msg.SerializeSize()
	return (weight + witnessScaling - 1) / witnessScaling
}

// memoOutputSize is value + script length + OP_RETURN script.
func memoOutputSize(n int) int {
	script := 1 + n // OP_RETURN + data
	switch {
	case n <= 75:
		script++ // direct push
	case n <= 255:
		script += 2 // OP_PUSHDATA1 + length
	default:
		script += 3 // OP_PUSHDATA2 + length
	}
	return 8 + wire.VarIntSerializeSize(uint64(script)) + script
}
