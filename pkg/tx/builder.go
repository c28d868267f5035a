package tx

import (
	"fmt"

	"github.com/bitstark/bitstark-wallet/pkg/types"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// TxVersion is the version of transactions we build.
const TxVersion = 2

// Builder constructs unsigned transactions incrementally. The first
// error encountered is kept and returned by Build.
type Builder struct {
	tx     *wire.MsgTx
	params *chaincfg.Params
	err    error
}

// NewBuilder creates a new transaction builder for net.
func NewBuilder(net types.Network) *Builder {
	return &Builder{
		tx:     wire.NewMsgTx(TxVersion),
		params: net.Params(),
	}
}

// AddInput adds an input spending prevOut. Inputs signal replaceability.
func (b *Builder) AddInput(prevOut types.Outpoint) *Builder {
	in := wire.NewTxIn(wire.NewOutPoint(&prevOut.TxID, prevOut.Index), nil, nil)
	in.Sequence = wire.MaxTxInSequenceNum - 2
	b.tx.AddTxIn(in)
	return b
}

// AddOutput adds an output paying value satoshis to address.
func (b *Builder) AddOutput(address string, value uint64) *Builder {
	if b.err != nil {
		return b
	}
	script, err := PayToAddrScript(address, b.params)
	if err != nil {
		b.err = err
		return b
	}
	b.tx.AddTxOut(wire.NewTxOut(int64(value), script))
	return b
}

// AddMemo adds a zero-value OP_RETURN output carrying memo.
func (b *Builder) AddMemo(memo string) *Builder {
	if b.err != nil {
		return b
	}
	script, err := txscript.NullDataScript([]byte(memo))
	if err != nil {
		b.err = fmt.Errorf("%w: %v", ErrMemoTooLarge, err)
		return b
	}
	b.tx.AddTxOut(wire.NewTxOut(0, script))
	return b
}

// Build returns the constructed transaction.
func (b *Builder) Build() (*wire.MsgTx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

// PayToAddrScript returns the output script paying to address on params.
func PayToAddrScript(address string, params *chaincfg.Params) ([]byte, error) {
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, address, err)
	}
	if !addr.IsForNet(params) {
		return nil, fmt.Errorf("%w: %s is not a %s address", ErrInvalidAddress, address, params.Name)
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, address, err)
	}
	return script, nil
}
