package tx

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bitstark/bitstark-wallet/pkg/crypto"
	"github.com/bitstark/bitstark-wallet/pkg/types"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// PSBT signing errors.
var (
	// ErrNoSignableInputs is returned when a key owns none of the inputs.
	ErrNoSignableInputs = errors.New("key does not own any input")
	// ErrBadSignature is returned when a fresh signature fails to verify
	// against the signing key.
	ErrBadSignature = errors.New("signature does not verify")
)

// ToPSBT converts a checked plan into an unsigned BIP-174 packet with
// witness UTXO data on every input. The memo, if any, is the last output.
func ToPSBT(p *Plan, net types.Network) (*psbt.Packet, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}

	b := NewBuilder(net)
	for _, in := range p.Inputs {
		b.AddInput(in.Outpoint)
	}
	for _, o := range p.Outputs {
		b.AddOutput(o.Address, o.Value)
	}
	if p.Memo != "" {
		b.AddMemo(p.Memo)
	}
	msg, err := b.Build()
	if err != nil {
		return nil, err
	}

	packet, err := psbt.NewFromUnsignedTx(msg)
	if err != nil {
		return nil, fmt.Errorf("create psbt: %w", err)
	}
	for i, in := range p.Inputs {
		script := in.Script
		if len(script) == 0 {
			script, err = PayToAddrScript(in.Address, net.Params())
			if err != nil {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
		}
		packet.Inputs[i].WitnessUtxo = wire.NewTxOut(int64(in.Value), script)
		packet.Inputs[i].SighashType = txscript.SigHashAll
	}
	return packet, nil
}

// EncodePSBT returns the base64 transport form of packet.
func EncodePSBT(packet *psbt.Packet) (string, error) {
	return packet.B64Encode()
}

// DecodePSBT parses the base64 transport form.
func DecodePSBT(b64 string) (*psbt.Packet, error) {
	packet, err := psbt.NewFromRawBytes(bytes.NewReader([]byte(b64)), true)
	if err != nil {
		return nil, fmt.Errorf("decode psbt: %w", err)
	}
	return packet, nil
}

// SignPSBT signs every P2WPKH input of packet that pays to key, finalizes
// the packet and extracts the network transaction. Every input must be
// owned by key for finalization to succeed.
func SignPSBT(packet *psbt.Packet, key *crypto.PrivateKey) (*wire.MsgTx, error) {
	pub := key.PublicKey()
	ownScript, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(crypto.Hash160(pub)).
		Script()
	if err != nil {
		return nil, fmt.Errorf("build witness program: %w", err)
	}

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, txIn := range packet.UnsignedTx.TxIn {
		wu := packet.Inputs[i].WitnessUtxo
		if wu == nil {
			return nil, fmt.Errorf("input %d: missing witness utxo", i)
		}
		fetcher.AddPrevOut(txIn.PreviousOutPoint, wu)
	}
	sigHashes := txscript.NewTxSigHashes(packet.UnsignedTx, fetcher)

	updater, err := psbt.NewUpdater(packet)
	if err != nil {
		return nil, fmt.Errorf("psbt updater: %w", err)
	}

	signed := 0
	for i := range packet.Inputs {
		wu := packet.Inputs[i].WitnessUtxo
		if !bytes.Equal(wu.PkScript, ownScript) {
			continue
		}
		sig, err := signInput(packet, sigHashes, i, key, pub)
		if err != nil {
			return nil, err
		}
		outcome, err := updater.Sign(i, sig, pub, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("add signature to input %d: %w", i, err)
		}
		if outcome != psbt.SignSuccesful {
			return nil, fmt.Errorf("add signature to input %d: outcome %d", i, outcome)
		}
		signed++
	}
	if signed == 0 {
		return nil, ErrNoSignableInputs
	}

	if err := psbt.MaybeFinalizeAll(packet); err != nil {
		return nil, fmt.Errorf("finalize psbt: %w", err)
	}
	msg, err := psbt.Extract(packet)
	if err != nil {
		return nil, fmt.Errorf("extract transaction: %w", err)
	}
	return msg, nil
}

// signInput returns the BIP-143 witness signature for input i with the
// sighash byte appended. The signature is verified before it is returned.
func signInput(packet *psbt.Packet, sigHashes *txscript.TxSigHashes, i int, key *crypto.PrivateKey, pub []byte) ([]byte, error) {
	wu := packet.Inputs[i].WitnessUtxo
	hash, err := txscript.CalcWitnessSigHash(wu.PkScript, sigHashes, txscript.SigHashAll, packet.UnsignedTx, i, wu.Value)
	if err != nil {
		return nil, fmt.Errorf("sighash input %d: %w", i, err)
	}
	der, err := key.Sign(hash)
	if err != nil {
		return nil, fmt.Errorf("sign input %d: %w", i, err)
	}
	if !crypto.VerifySignature(hash, der, pub) {
		return nil, fmt.Errorf("input %d: %w", i, ErrBadSignature)
	}
	return append(der, byte(txscript.SigHashAll)), nil
}
