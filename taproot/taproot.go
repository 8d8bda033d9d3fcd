// Package taproot renders a group verifying key as a BIP-341 pay-to-taproot
// address with no script tree attached (key-path spend only).
package taproot

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// ErrInvalidPoint is returned when the key can't serve as a taproot internal
// key.
var ErrInvalidPoint = errors.New("key can't be encoded as a taproot internal key")

// Network selects the address encoding parameters.
func Network(name string) (*chaincfg.Params, error) {
	switch name {
	case "", "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", name)
	}
}

// Address derives the P2TR address for the given group verifying key on the
// given network. The key's x coordinate is taken as the untweaked internal
// key and tweaked with the empty script tree per BIP-341. The result is a
// pure function of (key, network).
func Address(groupKey *btcec.JacobianPoint, params *chaincfg.Params) (string, error) {
	if groupKey == nil || (groupKey.X.IsZero() && groupKey.Y.IsZero()) {
		return "", fmt.Errorf("%w: point is nil or the identity", ErrInvalidPoint)
	}

	affine := *groupKey
	affine.ToAffine()

	internal, err := schnorr.ParsePubKey(affine.X.Bytes()[:])
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPoint, err)
	}

	outputKey := txscript.ComputeTaprootKeyNoScript(internal)

	addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), params)
	if err != nil {
		return "", fmt.Errorf("failed to encode taproot address: %w", err)
	}

	return addr.EncodeAddress(), nil
}
