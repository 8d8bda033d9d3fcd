package taproot

import (
	"crypto/rand"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/frostbit/frostbit/frost"
	"github.com/stretchr/testify/require"
)

func groupKey(t *testing.T) *btcec.JacobianPoint {
	t.Helper()
	_, pubkeys, err := frost.Generate(3, 5, rand.Reader)
	require.NoError(t, err)
	return pubkeys.GroupPublicKey
}

func TestMainnetAddressShape(t *testing.T) {
	addr, err := Address(groupKey(t), &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(addr, "bc1p"), "got %s", addr)
	require.Len(t, addr, 62)
}

func TestAddressIsDeterministic(t *testing.T) {
	key := groupKey(t)

	first, err := Address(key, &chaincfg.MainNetParams)
	require.NoError(t, err)
	second, err := Address(key, &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Equal(t, first, second)

	// a different key must yield a different address
	other, err := Address(groupKey(t), &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.NotEqual(t, first, other)

	// and a different network a different encoding
	testnet, err := Address(key, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(testnet, "tb1p"), "got %s", testnet)
	require.NotEqual(t, first, testnet)
}

func TestGeneratorAddress(t *testing.T) {
	// the untweaked internal key is x(G), e.g. a group dealt from secret 1
	g := new(btcec.JacobianPoint)
	btcec.Generator().AsJacobian(g)

	packages, pubkeys, err := frost.Split(new(btcec.ModNScalar).SetInt(1), 3, 5, rand.Reader)
	require.NoError(t, err)
	require.Len(t, packages, 5)

	fromGenerator, err := Address(g, &chaincfg.MainNetParams)
	require.NoError(t, err)
	fromGroup, err := Address(pubkeys.GroupPublicKey, &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Equal(t, fromGenerator, fromGroup)
}

func TestInvalidPoints(t *testing.T) {
	_, err := Address(nil, &chaincfg.MainNetParams)
	require.ErrorIs(t, err, ErrInvalidPoint)

	_, err = Address(new(btcec.JacobianPoint), &chaincfg.MainNetParams)
	require.ErrorIs(t, err, ErrInvalidPoint)
}

func TestNetworkSelection(t *testing.T) {
	params, err := Network("")
	require.NoError(t, err)
	require.Equal(t, &chaincfg.MainNetParams, params)

	params, err = Network("mainnet")
	require.NoError(t, err)
	require.Equal(t, &chaincfg.MainNetParams, params)

	params, err = Network("signet")
	require.NoError(t, err)
	require.Equal(t, &chaincfg.SigNetParams, params)

	_, err = Network("litecoin")
	require.Error(t, err)
}
