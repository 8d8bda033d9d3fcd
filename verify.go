package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/frostbit/frostbit/frost"
	"github.com/frostbit/frostbit/keystore"
	"github.com/frostbit/frostbit/session"
	"github.com/frostbit/frostbit/taproot"
	"github.com/urfave/cli/v3"
)

// testMessage is what the verify subcommand signs: the ASCII bytes of the hex
// string, not the 32 bytes it spells out.
const testMessage = "0x68c158664c20d9d7df31a747782bcc9d36d1f595c36184ee0fc62627e2a72fc0"

var testCmd = &cli.Command{
	Name:  "test",
	Usage: "split the PRIVATE_KEY secret into a 3-of-5 group and derive its taproot address",
	Action: func(ctx context.Context, c *cli.Command) error {
		applyVerbosity()
		echoName(c)

		st, err := splitFromEnv()
		if err != nil {
			return err
		}

		params, err := taproot.Network(netFlag)
		if err != nil {
			return err
		}
		address, err := taproot.Address(st.PublicKeys.GroupPublicKey, params)
		if err != nil {
			return err
		}

		log.Info().
			Str("pubkey", hex.EncodeToString(st.PublicKeys.GroupPublicKey.X.Bytes()[:])).
			Msg("group verifying key")
		log.Info().Str("address", address).Msg("taproot address")

		return nil
	},
}

var verifyCmd = &cli.Command{
	Name:  "verify",
	Usage: "split the PRIVATE_KEY secret, run a threshold signing session and verify the result",
	Action: func(ctx context.Context, c *cli.Command) error {
		applyVerbosity()
		echoName(c)

		st, err := splitFromEnv()
		if err != nil {
			return err
		}

		result, err := session.Sign(ctx, st, []byte(testMessage), rand.Reader)
		if err != nil {
			return fmt.Errorf("signing session failed: %w", err)
		}

		log.Info().
			Str("signature", hex.EncodeToString(result.Signature)).
			Bool("valid", result.Valid).
			Msg("aggregate signature")

		if !result.Valid {
			return fmt.Errorf("aggregate signature failed verification against the group key")
		}

		return nil
	},
}

// splitFromEnv shards the externally supplied secret into an in-memory key
// material store. Nothing touches the disk here.
func splitFromEnv() (*keystore.Store, error) {
	secret, err := secretFromEnv()
	if err != nil {
		return nil, err
	}
	defer secret.Zero()

	packages, pubkeys, err := frost.Split(secret, minSigners, maxSigners, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to split secret: %w", err)
	}

	return keystore.New(packages, pubkeys), nil
}

func secretFromEnv() (*btcec.ModNScalar, error) {
	if s.PrivateKey == "" {
		return nil, fmt.Errorf("%w: PRIVATE_KEY is not set", frost.ErrInvalidSecret)
	}

	raw, err := hex.DecodeString(strings.TrimPrefix(s.PrivateKey, "0x"))
	if err != nil || len(raw) != 32 {
		return nil, fmt.Errorf("%w: PRIVATE_KEY must be 32 hex-encoded bytes", frost.ErrInvalidSecret)
	}
	defer func() {
		for i := range raw {
			raw[i] = 0
		}
	}()

	secret := new(btcec.ModNScalar)
	if overflow := secret.SetByteSlice(raw); overflow || secret.IsZero() {
		return nil, frost.ErrInvalidSecret
	}

	return secret, nil
}
