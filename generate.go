package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/frostbit/frostbit/frost"
	"github.com/frostbit/frostbit/keystore"
	"github.com/frostbit/frostbit/taproot"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v3"
)

var generateCmd = &cli.Command{
	Name:  "generate",
	Usage: "deal a fresh 3-of-5 signing group and write the key material store",
	Action: func(ctx context.Context, c *cli.Command) error {
		applyVerbosity()
		echoName(c)

		packages, pubkeys, err := frost.Generate(minSigners, maxSigners, rand.Reader)
		if err != nil {
			return fmt.Errorf("key generation failed: %w", err)
		}

		path, err := storePath()
		if err != nil {
			return err
		}

		st := keystore.New(packages, pubkeys)
		if err := st.Save(path); err != nil {
			return fmt.Errorf("failed to persist key material: %w", err)
		}
		log.Debug().Int("key_packages", len(st.KeyPackages)).Str("path", path).Msg("key material written")

		params, err := taproot.Network(netFlag)
		if err != nil {
			return err
		}
		address, err := taproot.Address(pubkeys.GroupPublicKey, params)
		if err != nil {
			return err
		}

		log.Info().
			Str("pubkey", hex.EncodeToString(pubkeys.GroupPublicKey.X.Bytes()[:])).
			Msg("group verifying key")
		log.Info().Str("address", address).Msg("taproot address")

		return nil
	},
}

var loadCmd = &cli.Command{
	Name:  "load",
	Usage: "read the key material store back and validate its structure",
	Action: func(ctx context.Context, c *cli.Command) error {
		applyVerbosity()
		echoName(c)

		path, err := storePath()
		if err != nil {
			return err
		}

		st, err := keystore.Load(path)
		if err != nil {
			return err
		}

		log.Info().
			Int("key_packages", len(st.KeyPackages)).
			Int("threshold", st.PublicKeys.Threshold).
			Str("pubkey", hex.EncodeToString(st.PublicKeys.GroupPublicKey.X.Bytes()[:])).
			Msg("store loaded")

		return nil
	},
}

func storePath() (string, error) {
	path, err := homedir.Expand(storeFlag)
	if err != nil {
		return "", fmt.Errorf("can't expand store path: %w", err)
	}
	return path, nil
}
