package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

// The demonstrator's fixed group shape: any 3 of 5 shareholders can sign.
const (
	minSigners = 3
	maxSigners = 5
)

type Settings struct {
	PrivateKey string `envconfig:"PRIVATE_KEY"`
}

var (
	s          Settings
	debugCount int
	storeFlag  string
	netFlag    string

	log = zerolog.New(os.Stderr).Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
)

var app = &cli.Command{
	Name:  "frostbit",
	Usage: "threshold schnorr signing over secp256k1, bound to a taproot identity",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "increase verbosity (repeatable)",
			Config:  cli.BoolConfig{Count: &debugCount},
		},
		&cli.StringFlag{
			Name:        "store",
			Usage:       "path to the key material store artifact",
			Value:       "keystore.json",
			Destination: &storeFlag,
		},
		&cli.StringFlag{
			Name:        "network",
			Usage:       "bitcoin network for address derivation (mainnet, testnet, signet, regtest)",
			Value:       "mainnet",
			Destination: &netFlag,
		},
	},
	Commands: []*cli.Command{
		generateCmd,
		loadCmd,
		testCmd,
		verifyCmd,
	},
}

func main() {
	godotenv.Load()

	if err := envconfig.Process("", &s); err != nil {
		log.Error().Err(err).Msg("couldn't process envconfig")
		os.Exit(1)
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Error().Msgf("%s", err)
		os.Exit(1)
	}
}

func applyVerbosity() {
	switch debugCount {
	case 0:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case 1:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}
}

func echoName(c *cli.Command) {
	if name := c.Args().First(); name != "" {
		log.Info().Msgf("value for name: %s", name)
	}
}
