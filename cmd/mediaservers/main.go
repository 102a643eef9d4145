package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	nostr "github.com/MaviLabArt/Pidgeon-sub002"
	"github.com/MaviLabArt/Pidgeon-sub002/internal/config"
	"github.com/MaviLabArt/Pidgeon-sub002/sdk"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	cfg *config.Config
	log zerolog.Logger
)

var app = &cli.Command{
	Name:      "mediaservers",
	Usage:     "finds the Blossom and NIP-96 servers a nostr user has announced",
	UsageText: "mediaservers [--relay wss://...] <resolve|serve> ...",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to a YAML config file (default ./.mediaservers.yaml or $XDG_CONFIG_HOME/mediaservers/config.yaml)",
			Sources: cli.EnvVars("MEDIASERVERS_CONFIG"),
		},
		&cli.StringSliceFlag{
			Name:    "relay",
			Aliases: []string{"r"},
			Usage:   "relay to query for every pubkey, replaces the configured ones, can be repeated",
			Sources: cli.EnvVars("MEDIASERVERS_RELAYS"),
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "time limit for resolving one pubkey",
			Value:   config.DefaultTimeout,
			Sources: cli.EnvVars("MEDIASERVERS_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "trace, debug, info, warn, error or disabled",
			Value:   config.DefaultLogLevel,
			Sources: cli.EnvVars("MEDIASERVERS_LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:    "assume-valid",
			Usage:   "don't verify event signatures",
			Sources: cli.EnvVars("MEDIASERVERS_ASSUME_VALID"),
		},
	},
	Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
		var err error
		if cfg, err = config.LoadOrDefault(c.String("config")); err != nil {
			return ctx, err
		}

		// flags given explicitly win over the config file
		if c.IsSet("relay") {
			cfg.Relays = c.StringSlice("relay")
		}
		if c.IsSet("timeout") {
			cfg.Timeout = c.Duration("timeout")
		}
		if c.IsSet("log-level") {
			cfg.LogLevel = c.String("log-level")
		}
		if c.IsSet("assume-valid") {
			cfg.AssumeValid = c.Bool("assume-valid")
		}
		if err := cfg.Validate(); err != nil {
			return ctx, fmt.Errorf("invalid configuration: %w", err)
		}

		log = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stderr
		})).Level(cfg.Level()).With().Timestamp().Logger()
		nostr.SetLogger(log.With().Str("module", "nostr").Logger())

		log.Debug().Strs("relays", cfg.Relays).Dur("timeout", cfg.Timeout).Msg("configuration loaded")
		return ctx, nil
	},
	Commands: []*cli.Command{
		resolve,
		serve,
	},
}

// newSystem builds an sdk.System out of the loaded configuration.
func newSystem(withCache bool) *sdk.System {
	mods := []sdk.SystemModifier{
		sdk.WithDefaultRelays(cfg.Relays...),
		sdk.WithPenaltyBox(cfg.PenaltyBox),
		sdk.WithLogger(log),
	}
	if cfg.AssumeValid {
		mods = append(mods, sdk.WithAssumeValid())
	}
	if withCache && cfg.CacheTTL > 0 {
		mods = append(mods, sdk.WithCacheTTL(cfg.CacheTTL))
	} else {
		mods = append(mods, sdk.WithoutCache())
	}
	return sdk.NewSystem(mods...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
