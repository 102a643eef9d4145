package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/MaviLabArt/Pidgeon-sub002/mediaservers"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

type resolution struct {
	Input   string                  `json:"input"`
	Servers *mediaservers.Directory `json:"servers,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

var resolve = &cli.Command{
	Name:        "resolve",
	ArgsUsage:   "<pubkey|npub|nprofile>...",
	Usage:       "prints the media servers of each given user",
	Description: "queries the configured relays (plus the hints inside nprofile codes) for the latest kind:10063 and kind:10096 lists of every argument.",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print a JSON array instead of text",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "how many users to resolve at the same time",
			Value: 4,
		},
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		inputs := c.Args().Slice()
		if len(inputs) == 0 {
			return fmt.Errorf("nothing to resolve, give at least one pubkey")
		}

		sys := newSystem(false)
		defer sys.Close()

		results := make([]resolution, len(inputs))

		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(max(1, int(c.Int("concurrency"))))
		for i, input := range inputs {
			g.Go(func() error {
				ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
				defer cancel()

				results[i].Input = input
				dir, err := sys.Resolver.Resolve(ctx, mediaservers.Request{PubKey: input})
				if err != nil {
					log.Warn().Err(err).Str("input", input).Msg("failed to resolve")
					results[i].Error = err.Error()
					return nil
				}
				results[i].Servers = &dir
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if c.Bool("json") {
			b, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(b))
		} else {
			for _, res := range results {
				fmt.Fprint(os.Stdout, formatResolution(res))
			}
		}

		var failed int
		for _, res := range results {
			if res.Error != "" {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d users couldn't be resolved", failed, len(results))
		}
		return nil
	},
}

func formatResolution(res resolution) string {
	var sb strings.Builder
	sb.WriteString(res.Input)
	sb.WriteByte('\n')

	if res.Servers == nil {
		sb.WriteString("  error: ")
		sb.WriteString(res.Error)
		sb.WriteByte('\n')
		return sb.String()
	}

	for _, family := range mediaservers.Families {
		servers := res.Servers.Servers(family)
		if len(servers) == 0 {
			fmt.Fprintf(&sb, "  %s: none\n", family)
			continue
		}
		for _, server := range servers {
			fmt.Fprintf(&sb, "  %s: %s\n", family, server)
		}
	}
	return sb.String()
}
