package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	nostr "github.com/MaviLabArt/Pidgeon-sub002"
	"github.com/MaviLabArt/Pidgeon-sub002/mediaservers"
	"github.com/MaviLabArt/Pidgeon-sub002/sdk"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"golang.org/x/sync/errgroup"
)

var serve = &cli.Command{
	Name:        "serve",
	Usage:       "serves resolved media servers over HTTP",
	Description: "GET /<pubkey|npub|nprofile>[?relay=wss://...] returns the resolved directory as JSON.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "listen",
			Aliases: []string{"l"},
			Usage:   "address to listen on",
			Sources: cli.EnvVars("MEDIASERVERS_LISTEN"),
		},
		&cli.DurationFlag{
			Name:    "cache-ttl",
			Usage:   "how long to reuse a resolved directory, 0 disables caching",
			Sources: cli.EnvVars("MEDIASERVERS_CACHE_TTL"),
		},
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		if c.IsSet("listen") {
			cfg.Listen = c.String("listen")
		}
		if c.IsSet("cache-ttl") {
			cfg.CacheTTL = c.Duration("cache-ttl")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		sys := newSystem(true)
		defer sys.Close()

		server := newServer(newHandler(sys.FetchMediaServers, cfg.Timeout, log))

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info().Str("listen", cfg.Listen).Msg("serving")
			return server.ListenAndServe(cfg.Listen)
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.ShutdownWithContext(shutdownCtx)
		})

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

type fetchFunc func(ctx context.Context, pk nostr.PubKey, relays ...string) (mediaservers.Directory, error)

type errorResponse struct {
	Error string `json:"error"`
}

// newHandler answers GET /{pubkey} with the Directory of that user, CORS enabled for
// any origin.
func newHandler(fetch fetchFunc, timeout time.Duration, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, errorResponse{"missing pubkey, use GET /<pubkey|npub|nprofile>"})
	})

	mux.HandleFunc("GET /{pubkey}", func(w http.ResponseWriter, r *http.Request) {
		input := r.PathValue("pubkey")
		pk, hints, err := sdk.InputToPubKey(input)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
			return
		}

		relays := make([]string, 0, len(hints)+2)
		for _, relay := range r.URL.Query()["relay"] {
			if relay = strings.TrimSpace(relay); relay != "" {
				relays = append(relays, relay)
			}
		}
		relays = append(relays, hints...)

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		start := time.Now()
		dir, err := fetch(ctx, pk, relays...)
		if err != nil {
			log.Warn().Err(err).Str("pubkey", pk.Hex()).Msg("resolution failed")
			writeJSON(w, http.StatusBadGateway, errorResponse{err.Error()})
			return
		}

		log.Debug().Str("pubkey", pk.Hex()).Dur("took", time.Since(start)).
			Int("blossom", len(dir.Blossom)).Int("nip96", len(dir.NIP96)).Msg("resolved")
		writeJSON(w, http.StatusOK, dir)
	})

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}).Handler(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

// newServer puts handler behind fasthttp.
func newServer(handler http.Handler) *fasthttp.Server {
	return &fasthttp.Server{
		Name:               "mediaservers",
		Handler:            fasthttpadaptor.NewFastHTTPHandler(handler),
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       30 * time.Second,
		MaxRequestBodySize: 4 * 1024,
	}
}
