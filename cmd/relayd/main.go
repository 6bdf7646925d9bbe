// relayd is the lobby/relay daemon: a best-effort single-room broker that
// introduces two clients and relays their UI-synchrony messages. Game state
// stays authoritative in the ledger; relayd can be restarted at any time.
package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ohloss/pirate-cards-go/pkg/relay"
)

func main() {
	addr := flag.String("addr", ":8780", "listen address")
	pretty := flag.Bool("pretty", false, "human-readable log output")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "relayd").Logger()
	if *pretty {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	hub := relay.NewHub(log)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("addr", *addr).Msg("relay listening")
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("relay stopped")
	}
}
