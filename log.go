package nostr

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Logger is used by relays and pools. Raise its level to zerolog.DebugLevel to
// see the websocket traffic, or replace it entirely with SetLogger.
var Logger = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
	w.Out = os.Stderr
})).Level(zerolog.WarnLevel).With().Timestamp().Str("module", "nostr").Logger()

func SetLogger(l zerolog.Logger) { Logger = l }

func debugLogf(str string, args ...any) {
	if e := Logger.Debug(); e.Enabled() {
		e.Msg(fmt.Sprintf(str, args...))
	}
}

func infoLogf(str string, args ...any) {
	if e := Logger.Info(); e.Enabled() {
		e.Msg(fmt.Sprintf(str, args...))
	}
}
