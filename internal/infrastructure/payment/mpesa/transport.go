package mpesa

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// LoggingRoundTripper logs every outbound Daraja request.
type LoggingRoundTripper struct {
	Proxied http.RoundTripper
	Log     zerolog.Logger
}

func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	lrt.Log.Debug().Str("method", req.Method).Str("url", req.URL.Redacted()).Msg("mpesa request started")

	resp, err := lrt.Proxied.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		lrt.Log.Error().Err(err).
			Str("method", req.Method).
			Str("url", req.URL.Redacted()).
			Dur("duration", duration).
			Msg("mpesa request failed")
		return nil, err
	}

	lrt.Log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Int("status_code", resp.StatusCode).
		Dur("duration", duration).
		Msg("mpesa request completed")
	return resp, nil
}

func newHTTPClient(timeout time.Duration, log zerolog.Logger) *http.Client {
	return &http.Client{
		Transport: &LoggingRoundTripper{Proxied: http.DefaultTransport, Log: log},
		Timeout:   timeout,
	}
}
