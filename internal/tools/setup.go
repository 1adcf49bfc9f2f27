package tools

import (
	"context"
	"time"

	"google.golang.org/api/option"

	"github.com/soyeahso/brainquest/internal/logging"
)

// Options selects which tools to build.
type Options struct {
	GoogleAPIKey  string
	GoogleCX      string
	YouTubeAPIKey string
	Timeout       time.Duration
	Clock         func() time.Time

	// ClientOptions are passed to both Google API clients.
	ClientOptions []option.ClientOption
}

// Build registers the date/time tool and every search tool whose
// credentials are present.
func Build(ctx context.Context, opts Options, log *logging.Logger) (*Registry, error) {
	reg := NewRegistry(log, opts.Timeout)
	reg.Register(NewDateTime(opts.Clock))

	if opts.GoogleAPIKey != "" && opts.GoogleCX != "" {
		ws, err := NewWebSearch(ctx, opts.GoogleAPIKey, opts.GoogleCX, opts.ClientOptions...)
		if err != nil {
			return nil, err
		}
		reg.Register(ws)
	} else {
		reg.log.Info().Msg("google search not configured, googleSearch disabled")
	}

	if opts.YouTubeAPIKey != "" {
		vs, err := NewVideoSearch(ctx, opts.YouTubeAPIKey, opts.ClientOptions...)
		if err != nil {
			return nil, err
		}
		reg.Register(vs)
	} else {
		reg.log.Info().Msg("youtube not configured, youtubeSearch disabled")
	}

	return reg, nil
}
