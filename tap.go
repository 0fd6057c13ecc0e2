// Package tap is a Quickbase extraction connector: it reads rows from the
// tables of a Quickbase app and emits SCHEMA, RECORD and STATE interchange
// messages for a downstream loader.
package tap

import (
	"context"
	"fmt"
	"io"

	"github.com/MainspringEnergy/tap-quickbase-json/catalog"
	"github.com/MainspringEnergy/tap-quickbase-json/client"
	"github.com/MainspringEnergy/tap-quickbase-json/config"
	"github.com/MainspringEnergy/tap-quickbase-json/logger"
	"github.com/MainspringEnergy/tap-quickbase-json/message"
	"github.com/MainspringEnergy/tap-quickbase-json/state"
	"github.com/MainspringEnergy/tap-quickbase-json/stream"
)

type Connector interface {
	// Discover lists the app's tables as catalog entries.
	Discover(ctx context.Context) (*catalog.Catalog, error)
	// Sync runs every selected stream to completion, sequentially. A
	// stream-fatal error is logged and the remaining streams still run; a
	// connection-fatal error aborts the run and is returned.
	Sync(ctx context.Context) error
	// State exposes the bookmark state the next run should start from.
	State() *state.State
	GetConfig() *config.Config
}

type connector struct {
	cfg    *config.Config
	client client.Client
	writer message.Writer
	state  *state.State
}

// NewConnector validates cfg and wires the client, output writer and
// bookmark state together. st carries the previous run's bookmarks; pass
// nil on a first run.
func NewConnector(cfg config.Config, out io.Writer, st *state.State) (Connector, error) {
	cfg.SetDefault()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	cfg.Print()

	logger.SetLevel(cfg.Logger.LogLevel)

	if st == nil {
		st = state.New()
	}

	return &connector{
		cfg: &cfg,
		client: client.New(client.Config{
			Hostname:       cfg.Hostname,
			UserToken:      cfg.UserToken,
			AppID:          cfg.AppID,
			UserAgent:      cfg.UserAgent,
			BaseURL:        cfg.BaseURL,
			RequestTimeout: cfg.RequestTimeout,
			RetryAttempts:  cfg.RetryAttempts,
		}),
		writer: message.NewWriter(out),
		state:  st,
	}, nil
}

func (c *connector) Discover(ctx context.Context) (*catalog.Catalog, error) {
	return catalog.Discover(ctx, c.client)
}

func (c *connector) Sync(ctx context.Context) error {
	streams := c.cfg.Streams
	if len(streams) == 0 {
		cat, err := c.Discover(ctx)
		if err != nil {
			return fmt.Errorf("resolve streams: %w", err)
		}
		streams = cat.StreamConfigs()
	}

	logger.Info("sync started", "streams", len(streams))

	var failed int
	for _, sc := range streams {
		s := stream.New(sc, c.cfg.StartDate, c.client, c.writer, c.state)

		if err := s.Sync(ctx); err != nil {
			if client.IsConnectionFatal(err) {
				return fmt.Errorf("sync aborted on stream %s: %w", s.Name(), err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			logger.Error("stream sync failed", "stream", s.Name(), "error", err)
			continue
		}
	}

	logger.Info("sync completed", "streams", len(streams), "failed", failed)
	return nil
}

func (c *connector) State() *state.State {
	return c.state
}

func (c *connector) GetConfig() *config.Config {
	return c.cfg
}
