package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/soyeahso/brainquest/internal/config"
	"github.com/soyeahso/brainquest/internal/hooks"
	"github.com/soyeahso/brainquest/internal/llm"
	"github.com/soyeahso/brainquest/internal/logging"
	"github.com/soyeahso/brainquest/internal/memory"
	"github.com/soyeahso/brainquest/internal/quiz"
	"github.com/soyeahso/brainquest/internal/relay"
	"github.com/soyeahso/brainquest/internal/store"
	"github.com/soyeahso/brainquest/internal/tools"
)

// app holds the wired components shared by serve and the one-shot commands.
type app struct {
	cfg    config.Config
	hooks  *hooks.Manager
	memory memory.Store
	tools  *tools.Registry
	relay  *relay.Relay
	quiz   *quiz.Service
	db     *store.DB
}

func newApp(ctx context.Context, cfg config.Config, paths config.Paths, log *logging.Logger) (*app, error) {
	a := &app{cfg: cfg, hooks: hooks.NewManager(log)}

	mem, db, err := openMemory(cfg.Session, paths, log)
	if err != nil {
		return nil, err
	}
	a.memory, a.db = mem, db

	a.tools, err = tools.Build(ctx, tools.Options{
		GoogleAPIKey:  cfg.Search.APIKey,
		GoogleCX:      cfg.Search.CX,
		YouTubeAPIKey: cfg.YouTube.APIKey,
		Timeout:       cfg.ToolTimeout(),
	}, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("building tools: %w", err)
	}

	if cfg.Model.APIKey == "" {
		log.Warn().Msg("model.apiKey is empty; requests will be sent without credentials")
	}
	client := llm.NewOpenRouterClient(llm.OpenRouterConfig{
		Endpoint: cfg.Model.Endpoint,
		APIKey:   cfg.Model.APIKey,
		Model:    cfg.Model.Model,
		Timeout:  cfg.ModelTimeout(),
	}, nil)

	a.relay = relay.New(client, a.memory, a.tools, log,
		relay.WithModel(cfg.Model.Model),
		relay.WithHooks(a.hooks),
		relay.WithRollbackOnFailure(cfg.Session.RollbackOnFailure),
	)
	a.quiz = quiz.NewService(a.relay, log)

	log.Info().
		Str("model", cfg.Model.Model).
		Str("endpoint", cfg.Model.Endpoint).
		Strs("tools", a.tools.Names()).
		Str("sessionStore", cfg.Session.Store).
		Int("window", cfg.Session.Window).
		Msg("relay ready")
	return a, nil
}

// Close releases the session database, if any.
func (a *app) Close() error {
	a.hooks.Wait()
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// openMemory selects the session store named in cfg. A relative sqlite
// path is resolved against the data directory.
func openMemory(cfg config.SessionConfig, paths config.Paths, log *logging.Logger) (memory.Store, *store.DB, error) {
	switch cfg.Store {
	case "sqlite":
		path := cfg.Path
		switch {
		case path == "":
			path = store.MemoryPath
		case path != store.MemoryPath && !filepath.IsAbs(path):
			path = filepath.Join(paths.Data, path)
		}
		db, err := store.Open(path, log)
		if err != nil {
			return nil, nil, fmt.Errorf("opening session database: %w", err)
		}
		return store.NewSQLiteSessionStore(db, cfg.Window), db, nil
	default:
		return memory.NewWindowStore(cfg.Window), nil, nil
	}
}
