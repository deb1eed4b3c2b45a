package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"wavevoice/internal/api"
	"wavevoice/internal/config"
	"wavevoice/internal/enrich"
	"wavevoice/internal/events"
	"wavevoice/internal/inference"
	"wavevoice/internal/intent"
	"wavevoice/internal/results"
	"wavevoice/internal/store"
	"wavevoice/internal/submission"
	"wavevoice/internal/token"
	"wavevoice/internal/voice"
)

// App owns the process-scoped client handles. They are constructed once
// and reused across requests, but carry no request state.
type App struct {
	Config  config.Config
	Store   *store.Store
	Channel *events.Channel
	Results *results.RedisStore
	Gateway inference.Gateway
	Voice   *voice.Orchestrator
	Enrich  *enrich.Orchestrator
	API     *api.Handler
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	st, err := store.Open(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx, st.DB()); err != nil {
		return nil, err
	}

	channel, err := events.NewChannel(cfg.Redis.URL, cfg.Events.Channel)
	if err != nil {
		return nil, err
	}
	resultStore, err := results.NewRedisStore(cfg.Redis.URL, cfg.Results.TTL)
	if err != nil {
		return nil, err
	}

	gateway, err := SelectGateway(cfg)
	if err != nil {
		return nil, err
	}
	detector := selectLangDetector(cfg)

	voiceOrch := voice.NewOrchestrator(token.NewDetector(), intent.New(intent.DefaultKeywords()), channel)
	enrichOrch := enrich.NewOrchestrator(gateway, resultStore, cfg.Results.TTL)

	validator, err := submission.NewValidator(cfg.Submission.SchemaPath)
	if err != nil {
		return nil, err
	}
	subSvc := submission.NewService(validator, submission.NewClient(cfg.Submission.APIURL, cfg.Submission.Token), st)

	handler := api.NewHandler(voiceOrch, enrichOrch, detector, subSvc, st)

	return &App{
		Config:  cfg,
		Store:   st,
		Channel: channel,
		Results: resultStore,
		Gateway: gateway,
		Voice:   voiceOrch,
		Enrich:  enrichOrch,
		API:     handler,
	}, nil
}

func (a *App) Close() error {
	var err error
	if a.Store != nil {
		err = a.Store.Close()
	}
	if a.Channel != nil {
		_ = a.Channel.Close()
	}
	if a.Results != nil {
		_ = a.Results.Close()
	}
	return err
}

func (a *App) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		status, err := readiness(r.Context(), a.Store, a.Channel, a.Results)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status)
	})
	a.API.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              a.Config.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	return srv.ListenAndServe()
}

// SelectGateway builds the inference gateway from config. In dev mode an
// unconfigured or unrecognized provider falls back to the deterministic
// noop gateway so the pipeline works offline; outside dev mode it is a
// startup error.
func SelectGateway(cfg config.Config) (inference.Gateway, error) {
	var sentiments inference.SentimentProvider
	switch cfg.Sentiment.Provider {
	case "claude":
		if cfg.Sentiment.APIKey != "" {
			sentiments = inference.NewClaude(cfg.Sentiment.APIKey, cfg.Sentiment.Model, cfg.Sentiment.BaseURL)
		}
	}

	var embeddings inference.Embedder
	switch cfg.Embedding.Provider {
	case "openai":
		if cfg.Embedding.OpenAIKey != "" {
			embeddings = inference.NewOpenAIEmbedder(cfg.Embedding.OpenAIKey, cfg.Embedding.Model, cfg.Embedding.Dim)
		}
	case "ollama":
		embeddings = inference.NewOllamaEmbedder(cfg.Embedding.OllamaURL, cfg.Embedding.Model, cfg.Embedding.Dim)
	}

	noop := inference.NewNoop(cfg.Embedding.Dim)
	if sentiments == nil {
		if cfg.Sentiment.Provider != "noop" {
			if !cfg.Dev.Mode {
				return nil, fmt.Errorf("sentiment provider %q not usable", cfg.Sentiment.Provider)
			}
			log.Printf("sentiment provider %q not usable, falling back to noop", cfg.Sentiment.Provider)
		}
		sentiments = noop
	}
	if embeddings == nil {
		if cfg.Embedding.Provider != "noop" {
			if !cfg.Dev.Mode {
				return nil, fmt.Errorf("embedding provider %q not usable", cfg.Embedding.Provider)
			}
			log.Printf("embedding provider %q not usable, falling back to noop", cfg.Embedding.Provider)
		}
		embeddings = noop
	}
	return inference.Split{Sentiments: sentiments, Embeddings: embeddings}, nil
}

type dbHealth interface {
	HealthSummary(ctx context.Context) (map[string]string, error)
}

type eventDepth interface {
	Depth(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// readiness aggregates dependency health for /readyz: the ledger database,
// the event channel (with its current backlog) and the result store.
func readiness(ctx context.Context, db dbHealth, ch eventDepth, res pinger) (map[string]any, error) {
	summary, err := db.HealthSummary(ctx)
	if err != nil {
		return nil, err
	}
	depth, err := ch.Depth(ctx)
	if err != nil {
		return nil, err
	}
	if err := res.Ping(ctx); err != nil {
		return nil, err
	}
	status := map[string]any{
		"events_depth": depth,
		"results":      "ok",
	}
	for k, v := range summary {
		status[k] = v
	}
	return status, nil
}

func selectLangDetector(cfg config.Config) inference.LangDetector {
	if cfg.LangDetect.EndpointURL != "" {
		return inference.NewHTTPLangDetector(cfg.LangDetect.EndpointURL)
	}
	return inference.StaticLangDetector{Language: "en", Confidence: 0.5}
}
