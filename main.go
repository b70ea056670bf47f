package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	plannerx "github.com/warinyupa/bankpilot/agent/planner"
	promptx "github.com/warinyupa/bankpilot/agent/prompt"
	queryx "github.com/warinyupa/bankpilot/agent/query"
	supervisorx "github.com/warinyupa/bankpilot/agent/supervisor"
	toolx "github.com/warinyupa/bankpilot/agent/tool"
	bankx "github.com/warinyupa/bankpilot/bank"
	"github.com/warinyupa/bankpilot/docindex"
	configx "github.com/warinyupa/bankpilot/pkg/config"
	logx "github.com/warinyupa/bankpilot/pkg/logger"
	openrouterx "github.com/warinyupa/bankpilot/pkg/openrouter"
	tavilyx "github.com/warinyupa/bankpilot/pkg/tavily"
	serverx "github.com/warinyupa/bankpilot/server"
)

type AppConfig struct {
	MaxIterations int    `envconfig:"MAX_ITERATIONS" split_words:"true" default:"8"`
	DocIndexPath  string `envconfig:"DOC_INDEX_PATH" split_words:"true"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN" split_words:"true"`
	SeedDemoData  bool   `envconfig:"SEED_DEMO_DATA" split_words:"true" default:"true"`
	TavilyAPIKey  string `envconfig:"TAVILY_API_KEY" split_words:"true"`
	VoiceCondense bool   `envconfig:"VOICE_CONDENSE" split_words:"true" default:"true"`
}

func main() {
	logCfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	appCfg := configx.MustNew[AppConfig]("BANKPILOT")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := buildStore(ctx, appCfg)
	docs := buildDocIndex(appCfg)
	defer docs.Close()

	registry := toolx.MustNewCatalog(toolx.Deps{
		Docs: &docSearcher{index: docs},
		Web:  buildWebSearcher(appCfg),
	})

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	chatModel, err := openRouterCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("create chat model")
	}

	supervisorPlanner, err := plannerx.New(ctx, chatModel, registry.Infos(), promptx.Supervisor())
	if err != nil {
		log.Fatal().Err(err).Msg("create planner")
	}

	sup := supervisorx.New(registry, supervisorPlanner, appCfg.MaxIterations)
	facade := queryx.NewService(store, sup)

	var condenser serverx.Condenser
	if appCfg.VoiceCondense {
		if c := openrouterx.NewCondenser(*openRouterCfg); c != nil {
			condenser = c
		}
	}

	serverCfg := configx.MustNew[serverx.Config]("HTTP")
	srv := serverx.New(*serverCfg, facade, condenser)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func buildStore(ctx context.Context, cfg *AppConfig) bankx.Store {
	if cfg.PostgresDSN != "" {
		store, err := bankx.NewBunStore(bankx.PostgresConfig{DSN: cfg.PostgresDSN})
		if err != nil {
			log.Fatal().Err(err).Msg("connect postgres")
		}
		if err := store.InitSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("init schema")
		}
		log.Info().Msg("using postgres store")
		return store
	}

	store := bankx.NewMemoryStore()
	if cfg.SeedDemoData {
		seedDemoData(store)
	}
	log.Info().Msg("using in-memory store")
	return store
}

func seedDemoData(store *bankx.MemoryStore) {
	store.SeedAccount(1, "checking", 250_000_00, "KZT")
	store.SeedAccount(1, "savings", 1_200_000_00, "KZT")
	store.SeedAccount(1, "checking", 1_500_00, "USD")
	store.SeedAccount(2, "checking", 80_000_00, "KZT")

	store.SeedProduct("Wireless Mouse", "electronics", 12_000_00, "KZT", 25)
	store.SeedProduct("Mechanical Keyboard", "electronics", 45_000_00, "KZT", 10)
	store.SeedProduct("Noise Cancelling Headphones", "electronics", 120_000_00, "KZT", 5)
	store.SeedProduct("Travel Insurance, 30 days", "insurance", 8_000_00, "KZT", 100)
	store.SeedProduct("Coffee Beans, 1kg", "grocery", 3_500_00, "KZT", 40)
}

func buildDocIndex(cfg *AppConfig) *docindex.Index {
	idx, err := docindex.New(cfg.DocIndexPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open document index")
	}

	if cfg.SeedDemoData {
		err := idx.Seed([]docindex.Document{
			{ID: "fees", Title: "Card and Account Fees", Source: "fees.md",
				Content: "Debit card maintenance costs 200.00 KZT per month. International ATM withdrawals carry a 1% fee with a minimum of 500.00 KZT. Incoming transfers are free."},
			{ID: "limits", Title: "Transfer Limits", Source: "limits.md",
				Content: "The daily transfer limit is 1000000.00 KZT for verified customers and 150000.00 KZT otherwise. Limits reset at midnight local time."},
			{ID: "currencies", Title: "Supported Currencies", Source: "currencies.md",
				Content: "Accounts can be held in KZT, USD, and EUR. Transfers require both accounts to use the same currency; the bank does not convert on the fly."},
			{ID: "goals", Title: "Savings Goals", Source: "goals.md",
				Content: "Savings goals track a target amount and date. Goal progress updates when you move money into the linked savings account."},
		})
		if err != nil {
			log.Fatal().Err(err).Msg("seed document index")
		}
	}
	return idx
}

func buildWebSearcher(cfg *AppConfig) toolx.WebSearcher {
	if cfg.TavilyAPIKey == "" {
		log.Info().Msg("web search disabled, no tavily api key")
		return nil
	}
	client, err := tavilyx.NewClient(tavilyx.Config{APIKey: cfg.TavilyAPIKey})
	if err != nil {
		log.Fatal().Err(err).Msg("create tavily client")
	}
	return &webSearcher{client: client}
}

// docSearcher adapts the bleve index to the tool package interface.
type docSearcher struct {
	index *docindex.Index
}

func (d *docSearcher) SearchDocuments(ctx context.Context, query string, k int) ([]toolx.DocHit, error) {
	hits, err := d.index.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]toolx.DocHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, toolx.DocHit{Title: h.Title, Snippet: h.Snippet, Source: h.Source, Score: h.Score})
	}
	return out, nil
}

// webSearcher adapts the tavily client to the tool package interface.
type webSearcher struct {
	client *tavilyx.Client
}

func (w *webSearcher) SearchWeb(ctx context.Context, query string, maxResults int) ([]toolx.WebHit, error) {
	results, err := w.client.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	out := make([]toolx.WebHit, 0, len(results))
	for _, r := range results {
		out = append(out, toolx.WebHit{Title: r.Title, URL: r.URL, Content: r.Content, Score: r.Score})
	}
	return out, nil
}
