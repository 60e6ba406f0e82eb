// Command klondike-sim deals a batch of seeded games, lets autoplay finish
// each one and reports how many were won.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/klondike/engine"
	"github.com/jason-s-yu/klondike/service/internal/cache"
	"github.com/jason-s-yu/klondike/service/internal/config"
	"github.com/jason-s-yu/klondike/service/internal/database"
	"github.com/jason-s-yu/klondike/service/internal/game"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "klondike-sim:", err)
		os.Exit(1)
	}
}

func run() error {
	envFile := flag.String("env", ".env", "optional .env file")
	games := flag.Int("games", -1, "number of games to play (default SIM_GAMES)")
	seed := flag.Uint64("seed", 0, "first shuffle seed (default SIM_SEED)")
	draw := flag.String("draw", "", `draw mode, "1" or "3" (default DEFAULT_DRAW)`)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *games >= 0 {
		cfg.SimGames = *games
	}
	if *seed != 0 {
		cfg.SimSeed = *seed
	}
	if *draw != "" {
		if cfg.DefaultDraw, err = engine.ParseDrawMode(*draw); err != nil {
			return err
		}
	}

	log := config.NewLogger(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc, cleanup, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := simulate(ctx, svc, cfg.SimGames)
	if err != nil {
		return err
	}
	stats.log(log.WithFields(logrus.Fields{
		"draw":  cfg.DefaultDraw.String(),
		"seed":  cfg.SimSeed,
		"games": cfg.SimGames,
	}))
	return nil
}

// newService picks Postgres and Redis when they are configured and
// in-memory stores otherwise.
func newService(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*game.Service, func(), error) {
	var (
		store    game.Store
		history  game.HistoryStore
		cleanups []func()
		opts     = []game.Option{game.WithLogger(log), game.WithDefaultDraw(cfg.DefaultDraw)}
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, pool.Close)
		pg := database.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		store = pg
		log.Info("using postgres store")
	} else {
		store = database.NewMemoryStore()
	}

	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { rdb.Close() })
		history = cache.NewRedisHistoryStore(rdb, cfg.HistoryTTL)
		opts = append(opts, game.WithPublisher(cache.NewRedisPublisher(rdb)))
		log.WithField("addr", cfg.RedisAddr).Info("using redis history")
	} else {
		history = cache.NewMemoryHistoryStore()
	}

	next := cfg.SimSeed - 1
	opts = append(opts, game.WithSeedSource(func() uint64 { return atomic.AddUint64(&next, 1) }))
	return game.NewService(store, history, opts...), cleanup, nil
}

type simStats struct {
	played, won, stuck int
	score, remaining   int
}

func simulate(ctx context.Context, svc *game.Service, n int) (simStats, error) {
	var st simStats
	player := uuid.New()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		v, err := svc.CreateGame(ctx, player, game.CreateOptions{Color: "blue"})
		if err != nil {
			return st, err
		}
		if v, err = svc.Autocomplete(ctx, player, v.ID); err != nil {
			return st, err
		}
		over, err := svc.CheckGameOver(ctx, player, v.ID)
		if err != nil {
			return st, err
		}

		st.played++
		st.score += v.Score
		st.remaining += v.CardsRemaining
		switch {
		case v.Won:
			st.won++
		case over:
			st.stuck++
		}
	}
	return st, nil
}

func (st simStats) log(entry *logrus.Entry) {
	if st.played == 0 {
		entry.Info("no games played")
		return
	}
	n := float64(st.played)
	entry.WithFields(logrus.Fields{
		"won":           st.won,
		"stuck":         st.stuck,
		"win_rate":      fmt.Sprintf("%.1f%%", 100*float64(st.won)/n),
		"avg_score":     fmt.Sprintf("%.1f", float64(st.score)/n),
		"avg_remaining": fmt.Sprintf("%.1f", float64(st.remaining)/n),
	}).Info("simulation finished")
}
