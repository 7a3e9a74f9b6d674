// Command labsim runs the creature synthesis lab.
//
//	labsim serve [flags]   HTTP API (default)
//	labsim demo [flags]    one paced synthesis over the stored roster
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/talgya/synthesis-lab/internal/api"
	"github.com/talgya/synthesis-lab/internal/config"
	"github.com/talgya/synthesis-lab/internal/creature"
	"github.com/talgya/synthesis-lab/internal/engine"
	"github.com/talgya/synthesis-lab/internal/entropy"
	"github.com/talgya/synthesis-lab/internal/items"
	"github.com/talgya/synthesis-lab/internal/metrics"
	"github.com/talgya/synthesis-lab/internal/persistence"
	"github.com/talgya/synthesis-lab/internal/recipe"
	"github.com/talgya/synthesis-lab/internal/synthesis"
)

// Starting purse for a fresh database.
var starterWallet = items.Wallet{
	Gold: 5000,
	Inventory: items.Inventory{
		items.ItemEnhancementStone: 3,
		items.ItemPowerCrystal:     1,
		items.ItemDragonScale:      1,
		items.ItemSlimeJelly:       1,
	},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	mode, args := "serve", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		mode, args = args[0], args[1:]
	}

	cfg, err := config.ParseConfig(flag.NewFlagSet("labsim "+mode, flag.ExitOnError), args)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, mode, cfg); err != nil {
		slog.Error("labsim failed", "mode", mode, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, mode string, cfg config.Config) error {
	if mode != "serve" && mode != "demo" {
		return fmt.Errorf("unknown mode %q (want serve or demo)", mode)
	}
	slog.Info("Synthesis Lab", "mode", mode, "seed", cfg.Seed, "db", cfg.DBDriver)

	// ── Recipes ───────────────────────────────────────────────────────
	table, err := loadTable(cfg.RecipesPath)
	if err != nil {
		return err
	}
	slog.Info("recipe table loaded", "recipes", table.Len(), "species", len(table.AllSpecies()))

	// ── Database ──────────────────────────────────────────────────────
	if cfg.DBDriver == config.DriverSQLite {
		os.MkdirAll(filepath.Dir(cfg.DBDSN), 0755)
	}
	db, err := persistence.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	roster, err := db.LoadRoster()
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	if roster.Len() == 0 {
		roster = seedRoster(table, cfg.Seed)
		if err := db.SaveCreatures(roster.All()); err != nil {
			return fmt.Errorf("save starter roster: %w", err)
		}
		slog.Info("starter roster generated", "creatures", roster.Len())
	} else {
		slog.Info("roster restored", "creatures", roster.Len())
	}
	wallet, err := db.LoadWallet(starterWallet)
	if err != nil {
		return err
	}

	// ── Lab ───────────────────────────────────────────────────────────
	recorder := metrics.NewRecorder()
	opts := []synthesis.Option{
		synthesis.WithSource(randomSource(cfg)),
		synthesis.WithObserver(recorder),
	}
	if mode == "demo" {
		opts = append(opts, synthesis.Unlocked())
	}
	lab := synthesis.NewLab(table, opts...)

	srv := api.NewServer(lab, table, roster, wallet)
	srv.DB = db
	srv.Metrics = recorder.Handler()
	srv.Port = cfg.Port
	srv.AdminKey = cfg.AdminKey
	srv.CORSOrigins = cfg.CORSOrigins

	if mode == "demo" {
		return demo(ctx, cfg, lab, roster, db, wallet)
	}

	httpSrv := srv.Start()
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown", "error", err)
	}
	if err := db.SaveCreatures(roster.All()); err != nil {
		return fmt.Errorf("save roster: %w", err)
	}
	slog.Info("roster saved", "creatures", roster.Len())
	return nil
}

func loadTable(path string) (*recipe.Table, error) {
	if path == "" {
		return recipe.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recipes: %w", err)
	}
	defer f.Close()
	table, err := recipe.Load(f)
	if err != nil {
		return nil, fmt.Errorf("load recipes %s: %w", path, err)
	}
	return table, nil
}

// randomSource picks seeded draws for reproducible runs, otherwise
// random.org when a key is configured, otherwise crypto/rand.
func randomSource(cfg config.Config) entropy.Source {
	if cfg.Seed != 0 {
		return entropy.NewSeeded(cfg.Seed)
	}
	if client := entropy.NewClient(cfg.RandomOrgKey); client != nil {
		slog.Info("using random.org entropy")
		return client
	}
	return entropy.Crypto{}
}

// seedRoster spawns two of every wild species between levels 10 and 24.
func seedRoster(table *recipe.Table, seed int64) *creature.Roster {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	spawner := creature.NewSpawner(seed)
	rng := rand.New(rand.NewSource(seed + 400))

	roster := creature.NewRoster()
	for _, sp := range table.WildSpecies() {
		for range 2 {
			roster.Put(spawner.Spawn(sp, 10+rng.Intn(15)))
		}
	}
	return roster
}

// demo runs the first affordable compatible pair through a paced synthesis.
func demo(ctx context.Context, cfg config.Config, lab *synthesis.Lab, roster *creature.Roster, db *persistence.DB, wallet items.Wallet) error {
	p, err := startFirstPair(lab, roster.All(), wallet)
	if err != nil {
		return err
	}
	var consumed []items.ItemID
	if p.Cost.Item != nil {
		consumed = append(consumed, *p.Cost.Item)
	}
	if err := wallet.Pay(p.Cost.Gold, consumed); err != nil {
		return fmt.Errorf("pay for synthesis: %w", err)
	}

	pacer := engine.NewPacer(lab)
	pacer.Speed = cfg.Pace
	pacer.OnPhase = func(p synthesis.Process) {
		slog.Info("phase", "phase", p.Phase, "progress", p.Progress)
	}
	final, err := pacer.Run(ctx, p)
	if err != nil {
		return err
	}

	if err := db.RecordOutcome(p, final, time.Now()); err != nil {
		slog.Error("journal outcome", "error", err)
	}
	if final.Offspring != nil {
		roster.Put(*final.Offspring)
		if err := db.PutCreature(*final.Offspring); err != nil {
			return err
		}
		slog.Info("synthesis succeeded",
			"offspring", final.Offspring.Name,
			"level", final.Offspring.Level,
			"skills", final.Offspring.Skills,
			"traits", final.Offspring.Traits,
		)
	} else {
		slog.Info("synthesis failed", "roll", final.Roll, "rate", final.Rate)
	}
	return db.SaveWallet(wallet)
}

func startFirstPair(lab *synthesis.Lab, all []creature.Creature, wallet items.Wallet) (synthesis.Process, error) {
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			if !lab.Preview(all[i], all[j]).Compatible {
				continue
			}
			p, err := lab.Start(all[i], all[j], wallet.Gold, wallet.Inventory)
			if errors.Is(err, synthesis.ErrInsufficientResources) {
				continue
			}
			if err != nil {
				return synthesis.Process{}, err
			}
			return p, nil
		}
	}
	return synthesis.Process{}, errors.New("no affordable compatible pair in roster")
}
