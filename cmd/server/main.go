// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/opd-ai/go-tankwar/pkg/config"
	"github.com/opd-ai/go-tankwar/pkg/entity"
	"github.com/opd-ai/go-tankwar/pkg/event"
	"github.com/opd-ai/go-tankwar/pkg/health"
	"github.com/opd-ai/go-tankwar/pkg/logging"
	"github.com/opd-ai/go-tankwar/pkg/match"
	"github.com/opd-ai/go-tankwar/pkg/network"
	"github.com/opd-ai/go-tankwar/pkg/physics"
	"github.com/opd-ai/go-tankwar/pkg/relay"
	"github.com/opd-ai/go-tankwar/pkg/replica"
	"github.com/opd-ai/go-tankwar/pkg/team"
)

func main() {
	configPath := flag.String("config", "server.toml", "Path to configuration file")
	listenAddr := flag.String("listen", "", "Listen address (overrides config)")
	logEnv := flag.String("log", "", "Log environment: production or development (overrides config)")
	mapName := flag.String("map", "", "Map to play (defaults to the first rotation entry)")
	createDefault := flag.Bool("default", false, "Write a default configuration file and exit")
	flag.Parse()

	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			os.Stderr.WriteString("failed to write default config: " + err.Error() + "\n")
			os.Exit(1)
		}
		return
	}

	cfg := loadConfig(*configPath)
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	if *logEnv != "" {
		cfg.Server.LogEnv = *logEnv
	}

	log, err := logging.New(cfg.Server.LogEnv)
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	logic, err := buildMatch(cfg, *mapName, log)
	if err != nil {
		log.Fatal("failed to build match", zap.Error(err))
	}

	server, err := network.NewGameServer(log, cfg.Server, logic, cfg.MapNames())
	if err != nil {
		log.Fatal("failed to build server", zap.Error(err))
	}

	healthServer := startHealthServer(log, server)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting server",
		zap.String("addr", cfg.Server.ListenAddr),
		zap.String("mode", cfg.Server.Mode),
		zap.Int("max_players", cfg.Server.MaxPlayers),
	)
	if err := server.Run(ctx); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("health server shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}

func loadConfig(path string) *config.GameConfig {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.DefaultConfig()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	return cfg
}

// buildMatch assembles the simulation from the configuration
func buildMatch(cfg *config.GameConfig, mapName string, log *zap.Logger) (*match.Logic, error) {
	auth := replica.NewAuthority(replica.RoleServer)
	bus := event.NewBus()
	registry := entity.NewRegistry(auth, bus)
	rel := relay.NewRelay(auth, bus, registry, log)
	teams := team.NewManager(auth, bus)

	arena := cfg.Map(mapName)

	mcfg := match.DefaultConfig()
	mcfg.MinPlayers = cfg.Match.MinPlayers
	mcfg.FillWithAI = cfg.Match.FillWithAI
	mcfg.TimeLimit = cfg.Match.TimeLimit
	mcfg.PostGameTime = cfg.Match.PostGameTime
	mcfg.RespawnDelay = cfg.Match.RespawnDelay
	mcfg.ScoreLimit = cfg.Match.ScoreLimit
	mcfg.FriendlyFire = cfg.Match.FriendlyFire

	mcfg.Teams = make([]team.TeamSpec, len(cfg.Teams))
	for i, t := range cfg.Teams {
		mcfg.Teams[i] = team.TeamSpec{Name: t.Name, Color: t.Color}
	}
	mcfg.SpawnPoints = make([]entity.SpawnPoint, len(arena.SpawnPoints))
	for i, sp := range arena.SpawnPoints {
		mcfg.SpawnPoints[i] = entity.SpawnPoint{
			Position: physics.Vector2D{X: sp.X, Y: sp.Y},
			Heading:  sp.Heading,
			TeamID:   sp.Team,
		}
	}

	var mode match.Mode
	switch cfg.Server.Mode {
	case "ctf":
		stands := make(map[int]physics.Vector2D, len(arena.FlagStands))
		for _, fs := range arena.FlagStands {
			stands[fs.Team] = physics.Vector2D{X: fs.X, Y: fs.Y}
		}
		mode = match.NewCaptureTheFlag(stands)
	default:
		mode = match.NewTeamDeathmatch()
	}

	logic := match.NewLogic(auth, bus, registry, rel, teams, log, mcfg, mode)
	if err := logic.Initialize(); err != nil {
		return nil, err
	}

	spawnProps(auth, bus, registry, arena)

	log.Info("arena loaded",
		zap.String("map", arena.Name),
		zap.Int("spawn_points", len(arena.SpawnPoints)),
		zap.Int("props", len(arena.Props)),
	)
	return logic, nil
}

// spawnProps places the map's destructible cover
func spawnProps(auth *replica.Authority, bus *event.Bus, registry *entity.Registry, arena config.MapConfig) {
	for i, p := range arena.Props {
		prop := entity.NewDestructibleProp(auth, bus, fmt.Sprintf("prop-%d", i),
			physics.Vector2D{X: p.X, Y: p.Y}, p.Radius, p.Hull)
		id := registry.Spawn(prop, physics.LayerWorld|physics.LayerProp)
		prop.Health.BindEntity(id)
	}
}

// startHealthServer serves liveness and readiness probes on a side
// port.
func startHealthServer(log *zap.Logger, server *network.GameServer) *http.Server {
	checker := health.NewChecker()
	checker.Add(health.NewSimulationCheck(server.Running))
	checker.Add(health.NewTransportCheck(server.Addr))
	checker.Add(health.NewMemoryCheck(500, func() int64 {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return int64(m.Alloc / 1024 / 1024)
	}))

	port := os.Getenv("TANKWAR_HEALTH_PORT")
	if port == "" {
		port = "8080"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.LivenessHandler)
	mux.HandleFunc("/ready", checker.ReadinessHandler)

	healthServer := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health endpoints listening", zap.String("port", port))
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("health server failed", zap.Error(err))
		}
	}()
	return healthServer
}
