package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/meetgrid/backend/internal/cache"
	"github.com/meetgrid/backend/internal/config"
	"github.com/meetgrid/backend/internal/core"
	"github.com/meetgrid/backend/internal/geo"
	"github.com/meetgrid/backend/internal/logging"
	"github.com/meetgrid/backend/internal/pool"
	"github.com/meetgrid/backend/internal/registry"
	"github.com/meetgrid/backend/internal/scheduler"
	"github.com/meetgrid/backend/internal/server"
	"github.com/meetgrid/backend/internal/storage/postgres"
	"github.com/meetgrid/backend/pb"
)

func main() {
	_ = godotenv.Load()

	cfgPath := config.Path("configs/server.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		slog.Warn("config file not loaded, using defaults", "path", cfgPath, "err", err)
		cfg = config.Default()
	}
	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Console, cfg.Logging.File); err != nil {
		log.Fatalf("logging setup: %v", err)
	}

	p := pool.New(cfg.Pool.ToPoolConfig())
	p.Start()
	pool.NewMetrics(p)

	userRepo, sessionRepo, meetingRepo := buildRepositories(cfg)

	userMgr := core.NewUserManager(userRepo)
	sessionMgr := core.NewSessionManager(sessionRepo, time.Duration(cfg.Session.TTLSeconds)*time.Second)
	meetingMgr := core.NewMeetingManager(core.MeetingOptions{
		MaxParticipants:        cfg.Meeting.MaxMembers,
		EndWhenEmpty:           cfg.Meeting.EndWhenEmpty,
		EndWhenOrganizerLeaves: cfg.Meeting.EndWhenOrganizerLeaves,
		CodeLength:             cfg.Meeting.CodeLength,
	}, meetingRepo)

	geoSvc := geo.NewService(cfg.GeoIP.DBPath)
	defer geoSvc.Close()

	hosts := ""
	if cfg.Zookeeper.Enabled {
		hosts = cfg.Zookeeper.Hosts
	}
	reg := registry.New(hosts, time.Duration(cfg.Zookeeper.SessionTimeoutMs)*time.Millisecond)
	self := registry.NodeInfo{
		Host:   cfg.Server.Host,
		Port:   cfg.Server.Port,
		Region: cfg.Server.Region,
		Meta:   fmt.Sprintf(`{"instance":%q,"started_at":%d}`, uuid.NewString(), time.Now().Unix()),
	}
	reg.Register(self)
	balancer := scheduler.NewLoadBalancer(reg)

	grpcServer := grpc.NewServer()
	pb.RegisterUserServiceServer(grpcServer, server.NewUserService(userMgr, sessionMgr, p))
	pb.RegisterMeetingServiceServer(grpcServer, server.NewMeetingService(meetingMgr, sessionMgr, geoSvc, balancer, p))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	ops := server.NewOpsServer(p)
	go func() {
		if err := ops.Start(cfg.Ops.Port); err != nil {
			slog.Warn("ops listener stopped", "err", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("listen %s: %v", addr, err)
	}
	go func() {
		slog.Info("grpc server listening", "addr", addr)
		if err := grpcServer.Serve(lis); err != nil {
			slog.Warn("grpc server stopped", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()
	_ = ops.Close()
	reg.Unregister(self)
	reg.Close()
	p.Shutdown(pool.ShutdownTimeout, 10*time.Second)
}

// buildRepositories wires the durable store and the cache, falling back to
// the in-memory repositories when either backend is disabled or unreachable.
func buildRepositories(cfg *config.Config) (core.UserRepository, core.SessionRepository, core.MeetingRepository) {
	var (
		users    core.UserRepository
		sessions core.SessionRepository
		meetings core.MeetingRepository
	)

	pg := cfg.Storage.Postgres
	if pg.Enabled {
		db, err := postgres.Open(postgres.Options{
			Host:           pg.Host,
			Port:           pg.Port,
			User:           pg.User,
			Password:       pg.Password,
			Database:       pg.Database,
			SSLMode:        pg.SSLMode,
			PoolSize:       pg.PoolSize,
			AcquireTimeout: time.Duration(pg.AcquireTimeoutMs) * time.Millisecond,
		})
		if err != nil {
			slog.Error("postgres unreachable, falling back to in-memory repositories", "err", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := db.EnsureSchema(ctx); err != nil {
				slog.Error("schema setup failed", "err", err)
			} else {
				users = postgres.NewUserRepository(db)
				sessions = postgres.NewSessionRepository(db)
				meetings = postgres.NewMeetingRepository(db)
			}
		}
	}
	if users == nil {
		slog.Warn("using in-memory repositories")
		users = core.NewMemoryUserRepository()
		sessions = core.NewMemorySessionRepository()
		meetings = core.NewMemoryMeetingRepository()
	}

	if cfg.Redis.Enabled {
		client, err := cache.Connect(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Warn("redis unreachable, serving uncached", "err", err)
		} else {
			ttl := time.Duration(cfg.Session.TTLSeconds) * time.Second
			users = core.NewCachedUserRepository(users, client, ttl)
			sessions = core.NewCachedSessionRepository(sessions, client)
			meetings = core.NewCachedMeetingRepository(meetings, client, ttl)
		}
	}
	return users, sessions, meetings
}
