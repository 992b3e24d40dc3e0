// accessd consumes access attempts from Kafka, runs each through the
// verification pipeline, and records the decisions.
// Set DATABASE_URL and KAFKA_BROKERS; see internal/config for the rest.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"door-access-control-plane/backend/internal/antipassback"
	antipassbackrepo "door-access-control-plane/backend/internal/antipassback/repository"
	"door-access-control-plane/backend/internal/audit"
	auditrepo "door-access-control-plane/backend/internal/audit/repository"
	"door-access-control-plane/backend/internal/blacklist"
	"door-access-control-plane/backend/internal/cache"
	"door-access-control-plane/backend/internal/config"
	"door-access-control-plane/backend/internal/db"
	"door-access-control-plane/backend/internal/device"
	devicerepo "door-access-control-plane/backend/internal/device/repository"
	"door-access-control-plane/backend/internal/ingest"
	"door-access-control-plane/backend/internal/interlock"
	interlockrepo "door-access-control-plane/backend/internal/interlock/repository"
	"door-access-control-plane/backend/internal/multiperson"
	multipersonrepo "door-access-control-plane/backend/internal/multiperson/repository"
	"door-access-control-plane/backend/internal/policy"
	policydomain "door-access-control-plane/backend/internal/policy/domain"
	"door-access-control-plane/backend/internal/policy/engine"
	policyrepo "door-access-control-plane/backend/internal/policy/repository"
	"door-access-control-plane/backend/internal/telemetry"
	"door-access-control-plane/backend/internal/telemetry/otel"
	"door-access-control-plane/backend/internal/telemetry/producer"
	"door-access-control-plane/backend/internal/timewindow"
	timewindowrepo "door-access-control-plane/backend/internal/timewindow/repository"
	"door-access-control-plane/backend/internal/user"
	userrepo "door-access-control-plane/backend/internal/user/repository"
	"door-access-control-plane/backend/internal/verification"
)

const staleAuditMaxAge = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("accessd: KAFKA_BROKERS is required")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "door-access-verifier", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	store := cache.NewMemory()
	store.StartSweep(ctx, time.Minute)

	defaults := policydomain.Defaults{
		AntiPassbackWindowSeconds: cfg.AntiPassbackWindowSeconds,
		InterlockTimeoutSeconds:   cfg.InterlockTimeoutSeconds,
		MultiPersonTimeoutSeconds: cfg.MultiPersonTimeoutSeconds,
	}
	timeout := cfg.CallTimeout()

	configs := policy.NewStore(policyrepo.NewPostgresRepository(database), store, cfg.AreaConfigTTL(), timeout, defaults)
	eligibility := blacklist.NewGate(user.NewDirectory(userrepo.NewPostgresRepository(database)), store, cfg.EligibilityTTL(), timeout)
	windows := timewindow.NewGate(timewindowrepo.NewPostgresRepository(database), policy.NewAreaWindows(configs), timeout)
	passback := antipassback.NewGuard(antipassbackrepo.NewPostgresRepository(database), store, cfg.PassbackRecordTTL(), timeout)
	locks := interlock.NewCoordinator(store, interlockrepo.NewPostgresRepository(database), timeout)
	coauth := multiperson.NewCoordinator(store, multipersonrepo.NewPostgresRepository(database),
		time.Duration(cfg.MultiPersonTimeoutSeconds)*time.Second, timeout)
	devices := device.NewRegistry(devicerepo.NewPostgresRepository(database), store, cfg.AreaConfigTTL(), timeout)

	decisionProducer, err := producer.NewKafkaProducer(brokers, cfg.DecisionEventsTopic)
	if err != nil {
		log.Fatalf("producer: %v", err)
	}

	orchestrator := verification.NewOrchestrator(verification.Deps{
		Configs:   configs,
		Blacklist: eligibility,
		Windows:   windows,
		Passback:  passback,
		Interlock: locks,
		Rules:     engine.NewRegoGate(),
		CoAuth:    coauth,
		Devices:   devices,
		Auditor:   audit.NewLogger(auditrepo.NewPostgresRepository(database)),
		Emitter:   decisionProducer,
		Metrics:   telemetry.NewMetrics(providers.MeterProvider.Meter("door-access-verifier")),
	})

	consumer := ingest.NewConsumer(brokers, cfg.AccessEventsTopic, cfg.KafkaGroupID, orchestrator, timeout*5)
	defer consumer.Close()

	go func() {
		t := time.NewTicker(10 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				locks.ReconcileStale(ctx, staleAuditMaxAge)
			}
		}
	}()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("accessd: shutting down...")
		cancel()
	}()

	consumer.Run(ctx)

	// Let in-flight async audit and event writes finish before dropping providers.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if decisionProducer != nil {
		if err := decisionProducer.Close(); err != nil {
			log.Printf("accessd: producer close: %v", err)
		}
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("accessd: telemetry shutdown: %v", err)
	}
	log.Println("accessd: stopped")
}
