package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mistral-thing-be/internal/bootstrap"
	"mistral-thing-be/internal/config"
	"mistral-thing-be/internal/server"
	"mistral-thing-be/internal/tracer"
	"mistral-thing-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.Open(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(ctx, gormDB, cfg)
	defer container.Close()

	// 4. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("Unable to start consumer: %v", err)
	}
	if container.UserEventService != nil {
		if err := container.UserEventService.Start(ctx); err != nil {
			log.Printf("[WARN] User event subscriptions failed: %v", err)
		}
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		log.Println("Shutting down: draining HTTP connections")
		if err := srv.Shutdown(); err != nil {
			log.Printf("HTTP shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}

	// Generations see the cancelled context and settle their threads.
	stop()
	container.ConsumerService.Wait()
	log.Println("Shutdown complete")
}
