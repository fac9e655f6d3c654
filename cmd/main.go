package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carbon-tracker/internal/auth"
	"github.com/ukydev/carbon-tracker/internal/config"
	"github.com/ukydev/carbon-tracker/internal/db"
	"github.com/ukydev/carbon-tracker/internal/emissions"
	"github.com/ukydev/carbon-tracker/internal/events"
	"github.com/ukydev/carbon-tracker/internal/handlers"
	"github.com/ukydev/carbon-tracker/internal/store"
	"github.com/ukydev/carbon-tracker/internal/tracker"
	"go.mongodb.org/mongo-driver/mongo"
)

const entriesCollection = "activities"

// app holds the wired server and what must be released on shutdown.
type app struct {
	handler   http.Handler
	mongo     *mongo.Client
	publisher events.Publisher
}

func (a *app) close() {
	a.publisher.Close()
	if a.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongo.Disconnect(ctx); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}
}

// estimatorConfig leaves HTTPClient unset so requests run with the transport
// defaults and no client timeout.
func estimatorConfig(cfg *config.Config, logger log.FieldLogger) emissions.Config {
	return emissions.Config{
		APIKey:      cfg.ClimatiqAPIKey,
		Endpoint:    cfg.ClimatiqEndpoint,
		DataVersion: cfg.ClimatiqDataVersion,
		Logger:      logger.WithField("component", "emissions"),
	}
}

// newApp wires the tracker and the HTTP API from cfg. MongoDB and MQTT are
// only used when configured.
func newApp(ctx context.Context, cfg *config.Config, logger log.FieldLogger) (*app, error) {
	estimator, err := emissions.NewClient(estimatorConfig(cfg, logger))
	if err != nil {
		return nil, err
	}

	a := &app{publisher: events.NoopPublisher{}}
	opts := tracker.Options{
		Store:     store.New(),
		Estimator: estimator,
		Logger:    logger.WithField("component", "tracker"),
	}

	if cfg.MongoURI != "" {
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		logger.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
		a.mongo = client
		opts.Mirror = &db.MongoEntryCollection{Collection: client.Database(cfg.MongoDB).Collection(entriesCollection)}
	}

	if cfg.MQTTBroker != "" {
		publisher, err := events.NewMQTTPublisher(events.MQTTConfig{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
		})
		if err != nil {
			a.close()
			return nil, err
		}
		a.publisher = publisher
	}
	opts.Publisher = a.publisher

	t := tracker.New(opts)
	if err := t.Restore(ctx); err != nil {
		a.close()
		return nil, err
	}

	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry, cfg.PasscodeHash)
	if err != nil {
		a.close()
		return nil, err
	}

	a.handler = handlers.NewRouter(handlers.RouterConfig{
		Tracker:           t,
		AuthService:       authService,
		AuthRequired:      cfg.AuthEnabled(),
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		Logger:            logger.WithField("component", "http"),
	})
	return a, nil
}

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	log.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log.StandardLogger())
	if err != nil {
		log.WithError(err).Fatal("Failed to start")
	}
	defer a.close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Graceful shutdown failed")
		}
	}()

	log.WithFields(log.Fields{
		"port": cfg.Port,
		"auth": cfg.AuthEnabled(),
	}).Info("HTTP server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("HTTP server failed")
	}
}
