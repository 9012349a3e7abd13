package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/round-cube/parking-system/console"
	"github.com/round-cube/parking-system/notify"
	"github.com/round-cube/parking-system/parking"
	"github.com/round-cube/parking-system/shared"
	"github.com/round-cube/parking-system/store"
	log "github.com/sirupsen/logrus"
)

type Settings struct {
	redisURL           string
	rmqURL             string
	entrancesQueueName string
	exitsQueueName     string
	carSpots           int
	bikeSpots          int
	promPort           int
	promPath           string
	logLevel           string
}

func newSettings() (Settings, error) {
	var s Settings
	var err error

	s.redisURL, err = shared.GetEnv("REDIS_URL")
	if err != nil {
		return s, err
	}

	s.rmqURL = shared.GetEnvDefault("RMQ_URL", "")
	s.entrancesQueueName = shared.GetEnvDefault("ENTRANCES_QUEUE_NAME", "entrances")
	s.exitsQueueName = shared.GetEnvDefault("EXITS_QUEUE_NAME", "exits")
	s.carSpots = shared.GetEnvInt("CAR_SPOTS", 3)
	s.bikeSpots = shared.GetEnvInt("BIKE_SPOTS", 2)
	s.promPath = shared.GetEnvDefault("PROM_PATH", "/metrics")
	s.promPort = shared.GetEnvInt("PROM_PORT", 2112)
	s.logLevel = shared.GetEnvDefault("LOG_LEVEL", "info")

	return s, nil
}

func main() {
	settings, err := newSettings()
	shared.InitLog(settings.logLevel)
	shared.PanicOnError(err, "failed to read settings")

	http.Handle(settings.promPath, promhttp.Handler())
	go http.ListenAndServe(fmt.Sprintf(":%d", settings.promPort), nil)
	log.Infof("prometheus metrics available at http://localhost:%d%s", settings.promPort, settings.promPath)

	ctx := context.Background()

	opt, err := redis.ParseURL(settings.redisURL)
	shared.PanicOnError(err, "failed to parse redis URL")
	rds := redis.NewClient(opt)
	defer rds.Close()

	rs := store.NewRedis(rds)
	shared.PanicOnError(rs.Ping(ctx), "failed to connect to Redis")
	shared.PanicOnError(rs.SeedSpots(ctx, settings.carSpots, settings.bikeSpots), "failed to seed parking spots")

	reader := console.NewReader(os.Stdin)
	opts := []parking.Option{}

	if settings.rmqURL != "" {
		entr, err := shared.NewRMQueue(settings.rmqURL, settings.entrancesQueueName)
		shared.PanicOnError(err, "failed to connect to RMQ")
		defer entr.Close()

		ext, err := shared.NewRMQueueOnConnection(entr.Connection, settings.exitsQueueName)
		shared.PanicOnError(err, "failed to declare exits queue")
		defer ext.Channel.Close()

		opts = append(opts, parking.WithNotifier(notify.NewRMQNotifier(entr, ext)))
	} else {
		log.Info("RMQ_URL not set, entrance and exit events are not published")
	}

	service := parking.NewService(console.NewPrompter(reader, os.Stdout), rs, rs, opts...)
	console.NewShell(reader, os.Stdout, service).Run(ctx)
}
