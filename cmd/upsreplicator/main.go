// cmd/upsreplicator/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/tamzrod/ups-replicator/internal/api"
	"github.com/tamzrod/ups-replicator/internal/config"
	"github.com/tamzrod/ups-replicator/internal/replicator"
	wmqtt "github.com/tamzrod/ups-replicator/internal/writer/mqtt"
)

var version = "dev"

func main() {
	flag.Usage = func() {
		os.Stderr.WriteString("usage: upsreplicator [-config path] [config.yaml]\n")
		flag.PrintDefaults()
	}
	cfgPath := flag.String("config", "config.yaml", "path to YAML configuration")
	flag.Parse()
	if flag.NArg() > 0 {
		*cfgPath = flag.Arg(0)
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Str("path", *cfgPath).Msg("config failed")
	}

	log := newLogger(cfg.Replicator)
	log.Info().Str("version", version).Int("units", len(cfg.Replicator.Units)).Msg("starting")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --------------------
	// MQTT (optional)
	// --------------------

	var mqttClient paho.Client
	opts := replicator.Options{TopicPrefix: cfg.Replicator.MQTT.TopicPrefix}

	if cfg.Replicator.MQTT.Broker != "" {
		mqttClient, err = wmqtt.Connect(cfg.Replicator.MQTT, log.With().Str("component", "mqtt").Logger())
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt connect failed")
		}
		defer wmqtt.Disconnect(mqttClient, cfg.Replicator.MQTT.TopicPrefix)
		opts.MQTT = mqttClient
	}

	// --------------------
	// Per-unit pipelines
	// --------------------

	mgr := replicator.NewManager(opts, log)
	mgr.Apply(ctx, cfg)
	defer mgr.Stop()

	// --------------------
	// HTTP / MCP (optional)
	// --------------------

	if listen := cfg.Replicator.HTTP.Listen; listen != "" {
		app := api.New(mgr, api.Options{MCP: cfg.Replicator.HTTP.MCP, Version: version}, log.With().Str("component", "http").Logger())

		go func() {
			log.Info().Str("listen", listen).Bool("mcp", cfg.Replicator.HTTP.MCP).Msg("http listening")
			if err := app.Listen(listen); err != nil {
				log.Error().Err(err).Msg("http server stopped")
			}
		}()
		defer func() {
			if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
				log.Warn().Err(err).Msg("http shutdown")
			}
		}()
	}

	// --------------------
	// Reload on SIGHUP, stop on SIGINT/SIGTERM
	// --------------------

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return

		case <-hup:
			next, err := loadConfig(*cfgPath)
			if err != nil {
				log.Error().Err(err).Msg("reload failed, keeping current config")
				continue
			}
			if next.Replicator.MQTT != cfg.Replicator.MQTT || next.Replicator.HTTP != cfg.Replicator.HTTP {
				log.Warn().Msg("mqtt/http changes require a restart")
			}
			mgr.Apply(ctx, next)
			cfg = next
			log.Info().Int("units", len(next.Replicator.Units)).Msg("config reloaded")
		}
	}
}

// loadConfig runs the full Load -> env -> Validate -> Normalize chain.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	config.ApplyEnvOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

func newLogger(r config.ReplicatorConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(r.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if r.LogFormat == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
