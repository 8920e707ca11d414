package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"fiscalsim/pkg/api/simulation"
	"fiscalsim/pkg/core/engine"
	"fiscalsim/pkg/core/progress"
	"fiscalsim/pkg/core/store"
)

// ServerConfig is loaded from config/server.yaml.
type ServerConfig struct {
	Addr             string   `yaml:"addr"`
	AllowOrigins     []string `yaml:"allowOrigins"`
	HeartbeatSeconds int      `yaml:"heartbeatSeconds"`
	Database         bool     `yaml:"database"`
}

func main() {
	godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := ServerConfig{
		Addr:             ":8080",
		HeartbeatSeconds: 30,
	}
	if data, err := os.ReadFile("config/server.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.WithError(err).Fatal("bad config/server.yaml")
		}
	} else {
		log.Warn("config/server.yaml not found, using defaults")
	}

	var patternStore engine.PatternStore
	var resultSink engine.ResultSink
	if cfg.Database {
		if err := store.InitDB(context.Background()); err != nil {
			log.WithError(err).Fatal("database init failed")
		}
		defer store.Close()
		patternStore = store.NewPatternRepo()
		resultSink = store.NewResultsRepo()
		log.Info("postgres store enabled")
	}

	runner := engine.NewRunner(patternStore, resultSink, log)
	hub := progress.NewHub(time.Duration(cfg.HeartbeatSeconds) * time.Second)

	router := gin.New()
	router.Use(gin.Recovery())
	if len(cfg.AllowOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.AllowOrigins
		router.Use(cors.New(corsCfg))
	} else {
		router.Use(cors.Default())
	}

	simulation.NewHandler(runner, hub, log).Register(router)

	log.WithField("addr", cfg.Addr).Info("API server starting")
	if err := router.Run(cfg.Addr); err != nil {
		log.WithError(err).Fatal("server failed to start")
	}
}
