package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/geoplaces"
	"github.com/joho/godotenv"

	"github.com/keatteoh99/medrock/internal/agent"
	"github.com/keatteoh99/medrock/internal/config"
	"github.com/keatteoh99/medrock/internal/core"
	"github.com/keatteoh99/medrock/internal/history"
	httpserver "github.com/keatteoh99/medrock/internal/http"
	"github.com/keatteoh99/medrock/internal/llm"
	"github.com/keatteoh99/medrock/internal/places"
	"github.com/keatteoh99/medrock/internal/report"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Error("failed to load AWS configuration", "error", err)
		os.Exit(1)
	}

	runtime := bedrockruntime.NewFromConfig(awsCfg)
	classifyLLM, err := llm.NewBedrockClient(runtime, cfg.ModelID)
	if err != nil {
		logger.Error("failed to build model client", "error", err)
		os.Exit(1)
	}
	chatLLM := classifyLLM
	if cfg.ChatModelID != cfg.ModelID {
		chatLLM, err = llm.NewBedrockClient(runtime, cfg.ChatModelID)
		if err != nil {
			logger.Error("failed to build chat model client", "error", err)
			os.Exit(1)
		}
	}

	store, err := history.NewStore(dynamodb.NewFromConfig(awsCfg), cfg.HistoryTable)
	if err != nil {
		logger.Error("failed to build history store", "error", err)
		os.Exit(1)
	}

	geoCfg := awsCfg
	geoCfg.Region = cfg.PlacesRegion
	finder, err := places.NewFinder(geoplaces.NewFromConfig(geoCfg), cfg.LocationAPIKey)
	if err != nil {
		logger.Error("failed to build facility finder", "error", err)
		os.Exit(1)
	}

	classifier := core.NewClassifier(classifyLLM)
	chatService := core.NewChatService(chatLLM, store, finder, logger)

	var agentService httpserver.AgentService
	if cfg.AgentConfigured() {
		gateway, err := agent.NewBedrockGateway(bedrockagentruntime.NewFromConfig(awsCfg), cfg.AgentID, cfg.AgentAliasID)
		if err != nil {
			logger.Error("failed to build agent gateway", "error", err)
			os.Exit(1)
		}
		manager := agent.NewManager(gateway, cfg.SessionTTL, logger)
		go manager.Run(ctx, cfg.SweepInterval)
		agentService = manager
	} else {
		logger.Warn("agent is not configured, /api/agent disabled")
	}

	var reportService httpserver.ReportService
	if cfg.ReportsConfigured() {
		objectStore, err := report.NewObjectStore(report.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.AWSRegion,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.ReportBucket,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			logger.Error("failed to build report store", "error", err)
			os.Exit(1)
		}
		reportService, err = report.NewService(objectStore, logger)
		if err != nil {
			logger.Error("failed to build report service", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("report bucket is not configured, /api/reports disabled")
	}

	srv := httpserver.NewServer(classifier, chatService, agentService, store, reportService, logger)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
