package main

import (
	"context"
	"log"
	"time"

	"vault-sentinel/internal/app"
	"vault-sentinel/internal/audit"
	"vault-sentinel/internal/config"
	"vault-sentinel/internal/executor"
	"vault-sentinel/internal/policy"
	"vault-sentinel/internal/ports/http"
	"vault-sentinel/internal/repository/mongodb"
	"vault-sentinel/internal/vault"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// balance given to every seeded vault so the demo effect step has funds
const demoVaultBalance = 1_000_000

func main() {
	logger, err := getLogger()
	if err != nil {
		log.Fatalln("setting up the logger failed: ", err)
		return
	}
	defer logger.Sync()

	logger.Info("application started")

	var policyStore policy.Store = policy.NewMemoryStore()
	var nonces executor.NonceStore = executor.NewMemoryNonceStore()
	var sink audit.Sink = audit.NewMemorySink()

	if uri := config.GetDbConnectionURI(); uri != "" {
		repo, err := mongodb.NewConnection(logger, uri)
		if err != nil {
			logger.Fatal("failed to connect to the database: " + err.Error())
		}
		defer repo.Disconnect()

		policyStore = repo
		nonces = repo
		sink = repo
		logger.Info("using the database stores", zap.String("db", config.GetDatabaseName()))
	} else {
		logger.Warn("no DB_URI configured, running on in-memory stores")
	}

	policies := policy.NewManager(logger, policyStore, nil)
	vaults := vault.NewRegistry(logger)

	if seedFile := config.GetPolicySeedFile(); seedFile != "" {
		seed, err := policy.LoadSeedFile(seedFile)
		if err != nil {
			logger.Fatal("failed to load the policy seed: " + err.Error())
		}
		if err := policies.ApplySeed(context.Background(), seed); err != nil {
			logger.Fatal("failed to apply the policy seed: " + err.Error())
		}
		for _, seeded := range seed {
			vaults.SetBalance(seeded.Vault, demoVaultBalance)
		}
		logger.Info("policy seed applied", zap.Int("policies", len(seed)))
	}

	application, err := app.NewApp(logger, policies, nonces, vaults, sink)
	if err != nil {
		logger.Fatal("failed to set up the application: " + err.Error())
	}

	ser := http.NewServer(logger, application, config.GetPort())
	if err := ser.Run(); err != nil {
		logger.Error("failed to run the server: " + err.Error())
	}

	logger.Info("application finished")
}

func getLogger() (*zap.Logger, error) {
	options := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zap.FatalLevel),
	}

	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	config.Development = true
	config.Level.SetLevel(zap.DebugLevel)

	logger, err := config.Build()
	return logger.WithOptions(options...), err
}
