package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	configfile "github.com/custodia-labs/relay-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/relay-cli/internal/adapters/driven/oauth"
	"github.com/custodia-labs/relay-cli/internal/adapters/driven/session"
	"github.com/custodia-labs/relay-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/relay-cli/internal/connectors/microsoft/chats"
	"github.com/custodia-labs/relay-cli/internal/connectors/twilio"
	"github.com/custodia-labs/relay-cli/internal/core/services"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cli.SetVersion(version)

	// A local .env is convenient for Twilio credentials during development.
	_ = godotenv.Load()

	cfg, err := configfile.Load("")
	if err != nil {
		log.Printf("failed to load configuration: %v", err)
		return 1
	}

	// Create the namespaced session store for credentials
	sessionStore, err := session.NewStore("")
	if err != nil {
		log.Printf("failed to create session store: %v", err)
		return 1
	}
	defer sessionStore.Close()

	// The sign-in flow is chosen once at startup; everything downstream sees
	// one uniform credential source.
	mode := oauth.DetectMode(cfg.Auth.Mode)
	authFlow := oauth.NewClient(oauth.Config{
		ClientID:     cfg.Auth.ClientID,
		TenantID:     cfg.Auth.TenantID,
		Scopes:       cfg.Auth.Scopes,
		RedirectPort: cfg.Auth.RedirectPort,
	}, mode)

	authSvc := services.NewAuthService(sessionStore, authFlow)

	// Graph chat client authenticates through the session service.
	chatClient := chats.New(authSvc)
	chatSvc := services.NewChatSendService(chatClient)

	smsGateway := twilio.New(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	smsSvc := services.NewSMSService(smsGateway)

	// Inject services into CLI commands
	cli.SetServices(&cli.Services{
		Chat:        chatSvc,
		SMS:         smsSvc,
		Session:     authSvc,
		GatewayAddr: cfg.Gateway.ListenAddr,
	})

	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}
