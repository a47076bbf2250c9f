package cli

import (
	"context"
	"fmt"
	"log/slog"

	"gdrive-mcp/internal/auth"
	"gdrive-mcp/internal/drive"
	"gdrive-mcp/internal/fileops"
)

// app holds the services shared by commands that talk to Drive.
type app struct {
	session *auth.Session
	drive   *drive.Service
	files   *fileops.Operations
}

// newSession resolves the OAuth client and builds an unauthenticated session.
func newSession(ctx context.Context, cfg *auth.Config, logger *slog.Logger) (*auth.Session, error) {
	creds, err := auth.LoadClientCredentials(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load OAuth credentials: %w", err)
	}

	oauthCfg := cfg.OAuthConfig(creds)
	store := auth.NewStore(cfg.GetTokenPath(), logger)
	flow := auth.NewFlowRunner(oauthCfg, cfg.ListenAddr(), cfg.CallbackPath(), logger)

	return auth.NewSession(oauthCfg, store, flow, logger), nil
}

// newApp authenticates and builds the Drive facade once.
func newApp(ctx context.Context, opts ...fileops.Option) (*app, error) {
	cfg := newConfig()
	logger := slog.Default()

	session, err := newSession(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := session.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	logger.Info("Google Drive authentication ready", "token_path", cfg.GetTokenPath())

	api, err := session.DriveService(ctx)
	if err != nil {
		return nil, err
	}
	ds := drive.NewService(api)

	return &app{
		session: session,
		drive:   ds,
		files:   fileops.New(ds, logger, opts...),
	}, nil
}
