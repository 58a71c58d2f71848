package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"video-quiz-service/internal/auth"
	"video-quiz-service/internal/config"
	infraredis "video-quiz-service/internal/infra/redis"
)

const defaultSessionTTL = 24 * time.Hour

// NewTokenCmd issues a credential for local runs: a signed JWT in jwt mode, or a session
// registered in Redis in session mode. Both live for auth.session_ttl.
func NewTokenCmd(configPath *string) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			var client *redis.Client
			if cfg.Redis.Addr != "" {
				client = redis.NewClient(&redis.Options{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
				defer client.Close()
			}
			return issueToken(cmd.Context(), cfg, client, userID, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id the token identifies")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func issueToken(ctx context.Context, cfg config.Config, client *redis.Client, userID string, out io.Writer) error {
	if userID == "" {
		return errors.New("user is required")
	}
	ttl := config.TTLDuration(cfg.Auth.SessionTTL, defaultSessionTTL)

	var token string
	switch cfg.Auth.Mode {
	case config.AuthModeJWT:
		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is required in jwt mode")
		}
		signed, err := auth.NewJWTAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer).Issue(userID, ttl)
		if err != nil {
			return err
		}
		token = signed
	case config.AuthModeSession:
		if client == nil {
			return errors.New("session tokens need redis.addr")
		}
		token = uuid.NewString()
		if err := infraredis.NewSessionStore(client).Put(ctx, token, userID, ttl); err != nil {
			return fmt.Errorf("register session: %w", err)
		}
	default:
		return errors.New("unknown auth mode " + cfg.Auth.Mode)
	}
	_, err := fmt.Fprintln(out, token)
	return err
}
