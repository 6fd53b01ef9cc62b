package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/enums"
	redrepo "github.com/lovevibesai/Love-Vibes-sub001/internal/repo/redis"
	authsvc "github.com/lovevibesai/Love-Vibes-sub001/internal/services/auth"
)

func tokenCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API sessions",
	}
	cmd.AddCommand(tokenIssueCmd(load))
	return cmd
}

func tokenIssueCmd(load configLoader) *cobra.Command {
	var (
		userID string
		role   string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Open a session for a user and print its tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsedRole, err := parseRole(role)
			if err != nil {
				return err
			}

			cfg, err := load()
			if err != nil {
				return err
			}

			client := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			defer func() { _ = client.Close() }()
			if err := redrepo.Ping(cmd.Context(), client); err != nil {
				return err
			}

			service := authsvc.NewService(
				authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL),
				redrepo.NewSessionRepo(client),
				cfg.Auth.RefreshTTL,
			)
			result, err := service.IssueForUser(cmd.Context(), userID, parsedRole)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"user_id":        result.UserID,
				"role":           result.Role,
				"access_token":   result.AccessToken,
				"refresh_token":  result.RefreshToken,
				"access_expires": result.AccessExpires,
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&role, "role", string(enums.RoleUser), "USER or ADMIN")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func parseRole(raw string) (enums.Role, error) {
	switch enums.Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case enums.RoleUser:
		return enums.RoleUser, nil
	case enums.RoleAdmin:
		return enums.RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}
