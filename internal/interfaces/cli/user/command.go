// Package user provisions the local user records that mirror the upstream
// identity provider and issues bearer tokens for them.
package user

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abengolea/heartlink-sub000/internal/domain/user"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/auth"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/permission"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/repository"
	"github.com/abengolea/heartlink-sub000/internal/interfaces/cli/bootstrap"
	"github.com/abengolea/heartlink-sub000/internal/shared/biztime"
	"github.com/abengolea/heartlink-sub000/internal/shared/constants"
)

var (
	env      string
	userID   string
	email    string
	name     string
	admin    bool
	tokenTTL time.Duration
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVar(&userID, "id", "", "User ID as issued by the identity provider (required)")
	_ = cmd.MarkPersistentFlagRequired("id")

	cmd.AddCommand(newCreateCommand(), newTokenCommand())
	return cmd
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a user",
		RunE:  runCreate,
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant the admin role")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an existing user",
		RunE:  runToken,
	}

	cmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap.Setup(bootstrap.ResolveEnv(env))
	if err != nil {
		return err
	}
	defer rt.Close()

	u, err := user.NewUser(userID, email, name, biztime.NowUTC())
	if err != nil {
		return err
	}

	if err := repository.NewUserRepository(rt.DB, rt.Logger).Create(cmd.Context(), u); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if admin {
		enforcer, err := permission.NewEnforcer(rt.DB, rt.Config.Auth.PolicyModelPath, rt.Logger)
		if err != nil {
			return err
		}
		if err := enforcer.AddRoleForUser(u.ID(), constants.RoleAdmin); err != nil {
			return err
		}
	}

	rt.Logger.Infow("user created", "user_id", u.ID(), "admin", admin)
	fmt.Fprintf(cmd.OutOrStdout(), "User %s created\n", u.ID())
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap.Setup(bootstrap.ResolveEnv(env))
	if err != nil {
		return err
	}
	defer rt.Close()

	u, err := repository.NewUserRepository(rt.DB, rt.Logger).GetByID(cmd.Context(), userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if u == nil {
		return fmt.Errorf("user %s not found", userID)
	}

	enforcer, err := permission.NewEnforcer(rt.DB, rt.Config.Auth.PolicyModelPath, rt.Logger)
	if err != nil {
		return err
	}
	roles, err := enforcer.GetRolesForUser(u.ID())
	if err != nil {
		return err
	}

	token, err := auth.NewJWTService(rt.Config.Auth.JWT.Secret, rt.Config.Auth.JWT.Issuer).
		Generate(u.ID(), roleFor(roles), tokenTTL)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

// roleFor picks the token role from the casbin role assignments.
func roleFor(roles []string) string {
	for _, r := range roles {
		if r == constants.RoleAdmin {
			return constants.RoleAdmin
		}
	}
	return constants.RoleUser
}
