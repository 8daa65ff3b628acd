package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/doclink-ai/doclink/internal/config"
	"github.com/doclink-ai/doclink/internal/database"
	"github.com/doclink-ai/doclink/internal/domain"
	"github.com/doclink-ai/doclink/internal/pagination"
	"github.com/doclink-ai/doclink/internal/repository"
	"github.com/doclink-ai/doclink/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
		Long:  "Create users, list accounts, change tiers, and mint access tokens",
	}

	cmd.AddCommand(UserCreateCmd())
	cmd.AddCommand(UserListCmd())
	cmd.AddCommand(UserTierCmd())
	cmd.AddCommand(UserTokenCmd())

	return cmd
}

func UserCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create a user account",
		Long:  "Create a user account with a default domain. Idempotent on email.",
		Args:  cobra.ExactArgs(1),
		RunE:  runUserCreate,
	}

	cmd.Flags().String("name", "", "First name")
	cmd.Flags().String("surname", "", "Surname")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	email := args[0]
	name, _ := cmd.Flags().GetString("name")
	surname, _ := cmd.Flags().GetString("surname")
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	userSvc := newUserService(pool)

	u, err := userSvc.EnsureUser(ctx, "", name, surname, email)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":         u.ID,
			"email":      u.Email,
			"tier":       u.Tier,
			"created_at": u.CreatedAt,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("User ready: %s (%s, tier: %s)\n", u.Email, u.ID, u.Tier)
	}

	return nil
}

func UserListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Long:  "List all user accounts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runUserList(outputFormat, limit, cursor)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runUserList(outputFormat string, limit int, cursorStr string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)

	cursor, _ := pagination.DecodeCursor(cursorStr)
	result, err := userRepo.ListWithCursor(ctx, cursor, limit)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if outputFormat == "json" {
		data := make([]map[string]interface{}, len(result.Items))
		for i, u := range result.Items {
			data[i] = map[string]interface{}{
				"id":         u.ID,
				"email":      u.Email,
				"tier":       u.Tier,
				"created_at": u.CreatedAt,
			}
		}
		output := map[string]interface{}{
			"items":    data,
			"cursor":   result.NextCursor,
			"has_more": result.HasMore,
		}
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		if len(result.Items) == 0 {
			fmt.Println("No users found")
			return nil
		}
		fmt.Println("Users:")
		for _, u := range result.Items {
			fmt.Printf("  %s: %s [%s] (created: %s)\n", u.ID, u.Email, u.Tier, u.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		if result.HasMore && result.NextCursor != "" {
			fmt.Printf("\nMore results available. Use --cursor %s\n", result.NextCursor)
		}
	}

	return nil
}

func UserTierCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tier <user-id> <free|premium>",
		Short: "Change a user's subscription tier",
		Long:  "Move a user between tiers. Existing resources above the new ceilings are kept.",
		Args:  cobra.ExactArgs(2),
		RunE:  runUserTier,
	}

	return cmd
}

func runUserTier(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	userID := args[0]
	tier := domain.Tier(args[1])

	if tier != domain.TierFree && tier != domain.TierPremium {
		return fmt.Errorf("invalid tier %q (expected free or premium)", tier)
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	userSvc := newUserService(pool)

	if err := userSvc.SetTier(ctx, userID, tier); err != nil {
		return fmt.Errorf("failed to set tier: %w", err)
	}

	fmt.Printf("User %s moved to tier %s\n", userID, tier)
	return nil
}

func UserTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint an access token for a user",
		Long:  "Mint a signed bearer token. Requires DOCLINK_AUTH_SECRET to match the server's.",
		Args:  cobra.ExactArgs(1),
		RunE:  runUserToken,
	}

	return cmd
}

func runUserToken(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	userID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	if _, err := userRepo.GetByID(ctx, userID); err != nil {
		return fmt.Errorf("user lookup failed: %w", err)
	}

	auth := service.NewTokenAuthenticator(cfg.AuthSecret, userRepo)
	fmt.Println(auth.MintToken(userID))
	return nil
}

func newUserService(pool *pgxpool.Pool) *service.UserService {
	userRepo := repository.NewUserRepository(pool)
	domainRepo := repository.NewDomainRepository(pool)
	fileRepo := repository.NewFileRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	txRunner := repository.NewTxRunner(pool)
	quota := service.NewQuotaLedger(userRepo, sessionRepo)
	uuidGen := &service.DefaultUUIDGenerator{}
	return service.NewUserService(txRunner, userRepo, domainRepo, fileRepo, sessionRepo, quota, uuidGen)
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return database.NewPool(ctx, cfg.DatabaseURL)
}
