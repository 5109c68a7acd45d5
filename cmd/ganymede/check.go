package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/admission"
	"mercator-hq/ganymede/pkg/admission/store"
	"mercator-hq/ganymede/pkg/admission/tier"
	"mercator-hq/ganymede/pkg/config"
)

var checkFlags struct {
	userID  string
	modelID string
	cost    int64
	refund  bool
	format  string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a one-shot admission check",
	Long: `Run a single admission check (or refund) against the configured store.

The check consumes the given cost from the user's bucket exactly as the
service would: the model's tier supplies the policy, the store applies
the decision atomically, and the outcome is printed. A denied check
exits with status 2 so scripts can branch on the decision.

Examples:
  # Consume one token for a request
  ganymede check --user u-123 --model assistant-pro

  # Consume a weighted cost
  ganymede check --user u-123 --model assistant-pro --cost 5

  # Refund a cost whose downstream work failed
  ganymede check --user u-123 --model assistant-pro --cost 5 --refund

  # Machine-readable output
  ganymede check --user u-123 --model assistant-pro --format json`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkFlags.userID, "user", "", "user identifier (required)")
	checkCmd.Flags().StringVar(&checkFlags.modelID, "model", "", "model identifier (required)")
	checkCmd.Flags().Int64Var(&checkFlags.cost, "cost", 1, "cost to consume or refund")
	checkCmd.Flags().BoolVar(&checkFlags.refund, "refund", false, "credit the cost back instead of consuming")
	checkCmd.Flags().StringVar(&checkFlags.format, "format", "text", "output format: text, json")
	_ = checkCmd.MarkFlagRequired("user")
	_ = checkCmd.MarkFlagRequired("model")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := setupLogging(cfg)

	ctx := context.Background()
	requestID := uuid.New().String()
	logger = logger.With("request_id", requestID)

	st, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	registry, err := tier.NewRegistry(ctx, tier.NewFileSource(cfg.Tiers.Path), logger)
	if err != nil {
		return fmt.Errorf("failed to load tiers: %w", err)
	}

	opts := []admission.Option{
		admission.WithLogger(logger),
		admission.WithTimeout(cfg.Gate.Timeout),
	}
	if cfg.Gate.FailOpen {
		opts = append(opts, admission.WithFailOpen())
	}
	gate := admission.NewGate(registry, st, opts...)

	var res admission.Result
	if checkFlags.refund {
		res, err = gate.Refund(ctx, checkFlags.userID, checkFlags.modelID, checkFlags.cost)
	} else {
		res, err = gate.CheckAndConsume(ctx, checkFlags.userID, checkFlags.modelID, checkFlags.cost)
	}
	if err != nil && res.Status != admission.StatusStoreUnavailable {
		return err
	}

	if printErr := printResult(requestID, res); printErr != nil {
		return printErr
	}

	// Distinct exit codes: 0 allowed, 2 denied, 1 infrastructure fault.
	switch res.Status {
	case admission.StatusStoreUnavailable:
		if !res.Allowed {
			return err
		}
		logger.Warn("store unavailable, admitted by fail-open policy", "error", err)
	case admission.StatusDenied, admission.StatusUnknownModel:
		os.Exit(2)
	}
	return nil
}

func printResult(requestID string, res admission.Result) error {
	if checkFlags.format == "json" {
		out := struct {
			RequestID  string `json:"request_id"`
			Status     string `json:"status"`
			Allowed    bool   `json:"allowed"`
			Remaining  int64  `json:"remaining"`
			RetryAfter string `json:"retry_after,omitempty"`
			Reason     string `json:"reason,omitempty"`
		}{
			RequestID: requestID,
			Status:    string(res.Status),
			Allowed:   res.Allowed,
			Remaining: res.Remaining,
			Reason:    string(res.Reason),
		}
		if res.RetryAfter > 0 {
			out.RetryAfter = res.RetryAfter.String()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	switch res.Status {
	case admission.StatusAllowed:
		fmt.Printf("✓ Allowed (%d tokens remaining)\n", res.Remaining)
	case admission.StatusDenied:
		if res.RetryAfter > 0 {
			fmt.Printf("✗ Denied: %s (%d tokens remaining, retry after %s)\n",
				res.Reason, res.Remaining, res.RetryAfter)
		} else {
			fmt.Printf("✗ Denied: %s\n", res.Reason)
		}
	case admission.StatusUnknownModel:
		fmt.Println("✗ Unknown model: no configured tier claims it")
	case admission.StatusStoreUnavailable:
		if res.Allowed {
			fmt.Println("! Store unavailable, admitted by fail-open policy")
		} else {
			fmt.Println("✗ Store unavailable, denied by fail-closed policy")
		}
	}
	return nil
}

// buildStore constructs the quota store selected by the configuration.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	retry := store.RetryConfig{
		MaxAttempts: cfg.Store.Retry.MaxAttempts,
		BaseBackoff: cfg.Store.Retry.BaseBackoff,
	}

	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		return store.NewSQLiteStoreWithConfig(store.SQLiteConfig{
			Path:               cfg.Store.SQLite.Path,
			BusyTimeout:        cfg.Store.SQLite.BusyTimeout,
			CheckpointInterval: cfg.Store.SQLite.CheckpointInterval,
		})
	case "postgres":
		return store.NewPostgresStore(ctx, store.PostgresConfig{
			DSN:   postgresDSN(cfg.Store.Postgres),
			Retry: retry,
		})
	case "redis":
		return store.NewRedisStore(ctx, store.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Retry:    retry,
		})
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}

func postgresDSN(cfg config.PostgresConfig) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	q := u.Query()
	q.Set("sslmode", cfg.SSLMode)
	if cfg.MaxConns > 0 {
		q.Set("pool_max_conns", fmt.Sprintf("%d", cfg.MaxConns))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
