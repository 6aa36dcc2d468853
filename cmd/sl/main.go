package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"shelfline/internal/config"
	"shelfline/internal/db"
	"shelfline/internal/domain"
	"shelfline/internal/engine"
	"shelfline/internal/migrate"
	"shelfline/internal/repo"
	"shelfline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "sl",
	Short: "Shelfline CLI",
	Long: `Shelfline simulates a goods-to-person warehouse on a tick clock.
Robots fetch shelves along A* routes, present them at the picking station,
return them to their slots, and recharge before taking more work. Each run
is persisted with its orders, fleet state, and a full telemetry log.
- Layout: the warehouse floor, fleet, shelves, and orders, described in shelfline.yml.
- Run: one simulation execution ('sl sim run'); inspect past runs with 'sl run list|show'.
- Telemetry: per-tick event log of every scheduling decision ('sl log tail').`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SHELFLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Bool("verbose", false, "log scheduling decisions to stderr")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func registerCommands() {
	rootCmd.AddCommand(simCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(layoutCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(serveCmd())
}

func simCmd() *cobra.Command {
	sim := &cobra.Command{Use: "sim", Short: "Run simulations"}
	sim.AddCommand(simRunCmd())
	return sim
}

func simRunCmd() *cobra.Command {
	var fleet int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation described by the layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.RunSimulation(ctx, engine.RunOptions{FleetSize: fleet})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Printf("run %s: %s in %d ticks (%d/%d orders)\n",
					res.Run.ID, res.Run.Status, res.Run.Ticks, res.Run.CompletedOrders, res.Run.OrderCount)
				renderRobots(res.Robots)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&fleet, "fleet", 0, "override fleet size for this run")
	return cmd
}

func runCmd() *cobra.Command {
	run := &cobra.Command{Use: "run", Short: "Inspect past runs"}
	run.AddCommand(runListCmd())
	run.AddCommand(runShowCmd())
	run.AddCommand(runOrdersCmd())
	run.AddCommand(runFleetCmd())
	return run
}

func runListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				runs, err := e.ListRuns(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(runs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Status", "Orders", "Completed", "Ticks", "Created"})
				for _, r := range runs {
					tw.AppendRow(table.Row{r.ID, r.Status, r.OrderCount, r.CompletedOrders, r.Ticks, r.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func runShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show one run (latest when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				run, err := resolveRun(ctx, e, args)
				if err != nil {
					return err
				}
				return printJSONOrTable(run)
			})
		},
	}
	return cmd
}

func runOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders [run-id]",
		Short: "List a run's orders",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				run, err := resolveRun(ctx, e, args)
				if err != nil {
					return err
				}
				orders, err := e.RunOrders(ctx, run.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(orders)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "SKU", "Status", "Submitted", "Picked", "Completed"})
				for _, o := range orders {
					tw.AppendRow(table.Row{o.ID, o.SKU, o.Status, o.SubmittedAt, tickOrDash(o.PickedAt), tickOrDash(o.CompletedAt)})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func runFleetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fleet [run-id]",
		Short: "Show a run's final fleet state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				run, err := resolveRun(ctx, e, args)
				if err != nil {
					return err
				}
				robots, err := e.RunRobots(ctx, run.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(robots)
				}
				renderRobots(robots)
				return nil
			})
		},
	}
	return cmd
}

func layoutCmd() *cobra.Command {
	layout := &cobra.Command{Use: "layout", Short: "Manage the warehouse layout"}
	layout.AddCommand(layoutInitCmd())
	layout.AddCommand(layoutShowCmd())
	layout.AddCommand(layoutValidateCmd())
	return layout
}

func layoutInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter shelfline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing layout")
	return cmd
}

func layoutShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the active layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
	return cmd
}

func layoutValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the layout file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Println("layout ok")
			return nil
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Inspect telemetry"}
	lg.AddCommand(logTailCmd())
	return lg
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, runID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail a run's telemetry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				id := runID
				if id == "" {
					run, err := e.LatestRun(ctx)
					if err != nil {
						return err
					}
					id = run.ID
				}
				events, err := e.RunEvents(ctx, id, evtType, n)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&runID, "run", "", "run id (defaults to latest)")
	return cmd
}

func authCmd() *cobra.Command {
	auth := &cobra.Command{Use: "auth", Short: "Manage API keys"}
	auth.AddCommand(authKeyCreateCmd())
	auth.AddCommand(authKeyListCmd())
	return auth
}

func authKeyCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "key-create",
		Short: "Create an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				key, raw, err := e.CreateAPIKey(ctx, name)
				if err != nil {
					return err
				}
				fmt.Printf("created key %s\n", key.ID)
				fmt.Printf("secret (shown once): %s\n", raw)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key name")
	return cmd
}

func authKeyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key-list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				keys, err := r.ListAPIKeys(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(keys)
			})
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("SHELFLINE_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("SHELFLINE_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Shelfline API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	if viper.GetBool("verbose") {
		e.Logger = log.New(os.Stderr, "", 0)
	}
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func resolveRun(ctx context.Context, e engine.Engine, args []string) (domain.Run, error) {
	if len(args) == 1 {
		return e.GetRun(ctx, args[0])
	}
	return e.LatestRun(ctx)
}

func renderRobots(robots []domain.RobotSummary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Robot", "State", "Location", "Charge", "Trips"})
	for _, s := range robots {
		tw.AppendRow(table.Row{s.RobotID, s.State, s.Location, fmt.Sprintf("%d%%", s.Charge), s.Trips})
	}
	tw.Render()
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func tickOrDash(t *int) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *t)
}
