package engine_test

import (
	"context"
	"testing"
	"time"

	"shelfline/internal/config"
	"shelfline/internal/db"
	"shelfline/internal/domain"
	"shelfline/internal/engine"
	"shelfline/internal/migrate"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T, cfg *config.Config) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func TestRunSimulationCompletesDefaultLayout(t *testing.T) {
	env := newTestEnv(t, nil)
	res, err := env.Engine.RunSimulation(env.Ctx, engine.RunOptions{})
	if err != nil {
		t.Fatalf("run simulation: %v", err)
	}
	if res.Run.Status != domain.RunCompleted {
		t.Fatalf("status = %s, want completed", res.Run.Status)
	}
	if res.Run.OrderCount != 2 || res.Run.CompletedOrders != 2 {
		t.Fatalf("orders = %d/%d", res.Run.CompletedOrders, res.Run.OrderCount)
	}
	if res.Run.Ticks == 0 {
		t.Fatal("run should consume ticks")
	}
	for _, o := range res.Orders {
		if o.Status != domain.OrderCompleted {
			t.Fatalf("order %s status = %s", o.ID, o.Status)
		}
		if o.PickedAt == nil || o.CompletedAt == nil {
			t.Fatalf("order %s missing tick marks", o.ID)
		}
		if *o.PickedAt > *o.CompletedAt {
			t.Fatalf("order %s picked after completion", o.ID)
		}
	}
	if len(res.Robots) != 10 {
		t.Fatalf("robots = %d", len(res.Robots))
	}
}

func TestRunSimulationPersistsEverything(t *testing.T) {
	env := newTestEnv(t, nil)
	res, err := env.Engine.RunSimulation(env.Ctx, engine.RunOptions{})
	if err != nil {
		t.Fatal(err)
	}

	got, err := env.Engine.GetRun(env.Ctx, res.Run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != res.Run.Status || got.Ticks != res.Run.Ticks {
		t.Fatalf("persisted run = %+v, want %+v", got, res.Run)
	}

	orders, err := env.Engine.RunOrders(env.Ctx, res.Run.ID)
	if err != nil {
		t.Fatalf("run orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("orders = %d", len(orders))
	}

	robots, err := env.Engine.RunRobots(env.Ctx, res.Run.ID)
	if err != nil {
		t.Fatalf("run robots: %v", err)
	}
	if len(robots) != 10 {
		t.Fatalf("robots = %d", len(robots))
	}

	events, err := env.Engine.RunEvents(env.Ctx, res.Run.ID, "", 0)
	if err != nil {
		t.Fatalf("run events: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("telemetry should not be empty")
	}
	completed, err := env.Engine.RunEvents(env.Ctx, res.Run.ID, "order.completed", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(completed) != 2 {
		t.Fatalf("order.completed events = %d, want 2", len(completed))
	}

	latest, err := env.Engine.LatestRun(env.Ctx)
	if err != nil || latest.ID != res.Run.ID {
		t.Fatalf("latest run = %v, %v", latest, err)
	}
}

func TestRunSimulationAppliesOverrides(t *testing.T) {
	env := newTestEnv(t, nil)
	opts := engine.RunOptions{
		FleetSize: 3,
		Orders: []config.OrderConfig{
			{SKU: "SKU-2001", At: 0},
		},
	}
	res, err := env.Engine.RunSimulation(env.Ctx, opts)
	if err != nil {
		t.Fatalf("run simulation: %v", err)
	}
	if res.Run.FleetSize != 3 || len(res.Robots) != 3 {
		t.Fatalf("fleet = %d, robots = %d", res.Run.FleetSize, len(res.Robots))
	}
	if res.Run.OrderCount != 1 || res.Orders[0].SKU != "SKU-2001" {
		t.Fatalf("orders = %+v", res.Orders)
	}
	// The stored layout itself must stay untouched for the next run.
	res, err = env.Engine.RunSimulation(env.Ctx, engine.RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Run.FleetSize != 10 || res.Run.OrderCount != 2 {
		t.Fatalf("default run after override = %d robots, %d orders", res.Run.FleetSize, res.Run.OrderCount)
	}
}

func TestRunSimulationRejectsUnknownOverrideSKU(t *testing.T) {
	env := newTestEnv(t, nil)
	opts := engine.RunOptions{Orders: []config.OrderConfig{{SKU: "SKU-NOPE", At: 0}}}
	if _, err := env.Engine.RunSimulation(env.Ctx, opts); err == nil {
		t.Fatal("expected validation error for unstocked sku")
	}
}

func TestRunSimulationExhaustsTinyBudget(t *testing.T) {
	cfg := config.Default()
	cfg.Sim.MaxTicks = 3
	env := newTestEnv(t, cfg)
	res, err := env.Engine.RunSimulation(env.Ctx, engine.RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Run.Status != domain.RunExhausted {
		t.Fatalf("status = %s, want exhausted", res.Run.Status)
	}
	if res.Run.CompletedOrders != 0 {
		t.Fatalf("completed = %d in 3 ticks", res.Run.CompletedOrders)
	}
}

func TestRunSimulationRejectsInvalidLayout(t *testing.T) {
	cfg := config.Default()
	cfg.Fleet.Size = 0
	env := newTestEnv(t, cfg)
	if _, err := env.Engine.RunSimulation(env.Ctx, engine.RunOptions{}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestGetRunUnknownID(t *testing.T) {
	env := newTestEnv(t, nil)
	if _, err := env.Engine.GetRun(env.Ctx, "nope"); err == nil {
		t.Fatal("expected not found")
	}
	if _, err := env.Engine.RunEvents(env.Ctx, "nope", "", 0); err == nil {
		t.Fatal("expected not found for events of unknown run")
	}
}

func TestCreateAPIKey(t *testing.T) {
	env := newTestEnv(t, nil)
	key, raw, err := env.Engine.CreateAPIKey(env.Ctx, "ci")
	if err != nil {
		t.Fatalf("create key: %v", err)
	}
	if raw == "" || key.KeyHash == raw {
		t.Fatal("raw secret must differ from stored hash")
	}
	keys, err := env.Engine.Repo.ListAPIKeys(env.Ctx)
	if err != nil || len(keys) != 1 {
		t.Fatalf("list keys = %v, %v", keys, err)
	}
	if keys[0].Name != "ci" {
		t.Fatalf("name = %s", keys[0].Name)
	}
}
