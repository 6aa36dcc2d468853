package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"shelfline/internal/config"
	"shelfline/internal/domain"
	"shelfline/internal/events"
	"shelfline/internal/fleet"
	"shelfline/internal/grid"
	"shelfline/internal/inventory"
	"shelfline/internal/path"
	"shelfline/internal/picker"
	"shelfline/internal/repo"
	"shelfline/internal/sched"
	"shelfline/internal/sim"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
	Logger *log.Logger
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// runRecorder buffers telemetry rows in memory during a run so the whole
// run persists in one transaction afterwards.
type runRecorder struct {
	rows []recordedRow
}

type recordedRow struct {
	tick       int
	evtType    string
	entityKind string
	entityID   string
	payload    map[string]any
}

func (r *runRecorder) Record(tick int, evtType, entityKind, entityID string, payload map[string]any) {
	r.rows = append(r.rows, recordedRow{tick, evtType, entityKind, entityID, payload})
}

// orderSeeder generates an order when its seed event fires, so orders
// declared for a later tick enter the schedule at that tick.
type orderSeeder struct {
	inv *inventory.Inventory
}

func (s *orderSeeder) HandleTask(t *sim.Task, e *sim.Event) {
	s.inv.GenerateOrder(t.SKU)
}

// RunResult is one finished run together with its full order list and
// fleet state.
type RunResult struct {
	Run    domain.Run
	Orders []domain.Order
	Robots []domain.RobotSummary
}

// RunOptions overrides parts of the stored layout for a single run. Zero
// values leave the layout untouched.
type RunOptions struct {
	FleetSize int
	Orders    []config.OrderConfig
}

// RunSimulation builds the warehouse world from the layout, runs the
// schedule until all work drains or the tick budget expires, and persists
// the run, its orders, its fleet and its telemetry in one transaction.
func (e Engine) RunSimulation(ctx context.Context, opts RunOptions) (RunResult, error) {
	if e.Config == nil {
		return RunResult{}, fmt.Errorf("config not loaded")
	}
	layout := *e.Config
	if opts.FleetSize > 0 {
		layout.Fleet.Size = opts.FleetSize
	}
	if len(opts.Orders) > 0 {
		layout.Orders = opts.Orders
	}
	if err := layout.Validate(); err != nil {
		return RunResult{}, fmt.Errorf("invalid run configuration: %w", err)
	}
	cfg := &layout

	floor, err := grid.FromConfig(cfg)
	if err != nil {
		return RunResult{}, err
	}
	driver := sim.NewDriver(e.Logger)
	recorder := &runRecorder{}
	finder := path.NewFinder(floor)
	pool := fleet.NewPool(cfg.Fleet.Size, cfg.Fleet.Home, cfg.Fleet.ChargeThreshold)
	station := picker.NewStation(cfg.Picker.Dropoff, driver, recorder, e.Logger)
	scheduler := sched.New(driver, finder, pool, station, recorder, e.Logger)
	inv := inventory.New(cfg, driver, scheduler, e.Logger)
	scheduler.SetOrderTracker(inv)
	station.SetOrderTracker(inv)

	seeder := &orderSeeder{inv: inv}
	for i, oc := range cfg.Orders {
		seed := sim.NewEvent(fmt.Sprintf("seed-%d", i), &sim.Task{
			Type: sim.AvailableRobotRetrieveFromLocation,
			SKU:  oc.SKU,
		}, seeder)
		driver.ScheduleAfter(seed, oc.At)
	}

	drained := driver.Run(cfg.Sim.MaxTicks)

	completed := 0
	for _, o := range inv.Orders() {
		if o.Status == domain.OrderCompleted {
			completed++
		}
	}
	// Charging may still be trailing when the budget expires; the run
	// counts as completed as long as every order finished.
	status := domain.RunExhausted
	if completed == len(inv.Orders()) {
		status = domain.RunCompleted
	}
	run := domain.Run{
		ID:              uuid.NewString(),
		Status:          status,
		FleetSize:       pool.Size(),
		OrderCount:      len(inv.Orders()),
		CompletedOrders: completed,
		Ticks:           driver.Clock(),
		CreatedAt:       e.now().UTC().Format(time.RFC3339),
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return RunResult{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertRun(ctx, tx, run); err != nil {
		return RunResult{}, fmt.Errorf("insert run: %w", err)
	}
	var orders []domain.Order
	for _, o := range inv.Orders() {
		o.RunID = run.ID
		if err := e.Repo.InsertOrder(ctx, tx, *o); err != nil {
			return RunResult{}, fmt.Errorf("insert order: %w", err)
		}
		orders = append(orders, *o)
	}
	var robots []domain.RobotSummary
	for _, s := range pool.Summaries() {
		s.RunID = run.ID
		if err := e.Repo.InsertRobot(ctx, tx, s); err != nil {
			return RunResult{}, fmt.Errorf("insert robot: %w", err)
		}
		robots = append(robots, s)
	}
	for _, row := range recorder.rows {
		if err := e.Events.Append(ctx, tx, run.ID, row.tick, row.evtType, row.entityKind, row.entityID, row.payload); err != nil {
			return RunResult{}, fmt.Errorf("append event: %w", err)
		}
	}
	if err := e.Events.Append(ctx, tx, run.ID, driver.Clock(), "run.finished", "run", run.ID, events.EventPayload{
		"status":           run.Status,
		"completed_orders": completed,
		"drained":          drained,
	}); err != nil {
		return RunResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return RunResult{}, err
	}
	return RunResult{Run: run, Orders: orders, Robots: robots}, nil
}

func (e Engine) GetRun(ctx context.Context, id string) (domain.Run, error) {
	return e.Repo.GetRun(ctx, id)
}

func (e Engine) ListRuns(ctx context.Context) ([]domain.Run, error) {
	return e.Repo.ListRuns(ctx)
}

func (e Engine) LatestRun(ctx context.Context) (domain.Run, error) {
	return e.Repo.LatestRun(ctx)
}

func (e Engine) RunOrders(ctx context.Context, runID string) ([]domain.Order, error) {
	if _, err := e.Repo.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return e.Repo.ListOrders(ctx, runID)
}

func (e Engine) RunRobots(ctx context.Context, runID string) ([]domain.RobotSummary, error) {
	if _, err := e.Repo.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return e.Repo.ListRobots(ctx, runID)
}

func (e Engine) RunEvents(ctx context.Context, runID, evtType string, limit int) ([]domain.Event, error) {
	if _, err := e.Repo.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return e.Repo.ListEvents(ctx, runID, evtType, limit)
}

// CreateAPIKey mints a new key and stores only its hash. The raw key is
// returned once and never persisted.
func (e Engine) CreateAPIKey(ctx context.Context, name string) (domain.APIKey, string, error) {
	raw := "slk_" + uuid.NewString()
	key := domain.APIKey{
		ID:        uuid.NewString(),
		Name:      name,
		KeyHash:   repo.HashAPIKey(raw),
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.InsertAPIKey(ctx, nil, key); err != nil {
		return domain.APIKey{}, "", err
	}
	return key, raw, nil
}
