package sched_test

import (
	"testing"

	"shelfline/internal/domain"
	"shelfline/internal/fleet"
	"shelfline/internal/grid"
	"shelfline/internal/path"
	"shelfline/internal/picker"
	"shelfline/internal/sched"
	"shelfline/internal/sim"
)

type recordedEvent struct {
	tick    int
	evtType string
	kind    string
	id      string
	payload map[string]any
}

type memRecorder struct {
	rows []recordedEvent
}

func (r *memRecorder) Record(tick int, evtType, entityKind, entityID string, payload map[string]any) {
	r.rows = append(r.rows, recordedEvent{tick, evtType, entityKind, entityID, payload})
}

func (r *memRecorder) count(evtType string) int {
	n := 0
	for _, row := range r.rows {
		if row.evtType == evtType {
			n++
		}
	}
	return n
}

type testEnv struct {
	driver    *sim.Driver
	pool      *fleet.Pool
	station   *picker.Station
	scheduler *sched.Scheduler
	recorder  *memRecorder
	grid      *grid.Grid
}

func newTestEnv(t *testing.T, robots int) *testEnv {
	t.Helper()
	g, err := grid.New(10, 10)
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	driver := sim.NewDriver(nil)
	rec := &memRecorder{}
	pool := fleet.NewPool(robots, domain.Point{X: 0, Y: 0}, fleet.DefaultChargeThreshold)
	station := picker.NewStation(domain.Point{X: 0, Y: 3}, driver, rec, nil)
	scheduler := sched.New(driver, path.NewFinder(g), pool, station, rec, nil)
	return &testEnv{
		driver:    driver,
		pool:      pool,
		station:   station,
		scheduler: scheduler,
		recorder:  rec,
		grid:      g,
	}
}

func (env *testEnv) submitOrder(id string, shelf domain.Point) {
	env.driver.Schedule(sim.NewEvent(id, &sim.Task{
		Type:     sim.AvailableRobotRetrieveFromLocation,
		Location: shelf,
		SKU:      "sku-" + id,
		OrderID:  id,
	}, env.scheduler))
}

func TestRetrievalRoundTrip(t *testing.T) {
	env := newTestEnv(t, 1)
	shelf := domain.Point{X: 3, Y: 0}
	env.submitOrder("order-1", shelf)

	if !env.driver.Run(0) {
		t.Fatal("simulation should drain")
	}
	if env.station.Picked() != 1 {
		t.Fatalf("picked = %d, want 1", env.station.Picked())
	}
	counts := env.pool.Counts()
	if counts[domain.RobotAvailable] != 1 {
		t.Fatalf("counts = %v, robot should be available again", counts)
	}
	sums := env.pool.Summaries()
	if sums[0].Location != (domain.Point{X: 0, Y: 0}) {
		t.Fatalf("robot ended at %s, want its home", sums[0].Location)
	}
	if sums[0].Trips != 1 {
		t.Fatalf("trips = %d, want 1", sums[0].Trips)
	}
	if sums[0].Carrying {
		t.Fatal("robot should have lowered the shelf")
	}
	if env.recorder.count("order.completed") != 1 {
		t.Fatal("order.completed not recorded")
	}
}

// The retrieval chain must run strictly front to back: route to the shelf,
// raise it, route to the picker, pick, route the shelf home, lower it,
// route the robot home, finish.
func TestRetrievalChainOrdering(t *testing.T) {
	env := newTestEnv(t, 1)
	env.submitOrder("order-1", domain.Point{X: 3, Y: 0})

	if !env.driver.Run(0) {
		t.Fatal("simulation should drain")
	}
	want := []string{
		"robot.dispatched",
		"route.planned",
		"shelf.raised",
		"route.planned",
		"order.picked",
		"route.planned",
		"shelf.lowered",
		"route.planned",
		"order.completed",
		"robot.charged",
	}
	var got []string
	for _, row := range env.recorder.rows {
		switch row.evtType {
		case "robot.moved":
			continue
		default:
			got = append(got, row.evtType)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("event sequence = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event sequence = %v, want %v", got, want)
		}
	}
}

// With a single robot and two simultaneous orders, the second order waits
// and re-polls every tick until the robot finishes and recharges.
func TestRobotScarcityDefersSecondOrder(t *testing.T) {
	env := newTestEnv(t, 1)
	env.submitOrder("order-1", domain.Point{X: 3, Y: 0})
	env.submitOrder("order-2", domain.Point{X: 0, Y: 4})

	if !env.driver.Run(0) {
		t.Fatal("simulation should drain")
	}
	if env.station.Picked() != 2 {
		t.Fatalf("picked = %d, want 2", env.station.Picked())
	}
	if env.recorder.count("robot.deferred") == 0 {
		t.Fatal("second order should have been deferred at least once")
	}
	if env.recorder.count("order.completed") != 2 {
		t.Fatalf("completed = %d, want 2", env.recorder.count("order.completed"))
	}
	sums := env.pool.Summaries()
	if sums[0].Trips != 2 {
		t.Fatalf("trips = %d, want 2", sums[0].Trips)
	}
}

func TestTwoRobotsWorkInParallel(t *testing.T) {
	env := newTestEnv(t, 2)
	env.submitOrder("order-1", domain.Point{X: 3, Y: 0})
	env.submitOrder("order-2", domain.Point{X: 4, Y: 0})

	if !env.driver.Run(0) {
		t.Fatal("simulation should drain")
	}
	if env.recorder.count("robot.deferred") != 0 {
		t.Fatal("no deferral expected with a robot per order")
	}
	sums := env.pool.Summaries()
	if sums[0].Trips != 1 || sums[1].Trips != 1 {
		t.Fatalf("trips = %d,%d, want one each", sums[0].Trips, sums[1].Trips)
	}
}

// A leg with no viable route records the failure and the chain resumes on
// the next tick rather than blocking the schedule.
func TestUnreachableShelfIsSoftFailure(t *testing.T) {
	env := newTestEnv(t, 1)
	shelf := domain.Point{X: 8, Y: 8}
	// Wall off the shelf completely.
	for _, p := range []domain.Point{{X: 7, Y: 8}, {X: 9, Y: 8}, {X: 8, Y: 7}, {X: 8, Y: 9}} {
		if err := env.grid.SetKind(p, grid.Blocked); err != nil {
			t.Fatal(err)
		}
	}
	env.submitOrder("order-1", shelf)

	if !env.driver.Run(500) {
		t.Fatal("chain should still run to completion")
	}
	if env.recorder.count("route.unavailable") == 0 {
		t.Fatal("expected route.unavailable telemetry")
	}
	if env.recorder.count("order.completed") != 1 {
		t.Fatal("order should still complete")
	}
}

// After a retrieval the robot charges tick by tick and only rejoins the
// available list once it clears its threshold.
func TestChargeCycleAfterRelease(t *testing.T) {
	env := newTestEnv(t, 1)
	// A long round trip drains the robot well below its threshold.
	env.submitOrder("order-1", domain.Point{X: 9, Y: 9})

	if !env.driver.Run(0) {
		t.Fatal("simulation should drain")
	}
	if env.recorder.count("robot.charged") != 1 {
		t.Fatalf("robot.charged recorded %d times, want 1", env.recorder.count("robot.charged"))
	}
	sums := env.pool.Summaries()
	if sums[0].State != domain.RobotAvailable {
		t.Fatalf("state = %s, want available", sums[0].State)
	}
	if sums[0].Charge < fleet.DefaultChargeThreshold {
		t.Fatalf("charge = %d, want at least threshold %d", sums[0].Charge, fleet.DefaultChargeThreshold)
	}
}
