package inventory_test

import (
	"testing"

	"shelfline/internal/config"
	"shelfline/internal/domain"
	"shelfline/internal/inventory"
	"shelfline/internal/sim"
)

// sink accepts the retrieval event and records the task it was handed.
type sink struct {
	tasks []*sim.Task
}

func (s *sink) HandleTask(t *sim.Task, e *sim.Event) {
	s.tasks = append(s.tasks, t)
}

func newTestInventory(t *testing.T) (*inventory.Inventory, *sim.Driver, *sink) {
	t.Helper()
	driver := sim.NewDriver(nil)
	consumer := &sink{}
	inv := inventory.New(config.Default(), driver, consumer, nil)
	return inv, driver, consumer
}

func TestShelfForSKU(t *testing.T) {
	inv, _, _ := newTestInventory(t)
	shelf, err := inv.ShelfFor("SKU-2001")
	if err != nil {
		t.Fatalf("shelf for sku: %v", err)
	}
	if shelf.Location != (domain.Point{X: 14, Y: 7}) {
		t.Fatalf("shelf at %s", shelf.Location)
	}
	if _, err := inv.ShelfFor("SKU-NOPE"); err == nil {
		t.Fatal("expected error for unknown sku")
	}
}

func TestGenerateOrderSubmitsRetrievalEvent(t *testing.T) {
	inv, driver, consumer := newTestInventory(t)
	order, err := inv.GenerateOrder("SKU-1001")
	if err != nil {
		t.Fatalf("generate order: %v", err)
	}
	if order.Status != domain.OrderPending {
		t.Fatalf("status = %s, want pending", order.Status)
	}
	if driver.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", driver.Pending())
	}
	driver.Step()
	if len(consumer.tasks) != 1 {
		t.Fatalf("dispatched %d tasks", len(consumer.tasks))
	}
	task := consumer.tasks[0]
	if task.Type != sim.AvailableRobotRetrieveFromLocation {
		t.Fatalf("task type = %s", task.Type)
	}
	if task.OrderID != order.ID || task.SKU != "SKU-1001" {
		t.Fatalf("task = %+v", task)
	}
	shelf, _ := inv.ShelfFor("SKU-1001")
	if task.Location != shelf.Location {
		t.Fatalf("task location = %s, want shelf slot %s", task.Location, shelf.Location)
	}
}

func TestGenerateOrderUnknownSKU(t *testing.T) {
	inv, driver, _ := newTestInventory(t)
	if _, err := inv.GenerateOrder("SKU-NOPE"); err == nil {
		t.Fatal("expected error")
	}
	if driver.Pending() != 0 {
		t.Fatal("no event should be scheduled for a failed order")
	}
	if len(inv.Orders()) != 0 {
		t.Fatal("failed order should not be tracked")
	}
}

func TestOrderLifecycleMarks(t *testing.T) {
	inv, _, _ := newTestInventory(t)
	order, err := inv.GenerateOrder("SKU-3001")
	if err != nil {
		t.Fatal(err)
	}
	inv.MarkPicked(order.ID, 7)
	if order.Status != domain.OrderPicked || order.PickedAt == nil || *order.PickedAt != 7 {
		t.Fatalf("after pick: %+v", order)
	}
	inv.MarkCompleted(order.ID, 12)
	if order.Status != domain.OrderCompleted || order.CompletedAt == nil || *order.CompletedAt != 12 {
		t.Fatalf("after complete: %+v", order)
	}
	// Unknown ids are ignored.
	inv.MarkPicked("nope", 1)
}

func TestSKUsSorted(t *testing.T) {
	inv, _, _ := newTestInventory(t)
	skus := inv.SKUs()
	if len(skus) != 6 {
		t.Fatalf("skus = %v", skus)
	}
	for i := 1; i < len(skus); i++ {
		if skus[i-1] >= skus[i] {
			t.Fatalf("skus not sorted: %v", skus)
		}
	}
}
