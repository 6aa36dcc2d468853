// Package inventory tracks shelves, the items stocked on them, and the
// orders raised against that stock.
package inventory

import (
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"shelfline/internal/config"
	"shelfline/internal/domain"
	"shelfline/internal/sim"
)

// Submitter accepts a new event for scheduling. Satisfied by sim.Driver.
type Submitter interface {
	Clock() int
	Schedule(e *sim.Event)
}

// Inventory holds the warehouse catalog: every shelf, its location, and
// the SKUs it stocks. Orders are generated here because only the
// inventory knows which shelf an SKU lives on.
type Inventory struct {
	shelves   []*domain.Shelf
	items     []domain.Item
	bySKU     map[string]*domain.Shelf
	orders    []*domain.Order
	driver    Submitter
	scheduler sim.Consumer
	logger    *log.Logger
}

// New builds the inventory from the layout's shelf definitions. Duplicate
// SKUs across shelves resolve to the first shelf declared.
func New(cfg *config.Config, driver Submitter, scheduler sim.Consumer, logger *log.Logger) *Inventory {
	inv := &Inventory{
		bySKU:     make(map[string]*domain.Shelf),
		driver:    driver,
		scheduler: scheduler,
		logger:    logger,
	}
	for _, sc := range cfg.Shelves {
		shelf := &domain.Shelf{
			ID:       uuid.NewString(),
			Location: sc.Location,
		}
		for _, it := range sc.Items {
			inv.items = append(inv.items, domain.Item{SKU: it.SKU, Name: it.Name, Shelf: shelf.ID})
			if _, ok := inv.bySKU[it.SKU]; !ok {
				inv.bySKU[it.SKU] = shelf
			}
		}
		inv.shelves = append(inv.shelves, shelf)
	}
	return inv
}

// Shelves returns every shelf, in declaration order.
func (inv *Inventory) Shelves() []*domain.Shelf { return inv.shelves }

// Items returns every stocked item, in declaration order.
func (inv *Inventory) Items() []domain.Item { return inv.items }

// ShelfFor returns the shelf stocking the given SKU.
func (inv *Inventory) ShelfFor(sku string) (*domain.Shelf, error) {
	shelf, ok := inv.bySKU[sku]
	if !ok {
		return nil, fmt.Errorf("no shelf stocks sku %q", sku)
	}
	return shelf, nil
}

// SKUs returns every known SKU, sorted.
func (inv *Inventory) SKUs() []string {
	out := make([]string, 0, len(inv.bySKU))
	for sku := range inv.bySKU {
		out = append(out, sku)
	}
	sort.Strings(out)
	return out
}

// Orders returns every order generated so far, in creation order.
func (inv *Inventory) Orders() []*domain.Order { return inv.orders }

// GenerateOrder raises an order for one unit of the given SKU and submits
// the retrieval event that will fulfil it. The returned order transitions
// through picked and completed as the event's chain runs.
func (inv *Inventory) GenerateOrder(sku string) (*domain.Order, error) {
	shelf, err := inv.ShelfFor(sku)
	if err != nil {
		return nil, err
	}
	order := &domain.Order{
		ID:          uuid.NewString(),
		SKU:         sku,
		ShelfID:     shelf.ID,
		Status:      domain.OrderPending,
		SubmittedAt: inv.driver.Clock(),
	}
	inv.orders = append(inv.orders, order)
	if inv.logger != nil {
		inv.logger.Printf("tick=%d order %s for %s from shelf at %s", inv.driver.Clock(), order.ID, sku, shelf.Location)
	}
	inv.driver.Schedule(sim.NewEvent(order.ID, &sim.Task{
		Type:     sim.AvailableRobotRetrieveFromLocation,
		Location: shelf.Location,
		SKU:      sku,
		OrderID:  order.ID,
	}, inv.scheduler))
	return order, nil
}

// OrderByID returns the order with the given id.
func (inv *Inventory) OrderByID(id string) (*domain.Order, error) {
	for _, o := range inv.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, fmt.Errorf("unknown order %q", id)
}

// MarkPicked records that the picker pulled the order's item.
func (inv *Inventory) MarkPicked(id string, tick int) {
	if o, err := inv.OrderByID(id); err == nil {
		t := tick
		o.Status = domain.OrderPicked
		o.PickedAt = &t
	}
}

// MarkCompleted records that the order's retrieval chain finished.
func (inv *Inventory) MarkCompleted(id string, tick int) {
	if o, err := inv.OrderByID(id); err == nil {
		t := tick
		o.Status = domain.OrderCompleted
		o.CompletedAt = &t
	}
}
