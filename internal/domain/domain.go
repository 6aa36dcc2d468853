package domain

import "fmt"

// Point is a cell coordinate on the warehouse floor.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("[%d,%d]", p.X, p.Y)
}

// ManhattanDistance returns the axis-aligned step distance between two cells.
func ManhattanDistance(a, b Point) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// RobotState is the lifecycle state of a robot in the pool.
type RobotState string

const (
	RobotAvailable RobotState = "available"
	RobotWorking   RobotState = "working"
	RobotCharging  RobotState = "charging"
)

// Shelf is a movable storage unit with a home slot on the floor.
type Shelf struct {
	ID       string `json:"id"`
	Location Point  `json:"location"`
}

// Item is a stocked SKU assigned to a shelf.
type Item struct {
	SKU   string `json:"sku"`
	Name  string `json:"name,omitempty"`
	Shelf string `json:"shelf_id,omitempty"`
}

// Order is one retrieval request tracked across a simulation run.
type Order struct {
	ID          string `json:"id"`
	RunID       string `json:"run_id"`
	SKU         string `json:"sku"`
	ShelfID     string `json:"shelf_id"`
	Status      string `json:"status" enum:"pending,picked,completed"`
	SubmittedAt int    `json:"submitted_tick"`
	PickedAt    *int   `json:"picked_tick,omitempty"`
	CompletedAt *int   `json:"completed_tick,omitempty"`
}

const (
	OrderPending   = "pending"
	OrderPicked    = "picked"
	OrderCompleted = "completed"
)

// Run is one persisted simulation execution.
type Run struct {
	ID              string `json:"id"`
	Status          string `json:"status" enum:"completed,exhausted"`
	FleetSize       int    `json:"fleet_size"`
	OrderCount      int    `json:"order_count"`
	CompletedOrders int    `json:"completed_orders"`
	Ticks           int    `json:"ticks"`
	CreatedAt       string `json:"created_at" format:"date-time"`
}

const (
	// RunCompleted means every order finished before the tick budget ran out.
	RunCompleted = "completed"
	// RunExhausted means the tick budget expired with work still pending.
	RunExhausted = "exhausted"
)

// RobotSummary is the final state of one robot, persisted with its run.
type RobotSummary struct {
	RunID    string     `json:"run_id"`
	RobotID  int        `json:"robot_id"`
	State    RobotState `json:"state"`
	Location Point      `json:"location"`
	Charge   int        `json:"charge"`
	Carrying bool       `json:"carrying"`
	Trips    int        `json:"trips"`
}

// Event is one telemetry record appended during a run.
type Event struct {
	ID         int64  `json:"id"`
	RunID      string `json:"run_id"`
	Tick       int    `json:"tick"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Payload    string `json:"payload_json"`
}

// APIKey authenticates a caller of the HTTP API.
type APIKey struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
