package server

import (
	"encoding/json"

	"shelfline/internal/config"
	"shelfline/internal/domain"
	"shelfline/internal/engine"
)

type LayoutResponse struct {
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	FleetSize int            `json:"fleet_size"`
	Home      domain.Point   `json:"home"`
	Dropoff   domain.Point   `json:"dropoff"`
	Shelves   []ShelfLayout  `json:"shelves"`
	Blocked   []domain.Point `json:"blocked,omitempty"`
	Narrow    []domain.Point `json:"narrow,omitempty"`
}

type ShelfLayout struct {
	Location domain.Point `json:"location"`
	SKUs     []string     `json:"skus"`
}

// RunRequest optionally overrides the stored layout for one run.
type RunRequest struct {
	FleetSize int            `json:"fleet_size,omitempty" minimum:"1" doc:"Override fleet size for this run"`
	Orders    []OrderRequest `json:"orders,omitempty" doc:"Override the seeded order list for this run"`
}

type OrderRequest struct {
	SKU string `json:"sku"`
	At  int    `json:"at" minimum:"0" doc:"Tick the order is submitted"`
}

func runOptions(req RunRequest) engine.RunOptions {
	opts := engine.RunOptions{FleetSize: req.FleetSize}
	for _, o := range req.Orders {
		opts.Orders = append(opts.Orders, config.OrderConfig{SKU: o.SKU, At: o.At})
	}
	return opts
}

type RunResponse struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	FleetSize       int    `json:"fleet_size"`
	OrderCount      int    `json:"order_count"`
	CompletedOrders int    `json:"completed_orders"`
	Ticks           int    `json:"ticks"`
	CreatedAt       string `json:"created_at"`
}

type RunDetailResponse struct {
	Run    RunResponse     `json:"run"`
	Orders []OrderResponse `json:"orders"`
	Robots []RobotResponse `json:"robots"`
}

type OrderResponse struct {
	ID            string `json:"id"`
	SKU           string `json:"sku"`
	ShelfID       string `json:"shelf_id,omitempty"`
	Status        string `json:"status"`
	SubmittedTick int    `json:"submitted_tick"`
	PickedTick    *int   `json:"picked_tick,omitempty"`
	CompletedTick *int   `json:"completed_tick,omitempty"`
}

type RobotResponse struct {
	RobotID  int          `json:"robot_id"`
	State    string       `json:"state"`
	Location domain.Point `json:"location"`
	Charge   int          `json:"charge"`
	Carrying bool         `json:"carrying"`
	Trips    int          `json:"trips"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	Tick       int            `json:"tick"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

func layoutResponse(cfg *config.Config) LayoutResponse {
	resp := LayoutResponse{
		Width:     cfg.Warehouse.Width,
		Height:    cfg.Warehouse.Height,
		FleetSize: cfg.Fleet.Size,
		Home:      cfg.Fleet.Home,
		Dropoff:   cfg.Picker.Dropoff,
		Blocked:   cfg.Warehouse.Blocked,
		Narrow:    cfg.Warehouse.Narrow,
	}
	for _, s := range cfg.Shelves {
		layout := ShelfLayout{Location: s.Location}
		for _, it := range s.Items {
			layout.SKUs = append(layout.SKUs, it.SKU)
		}
		resp.Shelves = append(resp.Shelves, layout)
	}
	return resp
}

func runResponse(r domain.Run) RunResponse {
	return RunResponse{
		ID:              r.ID,
		Status:          r.Status,
		FleetSize:       r.FleetSize,
		OrderCount:      r.OrderCount,
		CompletedOrders: r.CompletedOrders,
		Ticks:           r.Ticks,
		CreatedAt:       r.CreatedAt,
	}
}

func mapRuns(runs []domain.Run) []RunResponse {
	out := make([]RunResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, runResponse(r))
	}
	return out
}

func runDetailResponse(res engine.RunResult) RunDetailResponse {
	return RunDetailResponse{
		Run:    runResponse(res.Run),
		Orders: mapOrders(res.Orders),
		Robots: mapRobots(res.Robots),
	}
}

func orderResponse(o domain.Order) OrderResponse {
	return OrderResponse{
		ID:            o.ID,
		SKU:           o.SKU,
		ShelfID:       o.ShelfID,
		Status:        o.Status,
		SubmittedTick: o.SubmittedAt,
		PickedTick:    o.PickedAt,
		CompletedTick: o.CompletedAt,
	}
}

func mapOrders(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderResponse(o))
	}
	return out
}

func mapRobots(robots []domain.RobotSummary) []RobotResponse {
	out := make([]RobotResponse, 0, len(robots))
	for _, s := range robots {
		out = append(out, RobotResponse{
			RobotID:  s.RobotID,
			State:    string(s.State),
			Location: s.Location,
			Charge:   s.Charge,
			Carrying: s.Carrying,
			Trips:    s.Trips,
		})
	}
	return out
}

func mapEvents(evs []domain.Event) []EventResponse {
	out := make([]EventResponse, 0, len(evs))
	for _, ev := range evs {
		var payload map[string]any
		if ev.Payload != "" {
			_ = json.Unmarshal([]byte(ev.Payload), &payload)
		}
		out = append(out, EventResponse{
			ID:         ev.ID,
			Tick:       ev.Tick,
			Type:       ev.Type,
			EntityKind: ev.EntityKind,
			EntityID:   ev.EntityID,
			Payload:    payload,
		})
	}
	return out
}
