package repo

import (
	"context"
	"database/sql"
	"errors"

	"shelfline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func scanRun(row *sql.Row) (domain.Run, error) {
	var run domain.Run
	err := row.Scan(&run.ID, &run.Status, &run.FleetSize, &run.OrderCount, &run.CompletedOrders, &run.Ticks, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return run, ErrNotFound
	}
	return run, err
}

func (r Repo) InsertRun(ctx context.Context, tx *sql.Tx, run domain.Run) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO runs(id,status,fleet_size,order_count,completed_orders,ticks,created_at) VALUES (?,?,?,?,?,?,?)`,
		run.ID, run.Status, run.FleetSize, run.OrderCount, run.CompletedOrders, run.Ticks, run.CreatedAt)
	return err
}

func (r Repo) GetRun(ctx context.Context, id string) (domain.Run, error) {
	return scanRun(r.DB.QueryRowContext(ctx, `SELECT id,status,fleet_size,order_count,completed_orders,ticks,created_at FROM runs WHERE id=?`, id))
}

func (r Repo) ListRuns(ctx context.Context) ([]domain.Run, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,status,fleet_size,order_count,completed_orders,ticks,created_at FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []domain.Run
	for rows.Next() {
		var run domain.Run
		if err := rows.Scan(&run.ID, &run.Status, &run.FleetSize, &run.OrderCount, &run.CompletedOrders, &run.Ticks, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r Repo) LatestRun(ctx context.Context) (domain.Run, error) {
	return scanRun(r.DB.QueryRowContext(ctx, `SELECT id,status,fleet_size,order_count,completed_orders,ticks,created_at FROM runs ORDER BY created_at DESC, id LIMIT 1`))
}

func (r Repo) InsertOrder(ctx context.Context, tx *sql.Tx, o domain.Order) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO orders(id,run_id,sku,shelf_id,status,submitted_tick,picked_tick,completed_tick) VALUES (?,?,?,?,?,?,?,?)`,
		o.ID, o.RunID, o.SKU, nullable(o.ShelfID), o.Status, o.SubmittedAt, o.PickedAt, o.CompletedAt)
	return err
}

func (r Repo) ListOrders(ctx context.Context, runID string) ([]domain.Order, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,run_id,sku,COALESCE(shelf_id,''),status,submitted_tick,picked_tick,completed_tick FROM orders WHERE run_id=? ORDER BY submitted_tick, id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.RunID, &o.SKU, &o.ShelfID, &o.Status, &o.SubmittedAt, &o.PickedAt, &o.CompletedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r Repo) InsertRobot(ctx context.Context, tx *sql.Tx, s domain.RobotSummary) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO robots(run_id,robot_id,state,x,y,charge,carrying,trips) VALUES (?,?,?,?,?,?,?,?)`,
		s.RunID, s.RobotID, s.State, s.Location.X, s.Location.Y, s.Charge, boolInt(s.Carrying), s.Trips)
	return err
}

func (r Repo) ListRobots(ctx context.Context, runID string) ([]domain.RobotSummary, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT run_id,robot_id,state,x,y,charge,carrying,trips FROM robots WHERE run_id=? ORDER BY robot_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.RobotSummary
	for rows.Next() {
		var s domain.RobotSummary
		var carrying int
		if err := rows.Scan(&s.RunID, &s.RobotID, &s.State, &s.Location.X, &s.Location.Y, &s.Charge, &carrying, &s.Trips); err != nil {
			return nil, err
		}
		s.Carrying = carrying != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListEvents returns a run's telemetry, oldest first. limit <= 0 means no
// limit; evtType "" means all types.
func (r Repo) ListEvents(ctx context.Context, runID, evtType string, limit int) ([]domain.Event, error) {
	query := `SELECT id,run_id,tick,type,entity_kind,COALESCE(entity_id,''),payload_json FROM events WHERE run_id=?`
	args := []any{runID}
	if evtType != "" {
		query += ` AND type=?`
		args = append(args, evtType)
	}
	query += ` ORDER BY id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Event
	for rows.Next() {
		var ev domain.Event
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Tick, &ev.Type, &ev.EntityKind, &ev.EntityID, &ev.Payload); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
