package fleet

import (
	"fmt"

	"shelfline/internal/domain"
)

// DefaultSize is the fleet size seeded when none is configured.
const DefaultSize = 10

// Pool arbitrates exclusive allocation of robots. Every robot is a member
// of exactly one of the available, working, or charging collections; all
// transitions go through the Pool so the partition cannot drift.
type Pool struct {
	available []*Robot // FIFO: head is the longest-idle robot
	working   map[int]*Robot
	charging  map[int]*Robot
	size      int
}

// NewPool seeds count robots along a home row: robot i starts at
// (home.x + i, home.y).
func NewPool(count int, home domain.Point, threshold int) *Pool {
	if count < 1 {
		count = DefaultSize
	}
	p := &Pool{
		working:  make(map[int]*Robot),
		charging: make(map[int]*Robot),
		size:     count,
	}
	for i := 0; i < count; i++ {
		p.available = append(p.available, NewRobot(i, domain.Point{X: home.X + i, Y: home.Y}, threshold))
	}
	return p
}

// Size returns the constant fleet size.
func (p *Pool) Size() int { return p.size }

// Acquire pops the longest-idle available robot and moves it to working.
// It returns nil, without side effects, when no robot is idle.
func (p *Pool) Acquire() *Robot {
	if len(p.available) == 0 {
		return nil
	}
	r := p.available[0]
	p.available = p.available[1:]
	p.working[r.ID()] = r
	return r
}

// Release moves a working robot to charging. Called when its retrieval
// chain ends.
func (p *Pool) Release(r *Robot) error {
	if _, ok := p.working[r.ID()]; !ok {
		return fmt.Errorf("%s is not working", r)
	}
	delete(p.working, r.ID())
	p.charging[r.ID()] = r
	return nil
}

// ChargeTick advances a charging robot by one unit. Once the robot no
// longer needs charge it rejoins the available list; the returned flag
// reports whether charging must continue.
func (p *Pool) ChargeTick(r *Robot) (bool, error) {
	if _, ok := p.charging[r.ID()]; !ok {
		return false, fmt.Errorf("%s is not charging", r)
	}
	r.AdvanceCharge()
	if r.NeedsMoreCharge() {
		return true, nil
	}
	delete(p.charging, r.ID())
	p.available = append(p.available, r)
	return false, nil
}

// Counts returns the number of robots in each lifecycle state.
func (p *Pool) Counts() map[domain.RobotState]int {
	return map[domain.RobotState]int{
		domain.RobotAvailable: len(p.available),
		domain.RobotWorking:   len(p.working),
		domain.RobotCharging:  len(p.charging),
	}
}

// StateOf reports which collection currently holds the robot.
func (p *Pool) StateOf(r *Robot) domain.RobotState {
	if _, ok := p.working[r.ID()]; ok {
		return domain.RobotWorking
	}
	if _, ok := p.charging[r.ID()]; ok {
		return domain.RobotCharging
	}
	return domain.RobotAvailable
}

// Summaries snapshots every robot, ordered by id.
func (p *Pool) Summaries() []domain.RobotSummary {
	byID := make(map[int]*Robot, p.size)
	states := make(map[int]domain.RobotState, p.size)
	for _, r := range p.available {
		byID[r.ID()] = r
		states[r.ID()] = domain.RobotAvailable
	}
	for id, r := range p.working {
		byID[id] = r
		states[id] = domain.RobotWorking
	}
	for id, r := range p.charging {
		byID[id] = r
		states[id] = domain.RobotCharging
	}
	out := make([]domain.RobotSummary, 0, p.size)
	for id := 0; id < p.size; id++ {
		if r, ok := byID[id]; ok {
			out = append(out, r.Summary(states[id]))
		}
	}
	return out
}
