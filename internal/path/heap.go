package path

// openHeap is an indexed binary min-heap over cell indices, ordered by the
// f-cost recorded in the search scratch state. slot maps a cell index to its
// heap position (or -1), which makes membership checks and decrease-key
// O(1) lookup + O(log n) sift instead of the linear scan a plain list needs.
type openHeap struct {
	cells []int // heap of cell indices
	cost  []int // f-cost per cell index, shared with the search
	slot  []int // cell index -> position in cells, -1 when absent
	seq   []int // insertion sequence per cell index, stable tie-break
	next  int
}

func newOpenHeap(size int) *openHeap {
	h := &openHeap{
		cost: make([]int, size),
		slot: make([]int, size),
		seq:  make([]int, size),
	}
	for i := range h.slot {
		h.slot[i] = -1
	}
	return h
}

func (h *openHeap) Len() int { return len(h.cells) }

// Contains reports whether the cell is currently in the open set.
func (h *openHeap) Contains(cell int) bool { return h.slot[cell] >= 0 }

// Push admits a cell with the given cost, or lowers its cost if already
// admitted (decrease-key).
func (h *openHeap) Push(cell, cost int) {
	if pos := h.slot[cell]; pos >= 0 {
		if cost >= h.cost[cell] {
			return
		}
		h.cost[cell] = cost
		h.up(pos)
		return
	}
	h.cost[cell] = cost
	h.seq[cell] = h.next
	h.next++
	h.cells = append(h.cells, cell)
	h.slot[cell] = len(h.cells) - 1
	h.up(len(h.cells) - 1)
}

// Pop removes and returns the lowest-cost cell.
func (h *openHeap) Pop() int {
	top := h.cells[0]
	last := len(h.cells) - 1
	h.swap(0, last)
	h.cells = h.cells[:last]
	h.slot[top] = -1
	if last > 0 {
		h.down(0)
	}
	return top
}

func (h *openHeap) less(i, j int) bool {
	a, b := h.cells[i], h.cells[j]
	if h.cost[a] != h.cost[b] {
		return h.cost[a] < h.cost[b]
	}
	return h.seq[a] < h.seq[b]
}

func (h *openHeap) swap(i, j int) {
	h.cells[i], h.cells[j] = h.cells[j], h.cells[i]
	h.slot[h.cells[i]] = i
	h.slot[h.cells[j]] = j
}

func (h *openHeap) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(i, parent) {
			break
		}
		h.swap(i, parent)
		i = parent
	}
}

func (h *openHeap) down(i int) {
	n := len(h.cells)
	for {
		left := 2*i + 1
		if left >= n {
			return
		}
		smallest := left
		if right := left + 1; right < n && h.less(right, left) {
			smallest = right
		}
		if !h.less(smallest, i) {
			return
		}
		h.swap(i, smallest)
		i = smallest
	}
}
