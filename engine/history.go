package engine

// History holds the undo and redo stacks for one game. Past is the undo
// stack; its bottom is the baseline state the game started from (or was
// recovered at) and is never popped, so Past is never empty once the
// history exists. Future is the redo stack.
//
// History is a plain value owned by the caller alongside the game; it is
// not safe for concurrent use.
type History struct {
	Past   []GameState `json:"undo"`
	Future []GameState `json:"redo"`
}

// NewHistory starts a history whose baseline is initial.
func NewHistory(initial GameState) *History {
	return &History{Past: []GameState{initial.Clone()}}
}

// Record pushes the pre-operation state and clears the redo stack. Call it
// before applying a move, draw or autocomplete, never for undo or redo.
func (h *History) Record(pre GameState) {
	h.Past = append(h.Past, pre.Clone())
	h.Future = nil
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool { return len(h.Past) > 1 }

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool { return len(h.Future) > 0 }

// Undo steps back from current: current is pushed onto the redo stack and
// the most recently recorded state is popped and returned.
func (h *History) Undo(current GameState) (GameState, error) {
	if !h.CanUndo() {
		return GameState{}, ErrNothingToUndo
	}
	last := len(h.Past) - 1
	prev := h.Past[last]
	h.Past = h.Past[:last]
	h.Future = append(h.Future, current.Clone())
	return prev.Clone(), nil
}

// Redo reverses the latest Undo: current is pushed onto the undo stack and
// the top of the redo stack is popped and returned.
func (h *History) Redo(current GameState) (GameState, error) {
	if !h.CanRedo() {
		return GameState{}, ErrNothingToRedo
	}
	last := len(h.Future) - 1
	next := h.Future[last]
	h.Future = h.Future[:last]
	h.Past = append(h.Past, current.Clone())
	return next.Clone(), nil
}
