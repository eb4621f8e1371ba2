package unit

import "github.com/1siamBot/rts-simcore/engine/core"

// Action is what an order makes the unit do
type Action uint8

const (
	ActionStill Action = iota
	ActionStandGround
	ActionMove
	ActionAttack
	ActionAttackGround
	ActionDie
	ActionBoard
	ActionUnload
	ActionRepair
	ActionResource
	ActionBuilt
	ActionFollow
	ActionUseItem
)

func (a Action) String() string {
	switch a {
	case ActionStill:
		return "still"
	case ActionStandGround:
		return "stand-ground"
	case ActionMove:
		return "move"
	case ActionAttack:
		return "attack"
	case ActionAttackGround:
		return "attack-ground"
	case ActionDie:
		return "die"
	case ActionBoard:
		return "board"
	case ActionUnload:
		return "unload"
	case ActionRepair:
		return "repair"
	case ActionResource:
		return "resource"
	case ActionBuilt:
		return "built"
	case ActionFollow:
		return "follow"
	case ActionUseItem:
		return "use-item"
	default:
		return "unknown"
	}
}

// Order is one entry of a unit's order stack
type Order struct {
	Action   Action
	Finished bool
	GoalPos  core.TilePos
	Range    int
	Path     []core.TilePos
	Progress int    // pixels walked toward the next path tile
	Item     string // equipment slot for use-item

	goal *Unit
}

func NewOrder(a Action) *Order {
	return &Order{Action: a}
}

// Clone copies o, taking a new reference on its goal
func (o *Order) Clone() *Order {
	c := *o
	c.Path = append([]core.TilePos(nil), o.Path...)
	c.goal = nil
	c.SetGoal(o.goal)
	return &c
}

// Goal returns the goal unit, nil when the order has none
func (o *Order) Goal() *Unit {
	return o.goal
}

// HasGoal reports whether the order targets a unit
func (o *Order) HasGoal() bool {
	return o.goal != nil
}

// SetGoal points the order at g, holding a reference on it
func (o *Order) SetGoal(g *Unit) {
	if g != nil {
		g.RefsIncrease()
	}
	if o.goal != nil {
		o.goal.RefsDecrease()
	}
	o.goal = g
}

// ClearGoal drops the goal and its reference
func (o *Order) ClearGoal() {
	if o.goal != nil {
		g := o.goal
		o.goal = nil
		g.RefsDecrease()
	}
}

// CurrentOrder returns the executing order
func (u *Unit) CurrentOrder() *Order {
	return u.Orders[0]
}

// CurrentAction returns the action of the executing order
func (u *Unit) CurrentAction() Action {
	return u.Orders[0].Action
}

// IsIdle reports a unit with nothing queued
func (u *Unit) IsIdle() bool {
	return len(u.Orders) == 1 && u.CurrentAction() == ActionStill
}

// ReplaceCurrent marks the executing order finished and puts o in its place
func (u *Unit) ReplaceCurrent(o *Order) {
	cur := u.Orders[0]
	cur.Finished = true
	cur.ClearGoal()
	u.Orders[0] = o
}

// Command issues an order. flush drops everything queued first.
func (u *Unit) Command(o *Order, flush bool) {
	if u.CurrentAction() == ActionDie {
		o.ClearGoal()
		return
	}
	if flush {
		u.ClearOrders()
		u.ReplaceCurrent(o)
		return
	}
	if u.IsIdle() {
		u.ReplaceCurrent(o)
		return
	}
	u.Orders = append(u.Orders, o)
}

// ClearOrders drops every order and leaves the unit standing still
func (u *Unit) ClearOrders() {
	for _, o := range u.Orders[1:] {
		o.ClearGoal()
	}
	u.Orders = u.Orders[:1]
	u.ReplaceCurrent(NewOrder(ActionStill))
	u.clearSlot(&u.NewOrder)
	u.clearSlot(&u.SavedOrder)
	u.clearSlot(&u.CriticalOrder)
}

// Advance pops a finished current order, falling back to still
func (u *Unit) Advance() {
	if !u.Orders[0].Finished {
		return
	}
	u.Orders[0].ClearGoal()
	if len(u.Orders) > 1 {
		u.Orders = append(u.Orders[:0], u.Orders[1:]...)
		return
	}
	u.Orders[0] = NewOrder(ActionStill)
	if u.SavedOrder != nil {
		u.Orders[0] = u.SavedOrder
		u.SavedOrder = nil
	}
}

// SaveOrder keeps o to resume once the current work ends
func (u *Unit) SaveOrder(o *Order) {
	u.clearSlot(&u.SavedOrder)
	u.SavedOrder = o
}

// SetCriticalOrder stores an order that preempts the stack on the next step
func (u *Unit) SetCriticalOrder(o *Order) {
	u.clearSlot(&u.CriticalOrder)
	u.CriticalOrder = o
}

// SetNewOrder stores the default order for freshly trained units
func (u *Unit) SetNewOrder(o *Order) {
	u.clearSlot(&u.NewOrder)
	u.NewOrder = o
}

// TakeCriticalOrder moves a pending critical order in front of the stack.
func (u *Unit) TakeCriticalOrder() bool {
	if u.CriticalOrder == nil || u.CurrentAction() == ActionDie {
		return false
	}
	o := u.CriticalOrder
	u.CriticalOrder = nil
	u.Orders = append([]*Order{o}, u.Orders...)
	return true
}

// DropDeadGoals clears goals pointing at destroyed units
func (u *Unit) DropDeadGoals() int {
	n := 0
	for _, o := range u.allOrders() {
		if g := o.goal; g != nil && g.Destroyed {
			o.ClearGoal()
			if o.Action == ActionAttack || o.Action == ActionFollow {
				o.Finished = true
			}
			n++
		}
	}
	return n
}

func (u *Unit) allOrders() []*Order {
	out := append([]*Order(nil), u.Orders...)
	for _, o := range []*Order{u.SavedOrder, u.NewOrder, u.CriticalOrder} {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (u *Unit) clearSlot(slot **Order) {
	if *slot != nil {
		(*slot).ClearGoal()
		*slot = nil
	}
}

func (u *Unit) clearOrderGoals() {
	for _, o := range u.allOrders() {
		o.ClearGoal()
	}
}
