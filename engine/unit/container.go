package unit

// AddInContainer puts u inside host. u must not already be contained.
func AddInContainer(u, host *Unit) {
	if u.Container != nil {
		Invariant(u, "unit already in a container")
	}
	if host == u {
		Invariant(u, "unit cannot contain itself")
	}
	u.Container = host
	host.Inside = append(host.Inside, u)
	host.InsideCount++
	if u.Type.BoardSize > 0 {
		host.BoardCount++
	}
	UpdateContainerAttackRange(host)
}

// RemoveFromContainer takes u out of its container
func RemoveFromContainer(u *Unit) {
	host := u.Container
	if host == nil {
		Invariant(u, "unit is not in a container")
	}
	idx := -1
	for i, in := range host.Inside {
		if in == u {
			idx = i
			break
		}
	}
	if idx < 0 {
		Invariant(u, "container does not list its unit")
	}
	host.Inside = append(host.Inside[:idx], host.Inside[idx+1:]...)
	if len(host.Inside) == 0 {
		host.Inside = nil
	}
	host.InsideCount--
	if u.Type.BoardSize > 0 {
		host.BoardCount--
	}
	u.Container = nil
	UpdateContainerAttackRange(host)
}

// FirstContainer returns the outermost unit holding u, u itself if free
func FirstContainer(u *Unit) *Unit {
	for u.Container != nil {
		u = u.Container
	}
	return u
}

// UpdateContainerAttackRange lets a transporter that attacks from within
// use the best range among its passengers.
func UpdateContainerAttackRange(host *Unit) {
	if !host.Type.AttackFromTransporter || host.Type.MaxOnBoard == 0 {
		return
	}
	best := 0
	for _, in := range host.Inside {
		if in.Type.CanAttack && in.Stats.Get(AttackRange) > best {
			best = in.Stats.Get(AttackRange)
		}
	}
	r := max(host.Type.Stats.Get(AttackRange), best)
	host.Stats[AttackRange].Enable = true
	host.Stats[AttackRange].Max = r
	host.Stats[AttackRange].Value = r
}

// CanBoard reports whether host has room for u
func CanBoard(u, host *Unit) bool {
	if host.Type.MaxOnBoard == 0 || u.Type.BoardSize == 0 {
		return false
	}
	used := 0
	for _, in := range host.Inside {
		used += in.Type.BoardSize
	}
	return used+u.Type.BoardSize <= host.Type.MaxOnBoard
}
