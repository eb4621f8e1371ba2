package unit

func testType(ident string) *Type {
	t := &Type{
		Ident:      ident,
		Name:       ident,
		TileWidth:  1,
		TileHeight: 1,
		CanMove:    true,
		CanAttack:  true,
		CanTarget:  TargetLand,
	}
	t.Stats[HP] = Variable{Value: 100, Max: 100, Enable: true}
	t.Stats[SightRange] = Variable{Value: 4, Max: 4, Enable: true}
	t.Stats[AttackRange] = Variable{Value: 1, Max: 1, Enable: true}
	return t
}

func transportType() *Type {
	t := testType("transport")
	t.CanAttack = false
	t.MaxOnBoard = 4
	t.AttackFromTransporter = true
	t.Stats[AttackRange] = Variable{}
	return t
}
