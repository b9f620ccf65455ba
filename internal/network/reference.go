package network

// ReferenceName is the name of the built-in network.
const ReferenceName = "8react"

// Reference returns the built-in eight-reaction network.
//
// Species, in order: R L RL G GA GBG GD. The walk starts from 50 R, 2 L and
// 50 G and stops once GBG reaches 20. R3, R5 and R8 form the dependency set.
func Reference() *Network {
	return &Network{
		Name:    ReferenceName,
		Species: []string{"R", "L", "RL", "G", "GA", "GBG", "GD"},
		Transitions: []*Transition{
			{
				Name:      "R1",
				Increment: []uint64{1, 0, 0, 0, 0, 0, 0},
				Decrement: []uint64{0, 0, 0, 0, 0, 0, 0},
				Rate:      0.0038,
			},
			{
				Name:      "R2",
				Increment: []uint64{0, 0, 0, 0, 0, 0, 0},
				Decrement: []uint64{1, 0, 0, 0, 0, 0, 0},
				Rate:      0.0004,
			},
			{
				Name:       "R3",
				Increment:  []uint64{0, 1, 1, 0, 0, 0, 0},
				Decrement:  []uint64{1, 1, 0, 0, 0, 0, 0},
				Rate:       0.042,
				Dependency: true,
			},
			{
				Name:      "R4",
				Increment: []uint64{1, 0, 0, 0, 0, 0, 0},
				Decrement: []uint64{0, 0, 1, 0, 0, 0, 0},
				Rate:      0.010,
			},
			{
				Name:       "R5",
				Increment:  []uint64{0, 0, 0, 0, 1, 1, 0},
				Decrement:  []uint64{0, 0, 1, 1, 0, 0, 0},
				Rate:       0.011,
				Dependency: true,
			},
			{
				Name:      "R6",
				Increment: []uint64{0, 0, 0, 0, 0, 0, 1},
				Decrement: []uint64{0, 0, 0, 0, 1, 0, 0},
				Rate:      0.100,
			},
			{
				Name:      "R7",
				Increment: []uint64{0, 0, 0, 1, 0, 0, 0},
				Decrement: []uint64{0, 0, 0, 0, 0, 1, 1},
				Rate:      1050.0,
			},
			{
				Name:       "R8",
				Increment:  []uint64{0, 1, 0, 0, 0, 0, 0},
				Decrement:  []uint64{0, 0, 0, 0, 0, 0, 0},
				Rate:       3.210,
				Dependency: true,
			},
		},
		Initial: State{50, 2, 0, 50, 0, 0, 0},
		Target:  State{0, 0, 0, 0, 0, 20, 0},
	}
}
