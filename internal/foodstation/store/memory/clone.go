package memory

import "github.com/BrandonDHaskell/foodstation/internal/foodstation/types"

// Racks hold pointers; every value crossing the store boundary is copied so
// callers cannot mutate stored state.
func cloneRack(r types.Rack) types.Rack {
	out := r
	if r.Food != nil {
		f := *r.Food
		out.Food = &f
	}
	if r.Provenance != nil {
		p := *r.Provenance
		out.Provenance = &p
	}
	if r.Sensor != nil {
		s := *r.Sensor
		out.Sensor = &s
	}
	return out
}

func cloneStation(st types.Station) types.Station {
	out := st
	out.Racks = make([]types.Rack, len(st.Racks))
	for i, r := range st.Racks {
		out.Racks[i] = cloneRack(r)
	}
	return out
}
