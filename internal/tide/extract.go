package tide

// ExtractLowTides returns the low tide observations of obs in their original order
func ExtractLowTides(obs []Observation) []Observation {
	lows := make([]Observation, 0, len(obs)/2)
	for _, o := range obs {
		if o.Type == TideTypeLow {
			lows = append(lows, o)
		}
	}
	return lows
}
