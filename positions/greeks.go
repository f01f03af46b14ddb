package positions

import "github.com/bcdannyboy/optionlab/pricing"

// Greeks are the position Greeks, already scaled by quantity and side.
func (p *Position) Greeks() (pricing.Greeks, error) {
	return pricing.CalculateGreeks(p.Option)
}

// Greeks sums both legs.
func (s *VerticalSpread) Greeks() (pricing.Greeks, error) {
	short, err := s.Short.Greeks()
	if err != nil {
		return pricing.Greeks{}, err
	}
	long, err := s.Long.Greeks()
	if err != nil {
		return pricing.Greeks{}, err
	}
	return short.Add(long), nil
}
