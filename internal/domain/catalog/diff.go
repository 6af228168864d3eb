package catalog

// Diff returns the changed fields between two product states as
// {"field": {"old": ..., "new": ...}}. A nil side means the product did not
// exist on that side.
func Diff(before, after *Product) map[string]any {
	oldState, newState := fields(before), fields(after)
	changes := make(map[string]any)

	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists || oldVal != newVal {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}
	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}
	return changes
}

// fields flattens the audited columns into comparable values.
func fields(p *Product) map[string]any {
	if p == nil {
		return nil
	}
	str := func(s *string) any {
		if s == nil {
			return nil
		}
		return *s
	}
	return map[string]any{
		"name":         p.Name,
		"cost_price":   p.CostPrice.String(),
		"sell_price":   p.SellPrice.String(),
		"stock":        p.Stock,
		"category":     str(p.Category),
		"barcode":      str(p.Barcode),
		"code":         str(p.Code),
		"is_photocopy": p.IsPhotocopy,
	}
}
