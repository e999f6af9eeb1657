package content

// Rebind exposes placeholder rewriting to the external tests.
func (r *SQLRepo) Rebind(q string) string { return r.rebind(q) }
