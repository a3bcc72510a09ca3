package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Limit int
	Skip  int
}

// Page wraps one page of results together with the unpaged total.
type Page[T any] struct {
	Total int64 `json:"total"`
	Items []T   `json:"items"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizeSkip clamps negative offsets to zero.
func NormalizeSkip(skip int) int {
	if skip < 0 {
		return 0
	}
	return skip
}

// Normalize returns a copy of the params with both knobs clamped.
func (p Params) Normalize() Params {
	return Params{
		Limit: NormalizeLimit(p.Limit),
		Skip:  NormalizeSkip(p.Skip),
	}
}
