package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 100
	// MaxPage bounds the page number so offsets stay far from int overflow.
	MaxPage = 100_000
)

// Params holds page-number pagination inputs. Page is 1-based.
type Params struct {
	Page  int
	Limit int
}

// Meta describes the page that was served.
type Meta struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
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

// Normalize clamps page to [1, MaxPage] and applies NormalizeLimit.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

// Offset is the number of rows skipped before the page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Window returns the [start, end) bounds of the page within total rows.
func (p Params) Window(total int) (int, int) {
	start := p.Offset()
	if start < 0 || start > total {
		start = total
	}
	end := start + p.Normalize().Limit
	if end > total {
		end = total
	}
	return start, end
}

// MetaFor builds the response metadata for total rows.
func (p Params) MetaFor(total int) Meta {
	n := p.Normalize()
	pages := 0
	if total > 0 {
		pages = (total + n.Limit - 1) / n.Limit
	}
	return Meta{Page: n.Page, PageSize: n.Limit, Total: total, TotalPages: pages}
}
