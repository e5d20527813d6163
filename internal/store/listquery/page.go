package listquery

// Page is a 1-based page request. A zero Limit means no limit.
type Page struct {
	Number int
	Limit  int
}

// NewPage normalizes the page number and falls back to defaultLimit when
// limit is not positive.
func NewPage(number, limit, defaultLimit int) Page {
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return Page{Number: number, Limit: limit}
}

// Offset is the row offset of the page.
func (p Page) Offset() int {
	if p.Number < 1 || p.Limit < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}

// TotalPages is ceil(total / limit), and 0 when there are no rows.
func (p Page) TotalPages(total int) int {
	if p.Limit < 1 {
		if total > 0 {
			return 1
		}
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}
