package pagination

const (
	// DefaultPage is used when the page query parameter is absent.
	DefaultPage = 1
	// DefaultPerPage is the standard page size when perPage is not provided.
	DefaultPerPage = 10
	// MaxPerPage caps how many rows a single page can request.
	MaxPerPage = 100
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page    int
	PerPage int
}

// Normalize applies defaults and caps.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the number of rows to skip for the page.
func (p Params) Offset() int {
	n := Normalize(p)
	return (n.Page - 1) * n.PerPage
}

// Limit returns the normalized page size.
func (p Params) Limit() int {
	return Normalize(p).PerPage
}

// TotalPages rounds up total/perPage.
func TotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// OutOfRange reports whether page lies past the last page of a non-empty set.
func OutOfRange(p Params, total int64) bool {
	n := Normalize(p)
	pages := TotalPages(total, n.PerPage)
	return pages > 0 && n.Page > pages
}
