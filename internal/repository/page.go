package repository

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based offset pagination request.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps page to >= 1 and size to [1, MaxPageSize], defaulting
// to DefaultPageSize.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages is ceil(total/size), zero when there are no rows.
func (p Page) TotalPages(total int64) int {
	if total <= 0 || p.Size <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}
