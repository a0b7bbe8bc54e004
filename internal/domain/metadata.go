package domain

// Metadata describes one page of a paginated listing.
type Metadata struct {
	CurrentPage  int
	FirstPage    int
	LastPage     int
	PageSize     int
	TotalRecords int
}

func NewMetadata(totalRecords int, p Pagination) *Metadata {
	lastPage := 0
	if p.PageSize > 0 {
		lastPage = (totalRecords + p.PageSize - 1) / p.PageSize
	}

	return &Metadata{
		CurrentPage:  p.Page,
		FirstPage:    1,
		LastPage:     lastPage,
		PageSize:     p.PageSize,
		TotalRecords: totalRecords,
	}
}
