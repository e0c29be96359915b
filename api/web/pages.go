package web

import (
	"net/http"
	"strconv"
)

// Pagination is the envelope every listing endpoint returns next to its
// items. Total holds the number of pages, not records.
type Pagination struct {
	Current int  `json:"current"`
	Total   int  `json:"total"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

func Paginate(page, limit, records int) Pagination {
	pages := records / limit
	if records%limit != 0 {
		pages++
	}

	return Pagination{
		Current: page,
		Total:   pages,
		HasNext: page*limit < records,
		HasPrev: page > 1,
	}
}

// PageParams reads page and limit from the query string, falling back to
// page 1 and defLimit on missing or junk values.
func PageParams(r *http.Request, defLimit int) (page int, limit int) {
	page = QueryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}

	limit = QueryInt(r, "limit", defLimit)
	if limit < 1 {
		limit = defLimit
	}

	return page, limit
}

func QueryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
