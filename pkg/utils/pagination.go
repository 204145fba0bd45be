package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListWindow is the limit/offset slice of a paginated listing, derived from
// the page/limit query params every list endpoint accepts.
type ListWindow struct {
	Page   int
	Limit  int
	Offset int
}

// ListWindowFromQuery reads page/limit from the request, clamping limit to
// [1, MaxPageSize].
func ListWindowFromQuery(c echo.Context) ListWindow {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}

	return ListWindow{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}
