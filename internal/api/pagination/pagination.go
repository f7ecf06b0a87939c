package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// ParamError reports an invalid pagination query parameter.
type ParamError struct {
	Param   string
	Message string
}

func (e ParamError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Message)
}

// Page is a validated page/per_page pair.
type Page struct {
	Number  int
	PerPage int
}

// ParsePage reads page and per_page from query values, applying defaults
// (1 and 10) and bounds (page >= 1, per_page in [1,100]).
func ParsePage(values url.Values) (Page, error) {
	page := Page{Number: 1, PerPage: DefaultPerPage}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return Page{}, ParamError{Param: "page", Message: "must be a number"}
		}
		if parsed < 1 {
			return Page{}, ParamError{Param: "page", Message: "must be at least 1"}
		}
		page.Number = parsed
	}

	if raw := strings.TrimSpace(values.Get("per_page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return Page{}, ParamError{Param: "per_page", Message: "must be a number"}
		}
		if parsed < 1 || parsed > MaxPerPage {
			return Page{}, ParamError{Param: "per_page", Message: fmt.Sprintf("must be between 1 and %d", MaxPerPage)}
		}
		page.PerPage = parsed
	}

	return page, nil
}

// Offset is the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Pages is the total page count for the given total, by ceiling division.
// A total of zero yields zero pages.
func (p Page) Pages(total int) int {
	if p.PerPage <= 0 {
		return 0
	}
	return (total + p.PerPage - 1) / p.PerPage
}
