package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cleared-dev/finboard/internal/ledger"
	"github.com/cleared-dev/finboard/internal/store"
)

const genericError = "An error occurred, try again"

// fail maps err onto a status code and JSON body. Only validation and
// drift details reach the client; anything else is logged. Drift is
// checked before not-found because a DriftError wraps its cause.
func (s *Server) fail(c *gin.Context, err error) {
	var verrs ledger.ValidationErrors
	var drift *ledger.DriftError
	switch {
	case errors.As(err, &verrs):
		fields := make(map[string]string, len(verrs))
		for _, v := range verrs {
			fields[v.Field] = v.Description
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
	case errors.As(err, &drift):
		s.logger.Error("balance drift", "path", c.FullPath(), "banks", drift.Banks, "error", drift.Err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": drift.Error(), "recompute": drift.Banks})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericError})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// PaginatedResponse wraps one page of a list.
type PaginatedResponse struct {
	Data        any   `json:"data"`
	TotalRows   int64 `json:"totalRows"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// pageParams reads "page" and "pageSize", clamped to sane values.
func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.Query("page"))
	if page <= 0 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.Query("pageSize"))
	switch {
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	case pageSize <= 0:
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

// pageCount returns how many pages of pageSize hold totalRows.
func pageCount(totalRows int64, pageSize int) int {
	if totalRows <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalRows) / float64(pageSize)))
}

// paginated wraps one page of data. page must already be clamped to the
// page count.
func paginated(data any, totalRows int64, page, pageSize int) PaginatedResponse {
	return PaginatedResponse{
		Data:        data,
		TotalRows:   totalRows,
		TotalPages:  pageCount(totalRows, pageSize),
		CurrentPage: page,
		PageSize:    pageSize,
	}
}

const dayLayout = "2006-01-02"

// parseDay parses an optional YYYY-MM-DD value. Empty input yields the zero
// time.
func parseDay(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, ledger.ValidationErrors{{Field: field, Description: "must be a date in YYYY-MM-DD form"}}
	}
	return d, nil
}
