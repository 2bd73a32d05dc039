package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"dompet/internal/auth"
)

func authUserID(r *http.Request) (int64, bool) {
	return auth.UserID(r.Context())
}

// parseYear extracts a year from the query string, defaulting to the
// current year.
func parseYear(r *http.Request) int {
	year := time.Now().Year()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	return year
}
