// Package request содержит разбор общих параметров запроса.
package request

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Paging читает limit и offset из query-параметров.
// Пустые значения заменяются значениями по умолчанию, limit ограничивается MaxLimit.
func Paging(r *http.Request) (limit, offset int, err error) {
	limit, offset = DefaultLimit, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return 0, 0, fmt.Errorf("invalid limit %q", v)
		}
	}
	if v := q.Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", v)
		}
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit, offset, nil
}
