package http

import (
	"net/http"
	"strconv"

	"agendabot/pkg/config"
	apperrors "agendabot/pkg/errors"
)

// ExtractLimitOffset reads ?limit= and ?offset=, clamped to the configured
// page bounds. Absent values take the defaults; malformed ones are rejected.
func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit, err := queryInt(query.Get("limit"), "limit")
	if err != nil {
		return 0, 0, err
	}
	offset, err := queryInt(query.Get("offset"), "offset")
	if err != nil {
		return 0, 0, err
	}

	return config.NormalizePaginationLimit(int(limit)), config.NormalizeOffset(offset), nil
}

func queryInt(raw, name string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter: " + raw)
	}
	return v, nil
}
