package dto

import (
	"net/url"
	"strconv"
	"time"

	"companion-backend/internal/common"

	"github.com/google/uuid"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

type Page struct {
	Limit  int
	Offset int
}

// TimeRange bounds a listing by the entity's own timestamp. Either end may
// be open.
type TimeRange struct {
	From *time.Time
	To   *time.Time
}

// ListOwner is the ?user_id= override admins use to list another user's
// records. It is ignored for everyone else.
type ListOwner struct {
	UserID uuid.UUID
}

func parsePage(v *common.ValidationError, values url.Values) Page {
	page := Page{Limit: DefaultPageLimit}
	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxPageLimit {
			v.Add("limit", "must be between 1 and %d", MaxPageLimit)
		} else {
			page.Limit = n
		}
	}
	if raw := values.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			v.Add("offset", "must be a non-negative integer")
		} else {
			page.Offset = n
		}
	}
	return page
}

func parseTimeRange(v *common.ValidationError, values url.Values) TimeRange {
	var tr TimeRange
	tr.From = parseTime(v, values, "from")
	tr.To = parseTime(v, values, "to")
	if tr.From != nil && tr.To != nil && tr.To.Before(*tr.From) {
		v.Add("to", "must not be before from")
	}
	return tr
}

func parseTime(v *common.ValidationError, values url.Values, key string) *time.Time {
	raw := values.Get(key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		v.Add(key, "must be an RFC3339 timestamp")
		return nil
	}
	return &t
}

func parseOwner(v *common.ValidationError, values url.Values) ListOwner {
	raw := values.Get("user_id")
	if raw == "" {
		return ListOwner{}
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		v.Add("user_id", "must be a UUID")
	}
	return ListOwner{UserID: id}
}
