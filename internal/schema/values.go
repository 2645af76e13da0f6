package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// valueOf dereferences a field pointer into a bindable value.
// Nil pointers bind as NULL.
func valueOf(p any) any {
	switch v := p.(type) {
	case *string:
		return *v
	case **string:
		if *v == nil {
			return nil
		}
		return **v
	case *int64:
		return *v
	case *int32:
		return int64(*v)
	case **int32:
		if *v == nil {
			return nil
		}
		return int64(**v)
	case *float64:
		return *v
	case **float64:
		if *v == nil {
			return nil
		}
		return **v
	case *bool:
		return *v
	case *time.Time:
		return bindTime(*v)
	case **time.Time:
		if *v == nil {
			return nil
		}
		return bindTime(**v)
	default:
		panic(fmt.Sprintf("schema: unsupported field type %T", p))
	}
}

// isEmpty reports whether a field holds its default value: an empty string,
// a nil pointer, a non-positive id or a zero time. Booleans and numbers are
// never empty.
func isEmpty(p any) bool {
	switch v := p.(type) {
	case *string:
		return *v == ""
	case **string:
		return *v == nil || **v == ""
	case **int32:
		return *v == nil
	case **float64:
		return *v == nil
	case **time.Time:
		return *v == nil
	case *int64:
		return *v <= 0
	case *time.Time:
		return v.IsZero()
	default:
		return false
	}
}

func scanTarget(p any) any {
	switch v := p.(type) {
	case *time.Time:
		return &timeScanner{dst: v}
	case **time.Time:
		return &nullTimeScanner{dst: v}
	default:
		return p
	}
}

// bindTime drops the monotonic reading and location so every driver stores
// the same text.
func bindTime(t time.Time) time.Time {
	return t.Round(0).UTC()
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTime(src any) (time.Time, bool, error) {
	var s string
	switch v := src.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return v, true, nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case int64:
		return time.Unix(v, 0).UTC(), true, nil
	default:
		return time.Time{}, false, fmt.Errorf("schema: cannot scan %T into time", src)
	}

	if i := strings.Index(s, " m="); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("schema: cannot parse time %q", s)
}

type timeScanner struct{ dst *time.Time }

func (s *timeScanner) Scan(src any) error {
	t, ok, err := parseTime(src)
	if err != nil {
		return err
	}
	if ok {
		*s.dst = t
	} else {
		*s.dst = time.Time{}
	}
	return nil
}

type nullTimeScanner struct{ dst **time.Time }

func (s *nullTimeScanner) Scan(src any) error {
	t, ok, err := parseTime(src)
	if err != nil {
		return err
	}
	if !ok {
		*s.dst = nil
		return nil
	}
	*s.dst = &t
	return nil
}

// idListScanner reads a comma-joined id list produced by Dialect.ListAgg.
type idListScanner struct{ dst *[]int64 }

func (s *idListScanner) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case nil:
		*s.dst = nil
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	case int64:
		*s.dst = []int64{v}
		return nil
	default:
		return fmt.Errorf("schema: cannot scan %T into id list", src)
	}

	ids, err := ParseIDList(text)
	if err != nil {
		return err
	}
	*s.dst = ids
	return nil
}

// ParseIDList parses "1,2,3" into ids. Blank input yields nil.
func ParseIDList(text string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("schema: bad id %q in list: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatIDList joins ids with commas.
func FormatIDList(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
