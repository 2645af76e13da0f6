// Package comics reads the monthly comics release list and imports it as
// books and authors.
//
// The list is a tab-separated file per month with the columns title,
// authors (slash-separated), release date, publisher, series, price and id.
// Release dates are loose: "上", "中" and "下" stand for the start, middle
// and end of a month and "?" marks an unknown day.
package comics

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Oldest is the first month the list covers.
var Oldest = time.Date(1987, time.September, 1, 0, 0, 0, 0, time.UTC)

// Comic is one row of a monthly list.
type Comic struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Authors     []string  `json:"authors"`
	PublishDate time.Time `json:"publish_date"`
	Publisher   string    `json:"publisher"`
	Series      string    `json:"series"`
	Price       int       `json:"price"`
}

func (c Comic) String() string {
	return fmt.Sprintf("%s '%s' by %s // %s (%s) ¥%d :%d",
		c.PublishDate.Format(time.DateOnly), c.Title, strings.Join(c.Authors, "/"), c.Publisher, c.Series, c.Price, c.ID)
}

// Month truncates t to the first day of its month in UTC.
func Month(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Parse reads the list for month. Rows without a positive id are dropped;
// rows whose date cannot be read are dated the last day of month.
func Parse(month time.Time, data string) []Comic {
	month = Month(month)
	lastDay := month.AddDate(0, 1, -1)

	var out []Comic
	data = strings.ReplaceAll(data, "\r\n", "\n")
	for _, row := range strings.FieldsFunc(data, func(r rune) bool { return r == '\n' || r == '\r' }) {
		c, ok := parseRow(row)
		if c.ID <= 0 {
			continue
		}
		if !ok {
			c.PublishDate = lastDay
		}
		out = append(out, c)
	}
	return out
}

// parseRow reads one row. ok is false when the date could not be read.
func parseRow(row string) (Comic, bool) {
	cols := strings.Split(row, "\t")
	col := func(i int) string {
		if i < len(cols) {
			return norm.NFC.String(strings.TrimSpace(cols[i]))
		}
		return ""
	}

	c := Comic{
		Title:     col(0),
		Authors:   splitAuthors(col(1)),
		Publisher: col(3),
		Series:    col(4),
	}
	c.Price, _ = strconv.Atoi(col(5))
	c.ID, _ = strconv.Atoi(col(6))

	date, ok := parseDate(col(2))
	c.PublishDate = date
	return c, ok
}

func splitAuthors(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, a := range strings.Split(s, "/") {
		a = strings.TrimSpace(a)
		if a != "" && !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}

var dateFixups = strings.NewReplacer("上", "01", "中", "14", "下", "28", "??", "01", "?", "01")

var dateLayouts = []string{"2006/1/2", "2006/1"}

// parseDate reads "2024/05/上", "2024.5.?", "2024-05-" and similar forms.
func parseDate(s string) (time.Time, bool) {
	s = dateFixups.Replace(s)
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, "/") || strings.HasSuffix(s, "-") {
		s += "1"
	}
	s = strings.NewReplacer(".", "/", "-", "/").Replace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
