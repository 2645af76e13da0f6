package entity

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/prices/internal/schema"
)

// ActionOptions and ResultOptions are the flags a book's Action and Result
// comma lists draw from. Each option's value is 1 << index.
var (
	ActionOptions = []string{"research", "search", "check", "buy"}
	ResultOptions = []string{"out-of-print", "checked", "bought"}
)

// Book is one side of the author/book relational pair.
type Book struct {
	Base
	relatedIDs
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	Publisher   string     `json:"publisher"`
	Series      string     `json:"series"`
	Price       float64    `json:"price"`
	Action      *string    `json:"action,omitempty"`
	Result      *string    `json:"result,omitempty"`
}

// BookAuthors is the join table seen from the book side.
var BookAuthors = schema.Relation{JoinTable: "author_books", OwnColumn: "book_id", OtherColumn: "author_id"}

var bookTable = schema.NewTable("books", "publish_date DESC NULLS LAST, title",
	baseColumns(func(b *Book) *Base { return &b.Base },
		schema.Col("Title", "title", func(b *Book) any { return &b.Title }, schema.Required, schema.MaxLength(255)),
		schema.Col("Description", "description", func(b *Book) any { return &b.Description }),
		schema.Col("PublishDate", "publish_date", func(b *Book) any { return &b.PublishDate }),
		schema.Col("Publisher", "publisher", func(b *Book) any { return &b.Publisher }, schema.MaxLength(255)),
		schema.Col("Series", "series", func(b *Book) any { return &b.Series }, schema.MaxLength(255)),
		schema.Col("Price", "price", func(b *Book) any { return &b.Price }),
		schema.Col("Action", "action", func(b *Book) any { return &b.Action }, schema.MaxLength(50)),
		schema.Col("Result", "result", func(b *Book) any { return &b.Result }, schema.MaxLength(50)),
	)...,
).WithRelation(BookAuthors, func(b *Book) *[]int64 { return b.ref() })

func (*Book) Table() *schema.Table[Book] { return bookTable }
func (*Book) Kind() string               { return KindBook }

// UniqueKey joins title, publisher, series and publish date.
func (b *Book) UniqueKey() string {
	return strings.Join([]string{b.Title, b.Publisher, b.Series, b.publishDate()}, "\x1f")
}

func (b *Book) publishDate() string {
	if b.PublishDate == nil {
		return ""
	}
	return b.PublishDate.Format(time.DateOnly)
}

// Actions splits the Action comma list.
func (b *Book) Actions() []string { return splitFlags(b.Action) }

// SetActions stores actions as a comma list; an empty list clears it.
func (b *Book) SetActions(actions []string) { b.Action = joinFlags(actions) }

// ActionValue returns the bitmask of the book's actions.
func (b *Book) ActionValue() int { return flagValue(ActionOptions, b.Actions()) }

// Results splits the Result comma list.
func (b *Book) Results() []string { return splitFlags(b.Result) }

// SetResults stores results as a comma list; an empty list clears it.
func (b *Book) SetResults(results []string) { b.Result = joinFlags(results) }

// ResultValue returns the bitmask of the book's results.
func (b *Book) ResultValue() int { return flagValue(ResultOptions, b.Results()) }

func splitFlags(s *string) []string {
	if s == nil || *s == "" {
		return nil
	}
	return strings.Split(*s, ",")
}

func joinFlags(flags []string) *string {
	if len(flags) == 0 {
		return nil
	}
	return Ptr(strings.Join(flags, ","))
}

// flagValue sums 1 << index over flags; unknown flags count as the first option.
func flagValue(options, flags []string) int {
	v := 0
	for _, f := range flags {
		v += 1 << max(0, slices.Index(options, f))
	}
	return v
}

func (b *Book) SearchTargets() []string {
	return []string{
		strconv.FormatInt(b.ID, 10),
		b.Title,
		deref(b.Description),
		b.publishDate(),
		b.Publisher,
		b.Series,
		fmt.Sprintf("¥%.0f", b.Price),
		deref(b.Action),
		deref(b.Result),
		schema.FormatIDList(b.ids),
	}
}

func (b *Book) Clone() *Book {
	return b.CopyTo(&Book{})
}

func (b *Book) CopyTo(dst *Book) *Book {
	b.Base.copyTo(&dst.Base)
	dst.relatedIDs = b.relatedIDs.clone()
	dst.Title = b.Title
	dst.Description = cloneString(b.Description)
	dst.PublishDate = cloneTime(b.PublishDate)
	dst.Publisher = b.Publisher
	dst.Series = b.Series
	dst.Price = b.Price
	dst.Action = cloneString(b.Action)
	dst.Result = cloneString(b.Result)
	return dst
}

func (b *Book) Equal(o *Book) bool {
	return o != nil &&
		b.Base.equal(&o.Base) &&
		b.Title == o.Title &&
		equalPtr(b.Description, o.Description) &&
		equalTime(b.PublishDate, o.PublishDate) &&
		b.Publisher == o.Publisher &&
		b.Series == o.Series &&
		b.Price == o.Price &&
		equalPtr(b.Action, o.Action) &&
		equalPtr(b.Result, o.Result) &&
		b.sameIDs(&o.relatedIDs)
}

func (b *Book) String() string {
	return fmt.Sprintf("book %d: %s %s %s %s [%d]", b.ID, b.Title, b.Publisher, b.Series, b.publishDate(), len(b.ids))
}

type bookJSON Book

// MarshalJSON includes the related ids and writes the publish date as a plain date.
func (b *Book) MarshalJSON() ([]byte, error) {
	var date *string
	if b.PublishDate != nil {
		date = Ptr(b.publishDate())
	}
	return json.Marshal(struct {
		*bookJSON
		PublishDate *string `json:"publish_date,omitempty"`
		RelatedIDs  []int64 `json:"related_ids"`
	}{(*bookJSON)(b), date, b.RelatedIDs()})
}

// UnmarshalJSON overlays the encoded fields, related ids included.
// The publish date may be a plain date or an RFC 3339 timestamp.
func (b *Book) UnmarshalJSON(data []byte) error {
	aux := struct {
		*bookJSON
		PublishDate *string  `json:"publish_date"`
		RelatedIDs  *[]int64 `json:"related_ids"`
	}{bookJSON: (*bookJSON)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.PublishDate != nil {
		t, err := parseDate(*aux.PublishDate)
		if err != nil {
			return err
		}
		b.PublishDate = t
	}
	if aux.RelatedIDs != nil {
		b.SetRelatedIDs(*aux.RelatedIDs)
	}
	return nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid publish date %q", s)
}
