package entity

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/roach88/prices/internal/schema"
)

// InterestOptions are the interest levels an author can be tagged with, lowest first.
var InterestOptions = []string{"", "old", "faint", "low", "medium", "check", "buy"}

// Author is one side of the author/book relational pair.
type Author struct {
	Base
	relatedIDs
	Name           string  `json:"name"`
	AdditionalName string  `json:"additional_name"`
	Description    *string `json:"description,omitempty"`
	Interest       *string `json:"interest,omitempty"`
}

// AuthorBooks is the join table seen from the author side.
var AuthorBooks = schema.Relation{JoinTable: "author_books", OwnColumn: "author_id", OtherColumn: "book_id"}

var authorTable = schema.NewTable("authors", "name, additional_name",
	baseColumns(func(a *Author) *Base { return &a.Base },
		schema.Col("Name", "name", func(a *Author) any { return &a.Name }, schema.Required, schema.MaxLength(255)),
		schema.Col("AdditionalName", "additional_name", func(a *Author) any { return &a.AdditionalName }, schema.MaxLength(255)),
		schema.Col("Description", "description", func(a *Author) any { return &a.Description }),
		schema.Col("Interest", "interest", func(a *Author) any { return &a.Interest }, schema.MaxLength(50)),
	)...,
).WithRelation(AuthorBooks, func(a *Author) *[]int64 { return a.ref() })

func (*Author) Table() *schema.Table[Author] { return authorTable }
func (*Author) Kind() string                 { return KindAuthor }

// UniqueKey joins name and additional name.
func (a *Author) UniqueKey() string {
	return a.Name + "\x1f" + a.AdditionalName
}

// InterestValue returns the index of Interest in InterestOptions, 0 when unknown.
func (a *Author) InterestValue() int {
	return max(0, slices.Index(InterestOptions, deref(a.Interest)))
}

func (a *Author) SearchTargets() []string {
	return []string{
		strconv.FormatInt(a.ID, 10),
		a.Name,
		a.AdditionalName,
		deref(a.Description),
		deref(a.Interest),
		schema.FormatIDList(a.ids),
	}
}

func (a *Author) Clone() *Author {
	return a.CopyTo(&Author{})
}

func (a *Author) CopyTo(dst *Author) *Author {
	a.Base.copyTo(&dst.Base)
	dst.relatedIDs = a.relatedIDs.clone()
	dst.Name = a.Name
	dst.AdditionalName = a.AdditionalName
	dst.Description = cloneString(a.Description)
	dst.Interest = cloneString(a.Interest)
	return dst
}

func (a *Author) Equal(o *Author) bool {
	return o != nil &&
		a.Base.equal(&o.Base) &&
		a.Name == o.Name &&
		a.AdditionalName == o.AdditionalName &&
		equalPtr(a.Description, o.Description) &&
		equalPtr(a.Interest, o.Interest) &&
		a.sameIDs(&o.relatedIDs)
}

func (a *Author) String() string {
	name := a.Name
	if a.AdditionalName != "" {
		name += "-" + a.AdditionalName
	}
	return fmt.Sprintf("author %d: %s [%d]", a.ID, name, len(a.ids))
}

type authorJSON Author

// MarshalJSON includes the related ids.
func (a *Author) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		*authorJSON
		RelatedIDs []int64 `json:"related_ids"`
	}{(*authorJSON)(a), a.RelatedIDs()})
}

// UnmarshalJSON overlays the encoded fields, related ids included.
func (a *Author) UnmarshalJSON(b []byte) error {
	aux := struct {
		*authorJSON
		RelatedIDs *[]int64 `json:"related_ids"`
	}{authorJSON: (*authorJSON)(a)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.RelatedIDs != nil {
		a.SetRelatedIDs(*aux.RelatedIDs)
	}
	return nil
}
