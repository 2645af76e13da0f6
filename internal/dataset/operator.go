package dataset

import (
	"context"
	"fmt"

	"github.com/roach88/prices/internal/entity"
	"github.com/roach88/prices/internal/result"
)

// Operator runs the dataset operations for one entity kind chosen at run
// time, as the command line and scenario runner do.
type Operator interface {
	Kind() string
	Table() string
	New() entity.Record
	List() []entity.Record
	Get(id int64) (entity.Record, bool)
	// Clone returns a deep copy of rec, or nil when rec is another kind.
	Clone(rec entity.Record) entity.Record
	Validate(rec entity.Record) error
	Add(ctx context.Context, rec entity.Record) (result.Status, error)
	Update(ctx context.Context, rec entity.Record) (result.Status, error)
	Remove(ctx context.Context, rec entity.Record) (result.Status, error)
	// RemoveRange returns the status and the number of records no longer stored.
	RemoveRange(ctx context.Context, recs []entity.Record) (result.Status, int, error)
}

// Operator returns the operator for kind.
func (d *Dataset) Operator(kind string) (Operator, error) {
	switch kind {
	case entity.KindCategory:
		return operator[entity.Category, *entity.Category]{d}, nil
	case entity.KindProduct:
		return operator[entity.Product, *entity.Product]{d}, nil
	case entity.KindStore:
		return operator[entity.Store, *entity.Store]{d}, nil
	case entity.KindPrice:
		return operator[entity.Price, *entity.Price]{d}, nil
	case entity.KindAuthor:
		return operator[entity.Author, *entity.Author]{d}, nil
	case entity.KindBook:
		return operator[entity.Book, *entity.Book]{d}, nil
	}
	return nil, fmt.Errorf("unknown kind %q (want one of %v)", kind, entity.Kinds)
}

type operator[T any, P entity.Model[T]] struct {
	d *Dataset
}

func (o operator[T, P]) Kind() string  { return P(new(T)).Kind() }
func (o operator[T, P]) Table() string { return P(new(T)).Table().Name }

func (o operator[T, P]) New() entity.Record {
	rec, _ := entity.New(o.Kind())
	return rec
}

func (o operator[T, P]) List() []entity.Record {
	list := List[T, P](o.d)
	out := make([]entity.Record, len(list))
	for i, rec := range list {
		out[i] = P(rec)
	}
	return out
}

func (o operator[T, P]) Get(id int64) (entity.Record, bool) {
	rec, ok := GetByID[T, P](o.d, id)
	if !ok {
		return nil, false
	}
	return P(rec), true
}

func (o operator[T, P]) Clone(rec entity.Record) entity.Record {
	p, ok := rec.(P)
	if !ok {
		return nil
	}
	return P(p.Clone())
}

func (o operator[T, P]) item(rec entity.Record) (*T, error) {
	p, ok := rec.(P)
	if !ok {
		return nil, fmt.Errorf("%s operator: unexpected record %T", o.Kind(), rec)
	}
	return (*T)(p), nil
}

func (o operator[T, P]) Validate(rec entity.Record) error {
	item, err := o.item(rec)
	if err != nil {
		return err
	}
	return Validate[T, P](item)
}

func (o operator[T, P]) Add(ctx context.Context, rec entity.Record) (result.Status, error) {
	item, err := o.item(rec)
	if err != nil {
		return result.Unknown, err
	}
	res, err := Add[T, P](ctx, o.d, item)
	return res.Status, err
}

func (o operator[T, P]) Update(ctx context.Context, rec entity.Record) (result.Status, error) {
	item, err := o.item(rec)
	if err != nil {
		return result.Unknown, err
	}
	res, err := Update[T, P](ctx, o.d, item)
	return res.Status, err
}

func (o operator[T, P]) Remove(ctx context.Context, rec entity.Record) (result.Status, error) {
	item, err := o.item(rec)
	if err != nil {
		return result.Unknown, err
	}
	res, err := Remove[T, P](ctx, o.d, item)
	return res.Status, err
}

func (o operator[T, P]) RemoveRange(ctx context.Context, recs []entity.Record) (result.Status, int, error) {
	items := make([]*T, len(recs))
	for i, rec := range recs {
		item, err := o.item(rec)
		if err != nil {
			return result.Unknown, 0, err
		}
		items[i] = item
	}
	res, err := RemoveRange[T, P](ctx, o.d, items)
	return res.Status, len(res.Value.Removed), err
}
