package comics

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/prices/internal/dataset"
	"github.com/roach88/prices/internal/entity"
	"github.com/roach88/prices/internal/result"
)

// Report counts what an import did.
type Report struct {
	AuthorsAdded int `json:"authors_added"`
	BooksAdded   int `json:"books_added"`
	BooksLinked  int `json:"books_linked"`
	Unchanged    int `json:"unchanged"`
	// Failed maps a comic's title to the status that rejected it.
	Failed map[string]result.Status `json:"failed,omitempty"`
}

// Import adds the comics as books, creating missing authors and linking
// each book to its authors. A book already present (same title, publisher,
// series and date) gains any missing author links and is otherwise left
// alone. Rejected writes are reported per title; timeouts and deadlocks
// abort the import.
func Import(ctx context.Context, ds *dataset.Dataset, comics []Comic, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	report := Report{Failed: map[string]result.Status{}}

	for _, c := range comics {
		authorIDs, err := ensureAuthors(ctx, ds, c.Authors, &report)
		if err != nil {
			return report, err
		}
		if len(authorIDs) < len(c.Authors) {
			continue
		}

		book := ToBook(c)
		book.SetRelatedIDs(authorIDs)

		existing, ok := dataset.GetOther(ds, book)
		if !ok {
			res, err := dataset.Add(ctx, ds, book)
			if err != nil {
				return report, fmt.Errorf("import %q: %w", c.Title, err)
			}
			if res.IsFailure() {
				report.Failed[c.Title] = res.Status
				logger.Warn("comic rejected", "title", c.Title, "status", res.Status)
				continue
			}
			report.BooksAdded++
			continue
		}

		merged := existing.RelatedIDs()
		for _, id := range authorIDs {
			if !slices.Contains(merged, id) {
				merged = append(merged, id)
			}
		}
		if len(merged) == len(existing.RelatedIDs()) {
			report.Unchanged++
			continue
		}
		edit := existing.Clone()
		edit.SetRelatedIDs(merged)
		res, err := dataset.Update(ctx, ds, edit)
		if err != nil {
			return report, fmt.Errorf("import %q: %w", c.Title, err)
		}
		if res.IsFailure() {
			report.Failed[c.Title] = res.Status
			continue
		}
		report.BooksLinked++
	}

	logger.Info("comics imported",
		"books_added", report.BooksAdded, "books_linked", report.BooksLinked,
		"authors_added", report.AuthorsAdded, "failed", len(report.Failed))
	return report, nil
}

// ensureAuthors returns the ids of the named authors, adding the missing ones.
// A rejected author is recorded under the name and left out of the ids.
func ensureAuthors(ctx context.Context, ds *dataset.Dataset, names []string, report *Report) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		probe := &entity.Author{Name: name}
		if a, ok := dataset.GetByName[entity.Author](ds, probe.UniqueKey()); ok {
			ids = append(ids, a.ID)
			continue
		}
		res, err := dataset.Add(ctx, ds, probe)
		if err != nil {
			return nil, fmt.Errorf("import author %q: %w", name, err)
		}
		if res.IsFailure() {
			report.Failed[name] = res.Status
			continue
		}
		report.AuthorsAdded++
		ids = append(ids, probe.ID)
	}
	return ids, nil
}

// ToBook maps a comic onto a new book.
func ToBook(c Comic) *entity.Book {
	date := time.Date(c.PublishDate.Year(), c.PublishDate.Month(), c.PublishDate.Day(), 0, 0, 0, 0, time.UTC)
	return &entity.Book{
		Title:       c.Title,
		PublishDate: &date,
		Publisher:   c.Publisher,
		Series:      c.Series,
		Price:       float64(c.Price),
	}
}
