package comics

import (
	"context"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "Sea Story 3\tAoki / Baba /Aoki\t2024/05/上\tKodan\tSea\t748\t1001\r\n" +
	"Mountain\tChiba\t2024.05.?\tShogaku\t\t693\t1002\n" +
	"Late Title\tDate\t2024/05/下\tShogaku\tPeak\t880\t1003\n" +
	"Unknown Day\tEto\tsomeday\tKodan\t\t500\t1004\n" +
	"Trailing\tFuji\t2024/05/\tKodan\t\t500\t1005\n" +
	"No Id\tGoto\t2024/05/14\tKodan\t\t500\t\n" +
	"\n"

func TestParse(t *testing.T) {
	month := time.Date(2024, time.May, 17, 0, 0, 0, 0, time.UTC)
	got := Parse(month, sample)
	require.Len(t, got, 5)

	first := got[0]
	assert.Equal(t, 1001, first.ID)
	assert.Equal(t, "Sea Story 3", first.Title)
	assert.Equal(t, []string{"Aoki", "Baba"}, first.Authors)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), first.PublishDate)
	assert.Equal(t, "Kodan", first.Publisher)
	assert.Equal(t, "Sea", first.Series)
	assert.Equal(t, 748, first.Price)

	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), got[1].PublishDate, "? is the first")
	assert.Equal(t, time.Date(2024, 5, 28, 0, 0, 0, 0, time.UTC), got[2].PublishDate)
	assert.Equal(t, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), got[3].PublishDate, "unreadable dates fall back to month end")
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), got[4].PublishDate, "trailing separator gets day 1")
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024/05/中", time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC), true},
		{"2024-5-??", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024.12.", time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024/07", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"soon", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestURL(t *testing.T) {
	month := time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "https://complex.matrix.jp/comics/tsv/c202403.csv", URL(DefaultBaseURL, month))
	assert.Equal(t, "http://mirror.test/c202403.csv", URL("http://mirror.test/", month))
}

func TestFetch(t *testing.T) {
	defer gock.Off()
	gock.New("http://comics.test").
		Get("/tsv/c202405.csv").
		Reply(200).
		BodyString(sample)

	f := NewFetcher("http://comics.test/tsv")
	got, err := f.Fetch(context.Background(), time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.True(t, gock.IsDone())
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	defer gock.Off()
	gock.New("http://comics.test").Get("/tsv/c202405.csv").Reply(503)
	gock.New("http://comics.test").Get("/tsv/c202405.csv").Reply(200).BodyString(sample)

	f := NewFetcher("http://comics.test/tsv")
	f.Interval = time.Millisecond
	got, err := f.Fetch(context.Background(), time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.True(t, gock.IsDone())
}

func TestFetch_NotFound(t *testing.T) {
	defer gock.Off()
	gock.New("http://comics.test").Get("/tsv/c202406.csv").Reply(404)

	f := NewFetcher("http://comics.test/tsv")
	f.Interval = time.Millisecond
	_, err := f.Fetch(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetch_BeforeOldest(t *testing.T) {
	f := NewFetcher("")
	_, err := f.Fetch(context.Background(), time.Date(1987, 8, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}
