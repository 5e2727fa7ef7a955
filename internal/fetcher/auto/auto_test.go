package auto

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/scrape"
)

type stubFetcher struct {
	doc   scrape.Document
	err   error
	calls int
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) (scrape.Document, error) {
	s.calls++
	if s.err != nil {
		return scrape.Document{}, s.err
	}
	return s.doc, nil
}

type stubDetector struct{ promote bool }

func (s stubDetector) ShouldPromote(scrape.Document) bool { return s.promote }

func TestFetchWithoutPromotion(t *testing.T) {
	t.Parallel()

	primary := &stubFetcher{doc: scrape.Document{StatusCode: 200, Body: []byte("plain")}}
	fallback := &stubFetcher{doc: scrape.Document{StatusCode: 200, Body: []byte("rendered")}}
	f := New(primary, fallback, stubDetector{promote: false}, zap.NewNop())

	doc, err := f.Fetch(context.Background(), "https://www.kleinanzeigen.de/s-anzeige/1")
	require.NoError(t, err)
	require.Equal(t, "plain", string(doc.Body))
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 0, fallback.calls)
}

func TestFetchPromotesFlaggedDocument(t *testing.T) {
	t.Parallel()

	primary := &stubFetcher{doc: scrape.Document{StatusCode: 200, Body: []byte("shell")}}
	fallback := &stubFetcher{doc: scrape.Document{StatusCode: 200, Body: []byte("rendered")}}
	f := New(primary, fallback, stubDetector{promote: true}, zap.NewNop())

	doc, err := f.Fetch(context.Background(), "https://www.kleinanzeigen.de/s-anzeige/1")
	require.NoError(t, err)
	require.Equal(t, "rendered", string(doc.Body))
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 1, fallback.calls)
}

func TestFetchPrimaryErrorPassesThrough(t *testing.T) {
	t.Parallel()

	wantErr := &scrape.HTTPStatusError{StatusCode: 503, URL: "u"}
	primary := &stubFetcher{err: wantErr}
	fallback := &stubFetcher{}
	f := New(primary, fallback, stubDetector{promote: true}, zap.NewNop())

	_, err := f.Fetch(context.Background(), "https://www.kleinanzeigen.de/s-anzeige/1")
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, 0, fallback.calls)
}

func TestFetchFallbackFailureKeepsPlainDocument(t *testing.T) {
	t.Parallel()

	primary := &stubFetcher{doc: scrape.Document{StatusCode: 200, Body: []byte("shell")}}
	fallback := &stubFetcher{err: errors.New("browser crashed")}
	f := New(primary, fallback, stubDetector{promote: true}, zap.NewNop())

	doc, err := f.Fetch(context.Background(), "https://www.kleinanzeigen.de/s-anzeige/1")
	require.NoError(t, err)
	require.Equal(t, "shell", string(doc.Body))
}

func TestFetchNilDetectorNeverPromotes(t *testing.T) {
	t.Parallel()

	primary := &stubFetcher{doc: scrape.Document{StatusCode: 200, Body: []byte("plain")}}
	fallback := &stubFetcher{}
	f := New(primary, fallback, nil, zap.NewNop())

	doc, err := f.Fetch(context.Background(), "https://www.kleinanzeigen.de/s-anzeige/1")
	require.NoError(t, err)
	require.Equal(t, "plain", string(doc.Body))
	require.Equal(t, 0, fallback.calls)
}
