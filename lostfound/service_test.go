package lostfound

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"campuslink/matching"
	"campuslink/models"
	"campuslink/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	created   []*models.LostFoundItem
	lost      []models.LostFoundItem
	createErr error
	listErr   error
	listCalls int
}

func (f *fakeStore) CreateItem(_ context.Context, it *models.LostFoundItem) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, it)
	return nil
}

func (f *fakeStore) ListItemsByType(_ context.Context, t models.ItemType) ([]models.LostFoundItem, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if t != models.ItemLost {
		return nil, nil
	}
	out := make([]models.LostFoundItem, len(f.lost))
	copy(out, f.lost)
	return out, nil
}

type fakeChannel struct {
	mu    sync.Mutex
	sent  []notify.Message
	fail  map[string]error
	delay map[string]time.Duration
}

func (f *fakeChannel) Send(ctx context.Context, msg notify.Message) error {
	if d := f.delay[msg.To]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.fail[msg.To]
}

func (f *fakeChannel) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		out = append(out, m.To)
	}
	return out
}

func reporter(id, email string) *models.User {
	return &models.User{ID: id, Name: strings.ToUpper(id[:1]) + id[1:], Email: email}
}

func bottleLost() models.LostFoundItem {
	return models.LostFoundItem{
		ID: "lost-1", Type: models.ItemLost, Item: "Blue Water Bottle", Category: "bottle",
		Description: "has a dent", Location: "Library",
		ReporterID: "sam", Reporter: reporter("sam", "sam.j2023it@sece.ac.in"),
	}
}

func bottleFound() NewReport {
	return NewReport{
		Type: models.ItemFound, Item: "Water Bottle", Category: "bottle",
		Description: "blue, dented", Location: "Library", ReporterID: "finder",
	}
}

func newService(store ItemStore, ch notify.Channel) *Service {
	return NewService(store, matching.DefaultPolicy(), NewDispatcher(ch, 4, time.Second, nil), nil)
}

func TestReportFoundItemEndToEnd(t *testing.T) {
	store := &fakeStore{lost: []models.LostFoundItem{
		bottleLost(),
		{ID: "lost-2", Type: models.ItemLost, Item: "Calculator", Description: "casio fx-991", Location: "Block C",
			ReporterID: "ana", Reporter: reporter("ana", "ana@sece.ac.in")},
	}}
	ch := &fakeChannel{}

	res, err := newService(store, ch).Report(context.Background(), bottleFound())
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	assert.NotEmpty(t, res.Item.ID)
	assert.Equal(t, models.ItemFound, res.Item.Type)
	require.Len(t, res.MatchedItems, 1)
	assert.Equal(t, "lost-1", res.MatchedItems[0].ID)

	require.Len(t, ch.sent, 1)
	msg := ch.sent[0]
	assert.Equal(t, "sam.j2023it@sece.ac.in", msg.To)
	assert.Equal(t, "CampusLink: Potential Match Found for Your Lost Item - Blue Water Bottle", msg.Subject)
	assert.Contains(t, msg.HTML, "has a dent")
	assert.Contains(t, msg.HTML, "blue, dented")
}

func TestReportLostItemNeverScans(t *testing.T) {
	store := &fakeStore{lost: []models.LostFoundItem{bottleLost()}}
	ch := &fakeChannel{}

	in := bottleFound()
	in.Type = models.ItemLost
	res, err := newService(store, ch).Report(context.Background(), in)
	require.NoError(t, err)

	assert.NotNil(t, res.MatchedItems)
	assert.Empty(t, res.MatchedItems)
	assert.Zero(t, store.listCalls)
	assert.Empty(t, ch.sent)
}

func TestReportSaveFailure(t *testing.T) {
	store := &fakeStore{createErr: errors.New("disk full"), lost: []models.LostFoundItem{bottleLost()}}
	ch := &fakeChannel{}

	res, err := newService(store, ch).Report(context.Background(), bottleFound())
	assert.Nil(t, res)
	assert.ErrorContains(t, err, "disk full")
	assert.Zero(t, store.listCalls)
	assert.Empty(t, ch.sent)
}

func TestReportScanReadFailureStillSucceeds(t *testing.T) {
	store := &fakeStore{listErr: errors.New("connection reset")}
	ch := &fakeChannel{}

	res, err := newService(store, ch).Report(context.Background(), bottleFound())
	require.NoError(t, err)
	assert.Len(t, store.created, 1)
	assert.Empty(t, res.MatchedItems)
	assert.Empty(t, ch.sent)
}

func TestPartialNotificationFailureKeepsMatches(t *testing.T) {
	first := bottleLost()
	second := bottleLost()
	second.ID, second.ReporterID, second.Reporter = "lost-2", "ana", reporter("ana", "ana@sece.ac.in")

	store := &fakeStore{lost: []models.LostFoundItem{first, second}}
	ch := &fakeChannel{fail: map[string]error{"sam.j2023it@sece.ac.in": errors.New("550 mailbox unavailable")}}

	res, err := newService(store, ch).Report(context.Background(), bottleFound())
	require.NoError(t, err)
	require.Len(t, res.MatchedItems, 2)
	assert.Equal(t, "lost-1", res.MatchedItems[0].ID)
	assert.Equal(t, "lost-2", res.MatchedItems[1].ID)
	assert.ElementsMatch(t, []string{"sam.j2023it@sece.ac.in", "ana@sece.ac.in"}, ch.recipients())
}

func TestUnresolvedReporterIsSkipped(t *testing.T) {
	orphan := bottleLost()
	orphan.Reporter = nil
	noEmail := bottleLost()
	noEmail.ID, noEmail.Reporter = "lost-2", &models.User{ID: "x", Name: "X"}

	store := &fakeStore{lost: []models.LostFoundItem{orphan, noEmail}}
	ch := &fakeChannel{}

	res, err := newService(store, ch).Report(context.Background(), bottleFound())
	require.NoError(t, err)
	assert.Len(t, res.MatchedItems, 2)
	assert.Empty(t, ch.sent)
}

func TestMatchedOrderFollowsRepositoryNotCompletion(t *testing.T) {
	var lost []models.LostFoundItem
	delays := map[string]time.Duration{}
	for i, who := range []string{"a", "b", "c", "d", "e"} {
		it := bottleLost()
		it.ID = "lost-" + who
		it.Reporter = reporter(who+"x", who+"@sece.ac.in")
		lost = append(lost, it)
		delays[who+"@sece.ac.in"] = time.Duration(5-i) * 10 * time.Millisecond
	}
	store := &fakeStore{lost: lost}
	ch := &fakeChannel{delay: delays}

	res, err := newService(store, ch).Report(context.Background(), bottleFound())
	require.NoError(t, err)
	var ids []string
	for _, m := range res.MatchedItems {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"lost-a", "lost-b", "lost-c", "lost-d", "lost-e"}, ids)
	assert.Len(t, ch.recipients(), 5)
}

func TestStalledChannelTimesOut(t *testing.T) {
	store := &fakeStore{lost: []models.LostFoundItem{bottleLost()}}
	ch := &fakeChannel{delay: map[string]time.Duration{"sam.j2023it@sece.ac.in": time.Minute}}
	svc := NewService(store, matching.DefaultPolicy(), NewDispatcher(ch, 1, 20*time.Millisecond, nil), nil)

	start := time.Now()
	res, err := svc.Report(context.Background(), bottleFound())
	require.NoError(t, err)
	assert.Len(t, res.MatchedItems, 1)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Empty(t, ch.recipients())
}

func TestAnalysisOnOneSideDoesNotMatch(t *testing.T) {
	store := &fakeStore{lost: []models.LostFoundItem{bottleLost()}}
	ch := &fakeChannel{}

	in := bottleFound()
	in.GeminiAnalysis = "blue backpack"
	res, err := newService(store, ch).Report(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, res.MatchedItems)
	assert.Empty(t, ch.sent)
}

func TestMatchMessageEscapesAndIncludesImage(t *testing.T) {
	lost := bottleLost()
	lost.Description = `<script>alert("x")</script>`
	found := &models.LostFoundItem{ID: "f", Item: "Bottle", Description: "steel", Location: "Gate", ImageURL: "https://img.example/b.png"}

	msg := MatchMessage(&lost, found)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
	assert.Contains(t, msg.HTML, `src="https://img.example/b.png"`)
	assert.Contains(t, msg.HTML, "Hello Sam,")

	found.ImageURL = ""
	assert.NotContains(t, MatchMessage(&lost, found).HTML, "<img")
}

// peakChannel records the highest number of concurrent Send calls.
type peakChannel struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	sent     []string
}

func (p *peakChannel) Send(ctx context.Context, msg notify.Message) error {
	p.mu.Lock()
	p.inFlight++
	if p.inFlight > p.peak {
		p.peak = p.inFlight
	}
	p.mu.Unlock()

	select {
	case <-time.After(20 * time.Millisecond):
	case <-ctx.Done():
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight--
	p.sent = append(p.sent, msg.To)
	return nil
}

func TestDispatchAllBoundsConcurrency(t *testing.T) {
	var matched []models.LostFoundItem
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		matched = append(matched, models.LostFoundItem{
			ID: "lost-" + id, Type: models.ItemLost, Item: "Umbrella",
			ReporterID: id, Reporter: reporter(id, id+"@sece.ac.in"),
		})
	}
	found := &models.LostFoundItem{ID: "found-1", Type: models.ItemFound, Item: "Umbrella"}
	ch := &peakChannel{}

	NewDispatcher(ch, 2, time.Second, nil).DispatchAll(context.Background(), matched, found)

	assert.LessOrEqual(t, ch.peak, 2)
	assert.Equal(t, 2, ch.peak, "the limit is actually used")
	assert.ElementsMatch(t,
		[]string{"a@sece.ac.in", "b@sece.ac.in", "c@sece.ac.in", "d@sece.ac.in", "e@sece.ac.in"},
		ch.sent)
}
