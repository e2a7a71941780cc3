package usecase_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nearest-locations/internal/domain"
	"github.com/nearest-locations/internal/usecase"
)

var (
	losAngeles = domain.Coordinate{Lat: 34.0522, Lng: -118.2437}
	newYork    = domain.Coordinate{Lat: 40.7506, Lng: -73.9972}
	chicago    = domain.Coordinate{Lat: 41.8781, Lng: -87.6298}

	beverlyHills = domain.Coordinate{Lat: 34.0901, Lng: -118.4065} // 90210
	chelsea      = domain.Coordinate{Lat: 40.7484, Lng: -73.9967}  // 10001
)

const (
	idChicago domain.CandidateID = iota
	idNewYork
	idLosAngeles
)

type recordingRenderer struct {
	mu    sync.Mutex
	views []domain.ViewState
}

func (r *recordingRenderer) Render(view domain.ViewState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, view)
}

func (r *recordingRenderer) all() []domain.ViewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ViewState(nil), r.views...)
}

type syncFixture struct {
	sync     *usecase.SelectionSync
	provider *MockDistanceMatrixRepository
	geocoder *MockGeocoderRepository
	renderer *recordingRenderer
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	entries := []domain.RawEntry{
		entry("Chicago", "41.8781", "-87.6298"),
		entry("New York", "40.7506", "-73.9972"),
		entry("Los Angeles", "34.0522", "-118.2437"),
	}
	logger := zap.NewNop()

	provider := &MockDistanceMatrixRepository{}
	provider.On("MaxDestinations").Return(25)

	geocoder := &MockGeocoderRepository{}
	renderer := &recordingRenderer{}

	s := usecase.NewSelectionSync(
		usecase.BuildRegistry(entries, logger),
		usecase.NewDistanceRanker(provider, testRankerConfig, logger),
		usecase.NewGeocodeUseCase(geocoder, nil, "US", time.Hour, logger),
		renderer,
		usecase.SelectionSyncConfig{
			CountryRestriction: "US",
			Geolocation:        domain.GeolocationOptions{Timeout: time.Second, MaximumAge: 5 * time.Minute},
			FitPadding:         60,
		},
		logger,
	)

	return &syncFixture{sync: s, provider: provider, geocoder: geocoder, renderer: renderer}
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for search")
	}
	var zero T
	return zero
}

func viewNames(view domain.ViewState) []string {
	out := make([]string, len(view.Items))
	for i, it := range view.Items {
		out[i] = it.Display.Name
	}
	return out
}

func assertSingleActive(t *testing.T, view domain.ViewState) {
	t.Helper()
	if view.ActiveID == nil {
		assert.Equal(t, 0, view.ActiveCount())
		return
	}
	assert.Equal(t, 1, view.ActiveCount())
}

func TestSelectionSync_InitialView(t *testing.T) {
	f := newSyncFixture(t)

	view := f.sync.Snapshot()
	assert.Equal(t, []string{"Chicago", "New York", "Los Angeles"}, viewNames(view))
	assert.Nil(t, view.ActiveID)
	assert.Nil(t, view.Camera)
	for _, it := range view.Items {
		assert.False(t, it.ShowDistance)
		assert.True(t, it.OnMap)
	}
}

func TestSelectionSync_SearchQuery(t *testing.T) {
	f := newSyncFixture(t)
	f.geocoder.On("Geocode", mock.Anything, "90210", "US").Return(beverlyHills, nil)
	f.provider.On("GetDistances", mock.Anything, beverlyHills, mock.Anything).Return(haversineDistances, nil)

	out, err := f.sync.SearchQuery(context.Background(), " 90210 ", domain.DefaultPolicy(domain.TriggerQuery))
	require.NoError(t, err)

	assert.True(t, out.Applied)
	assert.False(t, out.Stale)
	assert.Equal(t, uint64(1), out.View.AppliedRequestID)
	assert.Equal(t, []string{"Los Angeles", "Chicago", "New York"}, viewNames(out.View))

	require.NotNil(t, out.View.ActiveID)
	assert.Equal(t, idLosAngeles, *out.View.ActiveID)
	require.NotNil(t, out.View.Popup)
	assert.Equal(t, idLosAngeles, *out.View.Popup)

	require.NotNil(t, out.View.Camera)
	assert.Equal(t, domain.CameraFitBounds, out.View.Camera.Mode)
	assert.Equal(t, 60, out.View.Camera.Padding)
	require.NotNil(t, out.View.Camera.Bounds)
	assert.Equal(t, beverlyHills.Lat, out.View.Camera.Bounds.NorthEast.Lat)
	assert.Equal(t, losAngeles.Lat, out.View.Camera.Bounds.SouthWest.Lat)

	require.NotNil(t, out.View.Origin)
	assert.Equal(t, domain.TriggerQuery, out.View.Origin.Trigger)
	assert.Equal(t, "90210", out.View.Origin.Label)

	for _, it := range out.View.Items {
		assert.True(t, it.ShowDistance)
		assert.True(t, it.ShowDuration)
	}
}

func TestSelectionSync_EmptyQueryIgnored(t *testing.T) {
	f := newSyncFixture(t)

	out, err := f.sync.SearchQuery(context.Background(), "   ", domain.DefaultPolicy(domain.TriggerQuery))
	require.NoError(t, err)
	assert.True(t, out.Ignored)
	f.geocoder.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything, mock.Anything)
}

// Второй запрос "10001" уходит до того, как ответил провайдер для "90210":
// итоговое состояние - только от "10001"
func TestSelectionSync_LatestQueryWins(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	policy := domain.DefaultPolicy(domain.TriggerQuery)

	started := make(chan struct{})
	release := make(chan struct{})

	f.geocoder.On("Geocode", mock.Anything, "90210", "US").Return(beverlyHills, nil)
	f.geocoder.On("Geocode", mock.Anything, "10001", "US").Return(chelsea, nil)
	f.provider.On("GetDistances", mock.Anything, beverlyHills, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(haversineDistances, nil).Once()
	f.provider.On("GetDistances", mock.Anything, chelsea, mock.Anything).Return(haversineDistances, nil)

	first := make(chan usecase.SearchOutcome, 1)
	go func() {
		out, _ := f.sync.SearchQuery(ctx, "90210", policy)
		first <- out
	}()
	receive(t, started)

	second, err := f.sync.SearchQuery(ctx, "10001", policy)
	require.NoError(t, err)
	assert.True(t, second.Applied)

	close(release)
	stale := receive(t, first)

	assert.True(t, stale.Stale)
	assert.False(t, stale.Applied)

	view := f.sync.Snapshot()
	assert.Equal(t, []string{"New York", "Chicago", "Los Angeles"}, viewNames(view))
	require.NotNil(t, view.ActiveID)
	assert.Equal(t, idNewYork, *view.ActiveID)
	assert.Equal(t, second.RequestID, view.AppliedRequestID)
	assert.Equal(t, "10001", view.Origin.Label)
	assertSingleActive(t, view)

	for _, v := range f.renderer.all() {
		assert.NotEqual(t, stale.RequestID, v.AppliedRequestID, "stale request never rendered")
	}
}

// Ответ геокодера для старого запроса пришел позже нового
func TestSelectionSync_StaleGeocodeDiscarded(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	policy := domain.DefaultPolicy(domain.TriggerQuery)

	started := make(chan struct{})
	release := make(chan struct{})

	f.geocoder.On("Geocode", mock.Anything, "90210", "US").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(beverlyHills, nil).Once()
	f.geocoder.On("Geocode", mock.Anything, "10001", "US").Return(chelsea, nil)
	f.provider.On("GetDistances", mock.Anything, chelsea, mock.Anything).Return(haversineDistances, nil)

	first := make(chan usecase.SearchOutcome, 1)
	go func() {
		out, _ := f.sync.SearchQuery(ctx, "90210", policy)
		first <- out
	}()
	receive(t, started)

	_, err := f.sync.SearchQuery(ctx, "10001", policy)
	require.NoError(t, err)

	close(release)
	assert.True(t, receive(t, first).Stale)

	f.provider.AssertNotCalled(t, "GetDistances", mock.Anything, beverlyHills, mock.Anything)
	assert.Equal(t, idNewYork, *f.sync.Snapshot().ActiveID)
}

// Позиция при загрузке страницы приходит после введенного "10001":
// ни поздняя позиция, ни поздний отказ не трогают результат запроса
func TestSelectionSync_LatePageLoadGeolocationDiscarded(t *testing.T) {
	tests := []struct {
		name  string
		coord domain.Coordinate
		err   error
	}{
		{name: "late fix", coord: beverlyHills},
		{name: "late denial", err: domain.ErrGeolocationDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSyncFixture(t)
			ctx := context.Background()

			started := make(chan struct{})
			release := make(chan struct{})

			locator := &MockGeolocator{}
			locator.On("CurrentPosition", mock.Anything, mock.Anything).
				Run(func(mock.Arguments) {
					close(started)
					<-release
				}).
				Return(tt.coord, tt.err).Once()
			f.geocoder.On("Geocode", mock.Anything, "10001", "US").Return(chelsea, nil)
			f.provider.On("GetDistances", mock.Anything, chelsea, mock.Anything).Return(haversineDistances, nil)

			passive := make(chan usecase.SearchOutcome, 1)
			go func() {
				out, _ := f.sync.Locate(ctx, locator, false, domain.DefaultPolicy(domain.TriggerPageLoad))
				passive <- out
			}()
			receive(t, started)

			query, err := f.sync.SearchQuery(ctx, "10001", domain.DefaultPolicy(domain.TriggerQuery))
			require.NoError(t, err)
			require.True(t, query.Applied)
			want := []string{"New York", "Chicago", "Los Angeles"}
			assert.Equal(t, want, viewNames(query.View))

			close(release)
			out := receive(t, passive)
			assert.True(t, out.Stale)
			assert.Nil(t, out.Notice)

			view := f.sync.Snapshot()
			assert.Equal(t, want, viewNames(view))
			assert.False(t, view.DistancesHidden)
			assert.Equal(t, query.RequestID, view.AppliedRequestID)
			require.NotNil(t, view.Origin)
			assert.Equal(t, domain.TriggerQuery, view.Origin.Trigger)
			for _, it := range view.Items {
				assert.True(t, it.ShowDistance)
			}

			f.geocoder.AssertNotCalled(t, "ReverseCountry", mock.Anything, mock.Anything)
			f.provider.AssertNotCalled(t, "GetDistances", mock.Anything, beverlyHills, mock.Anything)
		})
	}
}

func TestSelectionSync_ExplicitSelectionBeatsPendingAutoSelect(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	f.provider.On("GetDistances", mock.Anything, beverlyHills, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(haversineDistances, nil).Once()

	done := make(chan usecase.SearchOutcome, 1)
	go func() {
		out, _ := f.sync.StartSearch(ctx,
			domain.Origin{Coordinate: beverlyHills, Trigger: domain.TriggerQuery},
			domain.DefaultPolicy(domain.TriggerQuery))
		done <- out
	}()
	receive(t, started)

	view, err := f.sync.SelectCandidate(idChicago)
	require.NoError(t, err)
	assert.Equal(t, idChicago, *view.ActiveID)

	close(release)
	out := receive(t, done)

	assert.True(t, out.Applied)
	assert.Equal(t, []string{"Los Angeles", "Chicago", "New York"}, viewNames(out.View))
	require.NotNil(t, out.View.ActiveID)
	assert.Equal(t, idChicago, *out.View.ActiveID, "user click is not overridden")
	assertSingleActive(t, out.View)
}

func TestSelectionSync_GeocodeFailureKeepsPreviousResults(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	policy := domain.DefaultPolicy(domain.TriggerQuery)

	f.geocoder.On("Geocode", mock.Anything, "90210", "US").Return(beverlyHills, nil)
	f.geocoder.On("Geocode", mock.Anything, "nowhere", "US").Return(domain.Coordinate{}, domain.ErrGeocodeNotFound)
	f.provider.On("GetDistances", mock.Anything, beverlyHills, mock.Anything).Return(haversineDistances, nil)

	good, err := f.sync.SearchQuery(ctx, "90210", policy)
	require.NoError(t, err)

	bad, err := f.sync.SearchQuery(ctx, "nowhere", policy)
	require.NoError(t, err)

	assert.True(t, bad.GeocodeFailed)
	assert.False(t, bad.Applied)
	assert.Equal(t, good.View.Order(), bad.View.Order())
	assert.Equal(t, good.View.AppliedRequestID, bad.View.AppliedRequestID)
	assert.Equal(t, good.View.Version, bad.View.Version, "no render on failed geocode")
	assert.Equal(t, "90210", bad.View.Origin.Label)
}

func TestSelectionSync_AllBatchesFailedKeepsPreviousResults(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	policy := domain.DefaultPolicy(domain.TriggerQuery)

	f.provider.On("GetDistances", mock.Anything, beverlyHills, mock.Anything).Return(haversineDistances, nil)
	f.provider.On("GetDistances", mock.Anything, chelsea, mock.Anything).Return(nil, errors.New("REQUEST_DENIED"))

	good, err := f.sync.StartSearch(ctx, domain.Origin{Coordinate: beverlyHills, Trigger: domain.TriggerQuery}, policy)
	require.NoError(t, err)

	failed, err := f.sync.StartSearch(ctx, domain.Origin{Coordinate: chelsea, Trigger: domain.TriggerQuery}, policy)
	require.NoError(t, err)

	assert.True(t, failed.SearchFailed)
	assert.Equal(t, good.View.Order(), failed.View.Order())
	for _, it := range failed.View.Items {
		assert.True(t, it.ShowDistance, "previous distances still shown")
	}
}

func TestSelectionSync_PassiveGeolocationDenied(t *testing.T) {
	f := newSyncFixture(t)

	locator := &MockGeolocator{}
	locator.On("CurrentPosition", mock.Anything, mock.Anything).Return(domain.Coordinate{}, domain.ErrGeolocationDenied)

	out, err := f.sync.Locate(context.Background(), locator, false, domain.DefaultPolicy(domain.TriggerPageLoad))
	require.NoError(t, err)

	assert.Nil(t, out.Notice, "no alert on passive attempts")
	assert.True(t, out.View.DistancesHidden)
	assert.Equal(t, []string{"Chicago", "New York", "Los Angeles"}, viewNames(out.View))
	for _, it := range out.View.Items {
		assert.False(t, it.ShowDistance)
		assert.False(t, it.ShowDuration)
	}
	f.provider.AssertNotCalled(t, "GetDistances", mock.Anything, mock.Anything, mock.Anything)
}

func TestSelectionSync_ExplicitGeolocation(t *testing.T) {
	ctx := context.Background()
	policy := domain.DefaultPolicy(domain.TriggerGeolocation)

	t.Run("denied shows notice and hides distances", func(t *testing.T) {
		f := newSyncFixture(t)
		f.provider.On("GetDistances", mock.Anything, beverlyHills, mock.Anything).Return(haversineDistances, nil)
		_, err := f.sync.StartSearch(ctx, domain.Origin{Coordinate: beverlyHills, Trigger: domain.TriggerQuery}, policy)
		require.NoError(t, err)

		locator := &MockGeolocator{}
		locator.On("CurrentPosition", mock.Anything, mock.Anything).Return(domain.Coordinate{}, domain.ErrGeolocationTimeout)

		out, err := f.sync.Locate(ctx, locator, true, policy)
		require.NoError(t, err)

		require.NotNil(t, out.Notice)
		assert.Equal(t, domain.NoticeLocationDenied, out.Notice.Code)
		assert.True(t, out.View.DistancesHidden)
		assert.Equal(t, []string{"Los Angeles", "Chicago", "New York"}, viewNames(out.View), "order untouched")
		for _, it := range out.View.Items {
			assert.False(t, it.ShowDistance)
		}
	})

	t.Run("fix outside region is rejected", func(t *testing.T) {
		f := newSyncFixture(t)
		toronto := domain.Coordinate{Lat: 43.6532, Lng: -79.3832}

		locator := &MockGeolocator{}
		locator.On("CurrentPosition", mock.Anything, mock.Anything).Return(toronto, nil)
		f.geocoder.On("ReverseCountry", mock.Anything, toronto).Return("CA", nil)

		out, err := f.sync.Locate(ctx, locator, true, policy)
		require.NoError(t, err)

		require.NotNil(t, out.Notice)
		assert.Equal(t, domain.NoticeOutsideRegion, out.Notice.Code)
		assert.True(t, out.Ignored)
		f.provider.AssertNotCalled(t, "GetDistances", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fix flies to nearest", func(t *testing.T) {
		f := newSyncFixture(t)

		locator := &MockGeolocator{}
		locator.On("CurrentPosition", mock.Anything, mock.MatchedBy(func(o domain.GeolocationOptions) bool {
			return o.Timeout == time.Second && !o.EnableHighAccuracy
		})).Return(chelsea, nil)
		f.geocoder.On("ReverseCountry", mock.Anything, chelsea).Return("US", nil)
		f.provider.On("GetDistances", mock.Anything, chelsea, mock.Anything).Return(haversineDistances, nil)

		out, err := f.sync.Locate(ctx, locator, true, policy)
		require.NoError(t, err)

		assert.True(t, out.Applied)
		assert.Nil(t, out.Notice)
		require.NotNil(t, out.View.Camera)
		assert.Equal(t, domain.CameraFlyTo, out.View.Camera.Mode)
		assert.Equal(t, newYork, *out.View.Camera.Center)
		assert.Equal(t, domain.TriggerGeolocation, out.View.Origin.Trigger)
	})
}

func TestSelectionSync_PassiveFixDoesNotAutoSelect(t *testing.T) {
	f := newSyncFixture(t)

	locator := &MockGeolocator{}
	locator.On("CurrentPosition", mock.Anything, mock.Anything).Return(chelsea, nil)
	f.geocoder.On("ReverseCountry", mock.Anything, chelsea).Return("US", nil)
	f.provider.On("GetDistances", mock.Anything, chelsea, mock.Anything).Return(haversineDistances, nil)

	out, err := f.sync.Locate(context.Background(), locator, false, domain.DefaultPolicy(domain.TriggerPageLoad))
	require.NoError(t, err)

	assert.True(t, out.Applied)
	assert.Equal(t, []string{"New York", "Chicago", "Los Angeles"}, viewNames(out.View))
	assert.Nil(t, out.View.ActiveID)
	assert.Nil(t, out.View.Camera)
}

func TestSelectionSync_Autocomplete(t *testing.T) {
	ctx := context.Background()
	policy := domain.DefaultPolicy(domain.TriggerAutocomplete)

	t.Run("pick without geometry is ignored", func(t *testing.T) {
		f := newSyncFixture(t)
		out, err := f.sync.SearchAutocomplete(ctx, domain.AutocompletePick{Label: "Somewhere"}, policy)
		require.NoError(t, err)
		assert.True(t, out.Ignored)
		assert.Equal(t, uint64(0), out.View.Version)
	})

	t.Run("pick outside region is ignored", func(t *testing.T) {
		f := newSyncFixture(t)
		coord := domain.Coordinate{Lat: 51.5, Lng: -0.12}
		out, err := f.sync.SearchAutocomplete(ctx, domain.AutocompletePick{Coordinate: &coord, CountryCode: "GB"}, policy)
		require.NoError(t, err)
		assert.True(t, out.Ignored)
	})

	t.Run("pick ranks from its coordinate", func(t *testing.T) {
		f := newSyncFixture(t)
		f.provider.On("GetDistances", mock.Anything, chelsea, mock.Anything).Return(haversineDistances, nil)

		coord := chelsea
		out, err := f.sync.SearchAutocomplete(ctx,
			domain.AutocompletePick{Coordinate: &coord, CountryCode: "us", Label: "New York, NY 10001"}, policy)
		require.NoError(t, err)

		assert.True(t, out.Applied)
		assert.Equal(t, idNewYork, *out.View.ActiveID)
		assert.Equal(t, domain.TriggerAutocomplete, out.View.Origin.Trigger)
	})
}

func TestSelectionSync_SelectCandidate(t *testing.T) {
	f := newSyncFixture(t)

	_, err := f.sync.SelectCandidate(99)
	assert.ErrorIs(t, err, domain.ErrCandidateNotFound)

	view, err := f.sync.SelectCandidate(idNewYork)
	require.NoError(t, err)
	assert.Equal(t, idNewYork, *view.ActiveID)
	assert.Equal(t, idNewYork, *view.Popup)
	assert.Equal(t, domain.CameraFlyTo, view.Camera.Mode)
	assert.Equal(t, newYork, *view.Camera.Center)

	view, err = f.sync.SelectCandidate(idChicago)
	require.NoError(t, err)
	assertSingleActive(t, view)
	assert.Equal(t, idChicago, *f.sync.Selection().ActiveID)

	view = f.sync.ClearSelection()
	assert.Nil(t, view.ActiveID)
	assert.Nil(t, view.Popup)
	assert.Equal(t, 0, view.ActiveCount())
}

func TestSelectionSync_SingleActiveInvariant(t *testing.T) {
	f := newSyncFixture(t)
	f.provider.On("GetDistances", mock.Anything, mock.Anything, mock.Anything).Return(haversineDistances, nil)

	origins := []domain.Coordinate{beverlyHills, chelsea, chicago, losAngeles}
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i < 50; i++ {
				switch rnd.Intn(3) {
				case 0:
					_, _ = f.sync.SelectCandidate(domain.CandidateID(rnd.Intn(3)))
				case 1:
					_, _ = f.sync.StartSearch(ctx,
						domain.Origin{Coordinate: origins[rnd.Intn(len(origins))], Trigger: domain.TriggerQuery},
						domain.DefaultPolicy(domain.TriggerQuery))
				default:
					f.sync.ClearSelection()
				}
			}
		}(int64(w + 1))
	}
	wg.Wait()

	views := f.renderer.all()
	require.NotEmpty(t, views)
	var lastVersion uint64
	for _, v := range views {
		assertSingleActive(t, v)
		assert.Greater(t, v.Version, lastVersion, "renders are ordered")
		lastVersion = v.Version
	}
}
