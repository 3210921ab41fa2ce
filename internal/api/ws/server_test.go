package wsapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-lookup/internal/store"
	"github.com/i474232898/weather-lookup/internal/weather"
)

type fakeRunner struct{}

func (fakeRunner) RunByName(_ context.Context, city string) (weather.Report, error) {
	if city == "Xyzzyville" {
		return weather.Report{}, weather.ErrLocationNotFound
	}
	return weather.Report{
		Current: weather.CurrentSnapshot{
			Place:          weather.Place{Name: city, CountryCode: "PT"},
			Classification: weather.Classify(0, true),
		},
	}, nil
}

func (fakeRunner) RunByCoords(context.Context, float64, float64) (weather.Report, error) {
	return weather.Report{Current: weather.CurrentSnapshot{Place: weather.Place{Name: weather.PlaceholderName}}}, nil
}

// slowRunner reports a resolving stage, then takes delay to answer unless
// its run is cancelled first.
type slowRunner struct {
	delay time.Duration
}

func (r slowRunner) RunByName(ctx context.Context, city string) (weather.Report, error) {
	obs := weather.ObserverFrom(ctx)
	if obs != nil {
		obs(city, weather.StateResolvingLocation, nil)
	}
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		if obs != nil {
			obs(city, weather.StateFailed, ctx.Err())
		}
		return weather.Report{}, ctx.Err()
	}
	if obs != nil {
		obs(city, weather.StateDone, nil)
	}
	return fakeRunner{}.RunByName(ctx, city)
}

func (r slowRunner) RunByCoords(ctx context.Context, lat, lon float64) (weather.Report, error) {
	return fakeRunner{}.RunByCoords(ctx, lat, lon)
}

type fakeSuggester struct{}

func (fakeSuggester) Suggest(_ context.Context, q string) ([]weather.Place, error) {
	return []weather.Place{{Name: q + "ton", Country: "United Kingdom", CountryCode: "GB"}}, nil
}

type received struct {
	Type        string `json:"type"`
	Generation  uint64 `json:"generation"`
	Query       string `json:"query"`
	Suggestions []struct {
		Name  string `json:"name"`
		Label string `json:"label"`
	} `json:"suggestions"`
	Recent  []string        `json:"recent"`
	RunID   string          `json:"runId"`
	State   string          `json:"state"`
	Report  *weather.Report `json:"report"`
	Message string          `json:"message"`
}

func dial(t *testing.T, opts Options) net.Conn {
	t.Helper()
	srv := NewServer(opts)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, _, err := ws.Dial(ctx, "ws://"+strings.TrimPrefix(ts.URL, "http://")+"/ws")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendMsg(t *testing.T, conn net.Conn, msg string) {
	t.Helper()
	require.NoError(t, wsutil.WriteClientMessage(conn, ws.OpText, []byte(msg)))
}

// readUntil reads server messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn net.Conn, typ string) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		data, _, err := wsutil.ReadServerData(conn)
		require.NoError(t, err)

		var msg received
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == typ {
			return msg
		}
	}
}

func testOptions() Options {
	recent := store.NewMemoryStore(store.DefaultCapacity)
	_ = recent.RecordSearch(context.Background(), "Paris")
	return Options{
		Runner:    fakeRunner{},
		Suggester: fakeSuggester{},
		Recent:    recent,
		Debounce:  10 * time.Millisecond,
	}
}

func TestSearchStreamsReport(t *testing.T) {
	conn := dial(t, testOptions())

	sendMsg(t, conn, `{"type":"search","city":"Lisbon"}`)
	msg := readUntil(t, conn, msgReport)
	require.NotNil(t, msg.Report)
	assert.Equal(t, "Lisbon", msg.Report.Current.Place.Name)
}

func TestSearchErrorMessage(t *testing.T) {
	conn := dial(t, testOptions())

	sendMsg(t, conn, `{"type":"search","city":"Xyzzyville"}`)
	msg := readUntil(t, conn, msgError)
	assert.Equal(t, "City not found. Please check the spelling and try again.", msg.Message)
}

func TestLocate(t *testing.T) {
	conn := dial(t, testOptions())

	sendMsg(t, conn, `{"type":"locate","error":"permission denied"}`)
	msg := readUntil(t, conn, msgError)
	assert.Equal(t, "Unable to get your location. Please allow location access or search manually.", msg.Message)

	sendMsg(t, conn, `{"type":"locate","lat":38.7,"lon":-9.1}`)
	msg = readUntil(t, conn, msgReport)
	assert.Equal(t, weather.PlaceholderName, msg.Report.Current.Place.Name)
}

func TestLocateUnsupported(t *testing.T) {
	conn := dial(t, testOptions())

	sendMsg(t, conn, `{"type":"locate","error":"unsupported"}`)
	msg := readUntil(t, conn, msgError)
	assert.Equal(t, "Geolocation is not supported by your browser.", msg.Message)
}

func TestBackToBackSearchesDeliverLatest(t *testing.T) {
	opts := testOptions()
	opts.Runner = slowRunner{delay: 20 * time.Millisecond}
	conn := dial(t, opts)

	for round := 0; round < 50; round++ {
		sendMsg(t, conn, `{"type":"search","city":"Old"}`)
		sendMsg(t, conn, `{"type":"search","city":"New"}`)

		msg := readUntil(t, conn, msgReport)
		require.NotNil(t, msg.Report)
		require.Equal(t, "New", msg.Report.Current.Place.Name, "round %d", round)
	}
}

func TestSupersededRunStagesAreDropped(t *testing.T) {
	opts := testOptions()
	opts.Runner = slowRunner{delay: 200 * time.Millisecond}
	conn := dial(t, opts)

	sendMsg(t, conn, `{"type":"search","city":"Old"}`)
	first := readUntil(t, conn, msgStage)
	assert.Equal(t, "Old", first.RunID)

	sendMsg(t, conn, `{"type":"search","city":"New"}`)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		data, _, err := wsutil.ReadServerData(conn)
		require.NoError(t, err)
		var msg received
		require.NoError(t, json.Unmarshal(data, &msg))

		if msg.Type == msgStage {
			assert.Equal(t, "New", msg.RunID, "stage %s", msg.State)
		}
		if msg.Type == msgReport {
			assert.Equal(t, "New", msg.Report.Current.Place.Name)
			return
		}
	}
}

func TestQuerySuggestions(t *testing.T) {
	conn := dial(t, testOptions())

	sendMsg(t, conn, `{"type":"query","query":"Bright"}`)
	msg := readUntil(t, conn, msgSuggestions)
	assert.Equal(t, "Bright", msg.Query)
	require.Len(t, msg.Suggestions, 1)
	assert.Equal(t, "Brightton, United Kingdom", msg.Suggestions[0].Label)

	sendMsg(t, conn, `{"type":"query","query":""}`)
	msg = readUntil(t, conn, msgRecent)
	assert.Equal(t, []string{"Paris"}, msg.Recent)
}

func TestUnknownMessage(t *testing.T) {
	conn := dial(t, testOptions())

	sendMsg(t, conn, `{"type":"dance"}`)
	msg := readUntil(t, conn, msgError)
	assert.Equal(t, "unknown message type", msg.Message)
}

func TestHealth(t *testing.T) {
	ts := httptest.NewServer(NewServer(testOptions()).Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
