package fflogs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"text/template"
	"time"

	"ffxiv_damage/cache"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const summaryResponse = `{"data":{"reportData":{"report":{
	"title":"Savage prog",
	"fights":[{"id":5,"name":"Vamp Fatale","encounterID":101,"kill":true,"startTime":1000,"endTime":61000}],
	"playerDetails":{"data":{"playerDetails":{
		"tanks":[{"name":"Tank One","id":1,"type":"Paladin","icon":"Paladin"}],
		"healers":[{"name":"Healer One","id":3,"type":"WhiteMage","icon":"WhiteMage"}],
		"dps":[{"name":"Dps One","id":5,"type":"Ninja","icon":"Ninja"}]
	}}},
	"buffTable":{"data":{"auras":[{"name":"Vulnerability Up","guid":1000202,"type":1}]}},
	"startingEvent":{"data":[{"timestamp":1000,"type":"combatantinfo"},{"timestamp":1500,"type":"limitbreakupdate","value":0}]}
}}}}`

var reStartTime = regexp.MustCompile(`startTime: (\d+)`)

type fakeAPI struct {
	t *testing.T

	tokenCalls int32
	apiCalls   int32
	failFirst  int32
	status     int

	server *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{t: t}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "id", r.PostForm.Get("client_id"))
		fmt.Fprint(w, `{"access_token":"oauth-token","expires_in":3600}`)
	})
	mux.HandleFunc("/api/v2/client", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&f.apiCalls, 1)
		if n <= atomic.LoadInt32(&f.failFirst) {
			w.WriteHeader(f.status)
			return
		}

		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))

		var body struct {
			Query string `json:"query"`
		}
		require.NoError(t, jsoniter.NewDecoder(r.Body).Decode(&body))

		switch {
		case strings.Contains(body.Query, `"missing"`):
			fmt.Fprint(w, `{"data":{"reportData":{"report":null}}}`)

		case strings.Contains(body.Query, "buffTable"):
			assert.Contains(t, body.Query, `report(code: "abcd1234")`)
			assert.Contains(t, body.Query, "fightIDs: [5]")
			fmt.Fprint(w, summaryResponse)

		case strings.Contains(body.Query, "DamageTaken"):
			m := reStartTime.FindStringSubmatch(body.Query)
			require.Len(t, m, 2)
			switch m[1] {
			case "1000":
				fmt.Fprint(w, `{"data":{"reportData":{"report":{"events":{"data":[
					{"timestamp":3000,"type":"damage","targetID":1,"packetID":7,"unmitigatedAmount":100,"ability":{"name":"B","guid":2,"type":1024}},
					{"timestamp":2000,"type":"damage","targetID":3,"packetID":6,"unmitigatedAmount":50,"buffs":"1000202.","ability":{"name":"A","guid":1,"type":128}}
				],"nextPageTimestamp":4000}}}}}`)
			case "4000":
				fmt.Fprint(w, `{"data":{"reportData":{"report":{"events":{"data":[
					{"timestamp":4000,"type":"damage","targetID":5,"packetID":8,"ability":{"name":"C","guid":3,"type":128}}
				],"nextPageTimestamp":null}}}}}`)
			default:
				t.Errorf("unexpected startTime %s", m[1])
			}

		default:
			fmt.Fprint(w, `{"data":null,"errors":[{"message":"You do not have permission to view this report."}]}`)
		}
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) client(t *testing.T, opt Options) *Client {
	opt.Endpoint = f.server.URL + "/api/v2/client"
	opt.TokenURL = f.server.URL + "/oauth/token"
	opt.HTTPClient = f.server.Client()
	if opt.RetryDelay == 0 {
		opt.RetryDelay = 10 * time.Millisecond
	}

	c, err := New(opt)
	require.NoError(t, err)
	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{ClientID: "id"})
	assert.Error(t, err)

	_, err = New(Options{Token: "t"})
	assert.NoError(t, err)
}

func TestFetchFight(t *testing.T) {
	api := newFakeAPI(t)
	c := api.client(t, Options{Token: "static"})

	var steps []string
	fd, err := c.FetchFight(context.Background(), "abcd1234", 5, func(s string) { steps = append(steps, s) })
	require.NoError(t, err)

	assert.Equal(t, "Savage prog", fd.Title)
	assert.Equal(t, "Vamp Fatale", fd.Fight.Name)
	assert.Equal(t, int64(60000), fd.Fight.Duration())
	require.Len(t, fd.Players, 3)
	assert.Equal(t, "Paladin", fd.Players[0].Icon)
	require.Len(t, fd.Debuffs, 1)
	assert.Equal(t, 1000202, fd.Debuffs[0].GUID)
	require.Len(t, fd.StartingEvents, 2)
	assert.Equal(t, "limitbreakupdate", fd.StartingEvents[1].Type)

	require.Len(t, fd.Events, 3)
	assert.Equal(t, []int64{2000, 3000, 4000}, []int64{fd.Events[0].Timestamp, fd.Events[1].Timestamp, fd.Events[2].Timestamp})
	assert.Equal(t, "A", fd.Events[0].Ability.Name)
	assert.Equal(t, "1000202.", fd.Events[0].Buffs)
	assert.Nil(t, fd.Events[2].UnmitigatedAmount)

	assert.Equal(t, int32(3), atomic.LoadInt32(&api.apiCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&api.tokenCalls))
	assert.Len(t, steps, 3)
}

func TestFetchFightUsesOAuthToken(t *testing.T) {
	api := newFakeAPI(t)
	c := api.client(t, Options{ClientID: "id", ClientSecret: "secret"})

	_, err := c.FetchFight(context.Background(), "abcd1234", 5, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&api.tokenCalls), "token is reused until it expires")
}

func TestFetchFightCached(t *testing.T) {
	api := newFakeAPI(t)

	storage, err := cache.NewStorage(t.TempDir(), 0, Queries())
	require.NoError(t, err)
	c := api.client(t, Options{Token: "static", Cache: storage})

	first, err := c.FetchFight(context.Background(), "abcd1234", 5, nil)
	require.NoError(t, err)
	second, err := c.FetchFight(context.Background(), "abcd1234", 5, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(3), atomic.LoadInt32(&api.apiCalls))
}

func TestFetchFightNotFound(t *testing.T) {
	api := newFakeAPI(t)
	c := api.client(t, Options{Token: "static"})

	_, err := c.FetchFight(context.Background(), "missing", 5, nil)
	assert.EqualError(t, err, "report missing not found")

	_, err = c.FetchFight(context.Background(), "abcd1234", 9, nil)
	assert.EqualError(t, err, "fight 9 not found in report abcd1234")
}

func TestCallGraphQLRetries(t *testing.T) {
	api := newFakeAPI(t)
	api.failFirst = 2
	api.status = http.StatusBadGateway
	c := api.client(t, Options{Token: "static"})

	var resp respFightSummary
	err := c.CallGraphQL(context.Background(), tmplFightSummary, map[string]interface{}{"ReportID": "abcd1234", "FightID": 5, "Limit": 50}, &resp)
	require.NoError(t, err)
	require.NotNil(t, resp.ReportData.Report)
	assert.Equal(t, int32(3), atomic.LoadInt32(&api.apiCalls))
}

func TestCallGraphQLRetryDelay(t *testing.T) {
	c, err := New(Options{Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, DefaultRetryDelay, c.retryDelay)

	var (
		mu    sync.Mutex
		calls []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	const delay = 50 * time.Millisecond
	c, err = New(Options{Endpoint: srv.URL, Token: "t", HTTPClient: srv.Client(), RetryDelay: delay})
	require.NoError(t, err)

	var resp respFightSummary
	err = c.CallGraphQL(context.Background(), tmplFightSummary, map[string]interface{}{"ReportID": "abcd1234", "FightID": 5, "Limit": 50}, &resp)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, maxRetries)
	for i := 1; i < len(calls); i++ {
		assert.GreaterOrEqual(t, calls[i].Sub(calls[i-1]), delay, "gap before attempt %d", i+1)
	}
}

func TestCallGraphQLGivesUp(t *testing.T) {
	api := newFakeAPI(t)
	api.failFirst = 10
	api.status = http.StatusBadRequest
	c := api.client(t, Options{Token: "static"})

	var resp respFightSummary
	err := c.CallGraphQL(context.Background(), tmplFightSummary, map[string]interface{}{"ReportID": "abcd1234", "FightID": 5, "Limit": 50}, &resp)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.apiCalls), "client errors are not retried")
}

func TestCallGraphQLErrors(t *testing.T) {
	api := newFakeAPI(t)
	c := api.client(t, Options{Token: "static"})

	tmpl := template.Must(template.New("RateLimit").Parse(`{ rateLimitData { limitPerHour } }`))

	var resp struct{}
	err := c.CallGraphQL(context.Background(), tmpl, nil, &resp)

	var ge GraphQLErrors
	require.ErrorAs(t, err, &ge)
	assert.Contains(t, err.Error(), "permission")
}

func TestUnauthorizedResetsToken(t *testing.T) {
	api := newFakeAPI(t)
	api.failFirst = 1
	api.status = http.StatusUnauthorized
	c := api.client(t, Options{ClientID: "id", ClientSecret: "secret"})

	_, err := c.FetchFight(context.Background(), "abcd1234", 5, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&api.tokenCalls))
}
