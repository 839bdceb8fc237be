package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	c "github.com/d0ngw/daystat/common"
	"github.com/d0ngw/daystat/orm"
	"github.com/d0ngw/daystat/statistic"
	"github.com/d0ngw/daystat/stats"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statsResp struct {
	Success bool                `json:"success"`
	Data    jsoniter.RawMessage `json:"data"`
	Msg     string              `json:"msg"`
}

func newStatsHandler(t *testing.T) (http.Handler, *stats.PerDayStatistic) {
	config := &orm.DBConfig{Driver: orm.DriverSQLite, URL: filepath.Join(t.TempDir(), "http.db")}
	require.NoError(t, config.Parse())
	db := orm.NewSimpleDBService(config, nil)
	require.NoError(t, db.Init())
	t.Cleanup(func() { db.Stop() })
	require.NoError(t, statistic.InitSchema(context.Background(), db.Pool()))

	store := stats.NewMemoryStore()
	vv, err := statistic.NewVideoViews(store, "vv", db)
	require.NoError(t, err)
	sf, err := statistic.NewSubtitleFetches(store, "sf", db)
	require.NoError(t, err)
	registry, err := statistic.NewRegistry(vv, sf)
	require.NoError(t, err)

	conf := NewConfig("127.0.0.1:0")
	require.NoError(t, conf.RegMiddleware(Recover))
	require.NoError(t, conf.RegController(NewStatsController("/stats", registry)))
	svc := NewService(conf)
	require.NoError(t, svc.Init())
	return svc.Handler(), vv
}

func doRequest(t *testing.T, handler http.Handler, method, path string, form url.Values) (int, *statsResp) {
	var req *http.Request
	if method == http.MethodGet {
		req = httptest.NewRequest(method, path+"?"+form.Encode(), nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code == http.StatusMethodNotAllowed {
		return w.Code, nil
	}
	resp := &statsResp{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), resp), w.Body.String())
	return w.Code, resp
}

func TestStatsController(t *testing.T) {
	handler, vv := newStatsHandler(t)
	update := url.Values{"stat": {statistic.VideoViewsName}, "video": {"1"}}

	for i := 0; i < 3; i++ {
		code, resp := doRequest(t, handler, http.MethodPost, "/stats/update", update)
		require.Equal(t, http.StatusOK, code, resp.Msg)
		assert.True(t, resp.Success)
	}
	old := url.Values{"stat": {statistic.VideoViewsName}, "video": {"1"}, "date": {stats.DateFormat(c.AddDays(vv.Today(), -10))}}
	code, _ := doRequest(t, handler, http.MethodPost, "/stats/update", old)
	require.Equal(t, http.StatusOK, code)

	code, resp := doRequest(t, handler, http.MethodGet, "/stats/total", url.Values{"stat": {statistic.VideoViewsName}})
	require.Equal(t, http.StatusOK, code)
	total := &totalResp{}
	require.NoError(t, json.Unmarshal(resp.Data, total))
	assert.Equal(t, &totalResp{Total: 4, Pending: 2}, total)

	views := &stats.Views{}
	code, resp = doRequest(t, handler, http.MethodGet, "/stats/views", url.Values{"stat": {statistic.VideoViewsName}, "video": {"1"}})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, views))
	assert.Equal(t, &stats.Views{}, views)

	code, resp = doRequest(t, handler, http.MethodPost, "/stats/migrate", url.Values{"stat": {statistic.VideoViewsName}, "verbosity": {"1"}})
	require.Equal(t, http.StatusOK, code, resp.Msg)
	migrated := map[string]int64{}
	require.NoError(t, json.Unmarshal(resp.Data, &migrated))
	assert.Equal(t, map[string]int64{statistic.VideoViewsName: 2}, migrated)

	code, resp = doRequest(t, handler, http.MethodGet, "/stats/views", url.Values{"stat": {statistic.VideoViewsName}, "video": {"1"}})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, views))
	assert.Equal(t, &stats.Views{Week: 3, Month: 4, Year: 4}, views)

	code, resp = doRequest(t, handler, http.MethodPost, "/stats/migrate", url.Values{})
	require.Equal(t, http.StatusOK, code)
	migrated = map[string]int64{}
	require.NoError(t, json.Unmarshal(resp.Data, &migrated))
	assert.Equal(t, map[string]int64{statistic.SubtitleFetchesName: 0, statistic.VideoViewsName: 0}, migrated)

	code, resp = doRequest(t, handler, http.MethodGet, "/stats/names", url.Values{})
	require.Equal(t, http.StatusOK, code)
	var names []string
	require.NoError(t, json.Unmarshal(resp.Data, &names))
	assert.Equal(t, []string{statistic.SubtitleFetchesName, statistic.VideoViewsName}, names)
}

func TestStatsControllerBadRequest(t *testing.T) {
	handler, _ := newStatsHandler(t)

	code, resp := doRequest(t, handler, http.MethodGet, "/stats/views", url.Values{"video": {"1"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)

	code, _ = doRequest(t, handler, http.MethodGet, "/stats/views", url.Values{"stat": {"none"}})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = doRequest(t, handler, http.MethodPost, "/stats/migrate", url.Values{"stat": {"none"}})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = doRequest(t, handler, http.MethodPost, "/stats/migrate", url.Values{"verbosity": {"x"}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doRequest(t, handler, http.MethodPost, "/stats/update", url.Values{"stat": {statistic.VideoViewsName}, "video": {"1"}, "date": {"2024-13-1"}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doRequest(t, handler, http.MethodGet, "/stats/update", url.Values{"stat": {statistic.VideoViewsName}})
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}
