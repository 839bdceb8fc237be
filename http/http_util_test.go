package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type params struct {
	ID        int64
	Name      string
	Verbosity int `pname:"v"`
	Ok        bool
	Skip      string `pname:"_"`
	PageSize  int32
}

func TestParseParams(t *testing.T) {
	form := url.Values{}
	form.Set("id", "10")
	form.Set("name", " golang ")
	form.Set("v", "2")
	form.Set("ok", "true")
	form.Set("skip", "x")
	form.Set("page_size", "5")

	p := &params{}
	require.NoError(t, ParseParams(form, p))
	assert.Equal(t, &params{ID: 10, Name: "golang", Verbosity: 2, Ok: true, PageSize: 5}, p)

	form.Set("id", "abc")
	assert.Error(t, ParseParams(form, &params{}))
	assert.Error(t, ParseParams(form, params{}))
	assert.Error(t, ParseParams(nil, &params{}))
}

func TestGetInt64Parameter(t *testing.T) {
	form := url.Values{"id": {" 12 "}, "bad": {"x"}}
	id, err := GetInt64Parameter(form, "id")
	assert.NoError(t, err)
	assert.EqualValues(t, 12, id)
	_, err = GetInt64Parameter(form, "none")
	assert.Equal(t, errNoParam, err)
	_, err = GetInt64Parameter(form, "bad")
	assert.Error(t, err)
}

func TestRenderJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RenderData(w, map[string]int{"week": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"data":{"week":1}}`, w.Body.String())

	w = httptest.NewRecorder()
	RenderError(w, http.StatusNotFound, "unknown <stat>")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"msg":"unknown <stat>"}`, w.Body.String())
}
