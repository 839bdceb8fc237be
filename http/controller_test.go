package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type demoController struct {
	BaseController
}

func (p *demoController) Index(w http.ResponseWriter, r *http.Request) {
	RenderText(w, "index:"+p.Name)
}

func (p *demoController) GetUser(w http.ResponseWriter, r *http.Request) {
	RenderText(w, "user:"+p.Name)
}

func (p *demoController) GetHandlers() (map[string]http.HandlerFunc, error) {
	return ReflectHandlers(p)
}

func TestReflectHandlers(t *testing.T) {
	for _, name := range []string{"demo1", "demo2"} {
		controller := &demoController{BaseController: BaseController{Name: name, Path: "/" + name}}
		mapping, err := controller.GetHandlers()
		require.NoError(t, err)
		assert.Len(t, mapping, 2)

		w := httptest.NewRecorder()
		mapping["get_user"](w, nil)
		assert.Equal(t, "user:"+name, w.Body.String())
		w = httptest.NewRecorder()
		mapping["index"](w, nil)
		assert.Equal(t, "index:"+name, w.Body.String())
	}

	_, err := ReflectHandlers((*demoController)(nil))
	assert.Error(t, err)
}

func TestToUnderlineName(t *testing.T) {
	assert.EqualValues(t, "index", ToUnderlineName("index"))
	assert.EqualValues(t, "index", ToUnderlineName("INDEX"))
	assert.EqualValues(t, "index", ToUnderlineName("Index"))
	assert.EqualValues(t, "in_dex", ToUnderlineName("InDex"))
	assert.EqualValues(t, "in_dex", ToUnderlineName("InDEX"))
	assert.EqualValues(t, "in_de_x", ToUnderlineName("InDeX"))
	assert.EqualValues(t, "get_views", ToUnderlineName("GetViews"))
	assert.EqualValues(t, "in语言de_x", ToUnderlineName("In语言DeX"))
	assert.EqualValues(t, "", ToUnderlineName(""))
}
