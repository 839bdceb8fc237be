package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockController struct {
	BaseController
}

func (p *mockController) Index(w http.ResponseWriter, r *http.Request) {
	RenderText(w, fmt.Sprintf("method:%s,id:%s", r.Method, r.FormValue("id")))
}

func (p *mockController) Panic(w http.ResponseWriter, r *http.Request) {
	panic("boom")
}

func (p *mockController) GetHandlers() (map[string]http.HandlerFunc, error) {
	return ReflectHandlers(p)
}

func TestHttpServer(t *testing.T) {
	controller := &mockController{
		BaseController: BaseController{
			Name:    "mock",
			Path:    "/mock",
			Methods: map[string]string{"index": http.MethodGet},
		},
	}

	conf := NewConfig("127.0.0.1:0")
	conf.MaxConns = 4
	require.NoError(t, conf.RegMiddleware(Recover))
	require.NoError(t, conf.RegMiddleware(MiddlewareFunc(func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Middleware", "outer")
			next(w, r)
		}
	})))
	require.NoError(t, conf.RegMiddleware(AccessLog))
	require.NoError(t, conf.RegController(controller))
	assert.Error(t, conf.RegController(controller))
	assert.Error(t, conf.RegHandleFunc("/nil", nil))
	assert.Error(t, conf.RegMiddleware(nil))

	svc := NewService(conf)
	require.NoError(t, svc.Init())
	assert.Nil(t, svc.ListenAddr())
	require.True(t, svc.Start())
	defer svc.Stop()

	base := "http://" + svc.ListenAddr().String()
	client := &http.Client{}
	ret, err := GetURL(client, base+"/mock/index?id=1", nil)
	assert.NoError(t, err)
	assert.Equal(t, "method:GET,id:1", ret)

	resp, err := client.Get(base + "/mock/index")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "outer", resp.Header.Get("X-Middleware"))

	resp, err = client.Post(base+"/mock/index", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	_, err = GetURL(client, base+"/mock/panic", nil)
	assert.Error(t, err)

	_, err = GetURL(client, base+"/none", nil)
	assert.Error(t, err)

	assert.True(t, svc.Stop())
	_, err = GetURL(client, base+"/mock/index", nil)
	assert.Error(t, err)
}

func TestConfigParse(t *testing.T) {
	conf := &Config{}
	assert.NoError(t, conf.Parse())
	assert.Equal(t, ":8080", conf.Addr)
	assert.NoError(t, conf.RegHandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {}))

	conf = &Config{MaxConns: -1}
	assert.Error(t, conf.Parse())

	svc := NewService(nil)
	assert.Error(t, svc.Init())
	assert.False(t, svc.Start())
}
