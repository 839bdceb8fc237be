package http

import (
	"errors"
	"net/http"

	"github.com/d0ngw/daystat/statistic"
	"github.com/d0ngw/daystat/stats"
)

// 不作为统计字段的请求参数
const (
	paramStat      = "stat"
	paramVerbosity = "verbosity"
)

// StatsController 统计的查询、计数和迁移接口
type StatsController struct {
	BaseController
	Registry *statistic.Registry
}

// NewStatsController 创建路径为path的StatsController
func NewStatsController(path string, registry *statistic.Registry) *StatsController {
	return &StatsController{
		BaseController: BaseController{
			Name: "stats",
			Path: path,
			Methods: map[string]string{
				"names":   http.MethodGet,
				"views":   http.MethodGet,
				"total":   http.MethodGet,
				"update":  http.MethodPost,
				"migrate": http.MethodPost,
			},
		},
		Registry: registry,
	}
}

// GetHandlers implements Controller.GetHandlers
func (p *StatsController) GetHandlers() (map[string]http.HandlerFunc, error) {
	return ReflectHandlers(p)
}

func requestFields(r *http.Request) stats.Fields {
	fields := stats.Fields{}
	for name := range r.Form {
		if name == paramStat || name == paramVerbosity {
			continue
		}
		if v := GetParameter(r.Form, name); v != "" {
			fields[name] = v
		}
	}
	return fields
}

func (p *StatsController) lookup(w http.ResponseWriter, r *http.Request) (*stats.PerDayStatistic, bool) {
	if err := r.ParseForm(); err != nil {
		RenderError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	name := GetParameter(r.Form, paramStat)
	if name == "" {
		RenderError(w, http.StatusBadRequest, "missing stat")
		return nil, false
	}
	s, err := p.Registry.Get(name)
	if err != nil {
		RenderError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return s, true
}

// Names 所有统计的名称
func (p *StatsController) Names(w http.ResponseWriter, r *http.Request) {
	RenderData(w, p.Registry.Names())
}

// Views 最近一周、一月、一年的统计
func (p *StatsController) Views(w http.ResponseWriter, r *http.Request) {
	s, ok := p.lookup(w, r)
	if !ok {
		return
	}
	views, err := s.GetViews(r.Context(), requestFields(r))
	if err != nil {
		RenderError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RenderData(w, views)
}

// Update 计数加1
func (p *StatsController) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := p.lookup(w, r)
	if !ok {
		return
	}
	fields := requestFields(r)
	if _, _, err := fields.Date(); err != nil {
		RenderError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.Update(r.Context(), fields); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, stats.ErrReservedKey) {
			status = http.StatusBadRequest
		}
		RenderError(w, status, err.Error())
		return
	}
	RenderData(w, nil)
}

// totalResp 累计计数和待迁移的key数
type totalResp struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
}

// Total 累计计数和待迁移的key数
func (p *StatsController) Total(w http.ResponseWriter, r *http.Request) {
	s, ok := p.lookup(w, r)
	if !ok {
		return
	}
	total, err := s.Total(r.Context())
	if err != nil {
		RenderError(w, http.StatusInternalServerError, err.Error())
		return
	}
	pending, err := s.Pending(r.Context())
	if err != nil {
		RenderError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RenderData(w, &totalResp{Total: total, Pending: pending})
}

type migrateParams struct {
	Stat      string
	Verbosity int
}

// Migrate 迁移一个统计,stat为空时迁移所有的统计
func (p *StatsController) Migrate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		RenderError(w, http.StatusBadRequest, err.Error())
		return
	}
	params := &migrateParams{}
	if err := ParseParams(r.Form, params); err != nil {
		RenderError(w, http.StatusBadRequest, err.Error())
		return
	}

	names := p.Registry.Names()
	if params.Stat != "" {
		if _, err := p.Registry.Get(params.Stat); err != nil {
			RenderError(w, http.StatusNotFound, err.Error())
			return
		}
		names = []string{params.Stat}
	}

	migrated := map[string]int64{}
	for _, name := range names {
		s, _ := p.Registry.Get(name)
		count, err := s.Migrate(r.Context(), params.Verbosity)
		if errors.Is(err, stats.ErrMigrationLocked) {
			RenderError(w, http.StatusConflict, name+": "+err.Error())
			return
		}
		if err != nil {
			RenderError(w, http.StatusInternalServerError, name+": "+err.Error())
			return
		}
		migrated[name] = count
	}
	RenderData(w, migrated)
}
