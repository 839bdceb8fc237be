package statistic

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	c "github.com/d0ngw/daystat/common"
	"github.com/d0ngw/daystat/orm"
	"github.com/d0ngw/daystat/stats"
)

// SubtitleFetchesName 字幕获取统计的名称
const SubtitleFetchesName = "subtitle_fetches"

// SubtitleFetch 视频每种语言的字幕每天被获取的次数
type SubtitleFetch struct {
	orm.AutoID
	VideoID  int64  `column:"video_id" json:"video_id"`
	Language string `column:"language" json:"language"`
	stats.DayCount
}

// TableName implements orm.Entity
func (p *SubtitleFetch) TableName() string {
	return "subtitle_fetch_stats"
}

func language(fields stats.Fields) string {
	return strings.TrimSpace(fields.String(FieldLanguage))
}

// SubtitleFetchesPolicy 按视频、语言和日期统计,没有语言时不统计
func SubtitleFetchesPolicy(prefix string, ops orm.OpCreator) *stats.Policy {
	return &stats.Policy{
		Key: func(date time.Time, fields stats.Fields) (string, bool, error) {
			id, ok := videoID(fields)
			lang := language(fields)
			if !ok || lang == "" {
				return "", false, nil
			}
			if strings.Contains(lang, ":") {
				return "", false, fmt.Errorf("invalid language %q", lang)
			}
			return stats.JoinKey(prefix, strconv.FormatInt(id, 10), lang, stats.DateFormat(date)), true, nil
		},
		Record: func(ctx context.Context, key string) (stats.Record, error) {
			parts, err := stats.SplitKey(key, 4)
			if err != nil {
				c.Warnf("invalid subtitle fetches key %s,err:%v", key, err)
				return nil, nil
			}
			id, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil || parts[2] == "" {
				c.Warnf("invalid video or language in key %s", key)
				return nil, nil
			}
			date, err := stats.ParseDate(parts[3])
			if err != nil {
				c.Warnf("invalid date in key %s", key)
				return nil, nil
			}
			op, err := ops.NewOp()
			if err != nil {
				return nil, err
			}
			entities, err := orm.Query(op.WithContext(ctx), &SubtitleFetch{}, "WHERE video_id = ? AND language = ? AND date = ?", id, parts[2], date)
			if err != nil {
				return nil, err
			}
			if len(entities) > 0 {
				return entities[0].(*SubtitleFetch), nil
			}
			return &SubtitleFetch{VideoID: id, Language: parts[2], DayCount: stats.DayCount{Date: date}}, nil
		},
		Query: func(fields stats.Fields) (stats.RecordSet, error) {
			id, ok := videoID(fields)
			if !ok {
				return nil, fmt.Errorf("invalid %s field", FieldVideo)
			}
			if lang := language(fields); lang != "" {
				return stats.NewORMRecordSet(ops, &SubtitleFetch{}, "video_id = ? AND language = ?", id, lang), nil
			}
			return stats.NewORMRecordSet(ops, &SubtitleFetch{}, "video_id = ?", id), nil
		},
	}
}

// NewSubtitleFetches 创建字幕获取统计
func NewSubtitleFetches(store stats.Store, prefix string, ops orm.OpCreator, opts ...stats.Option) (*stats.PerDayStatistic, error) {
	if c.IsNil(ops) {
		return nil, fmt.Errorf("no db ops")
	}
	return stats.New(SubtitleFetchesName, store, prefix, &SubtitleFetch{}, SubtitleFetchesPolicy(prefix, ops), stats.NewORMSaver(ops), opts...)
}
