package statistic

import (
	"context"
	"fmt"
	"strconv"
	"time"

	c "github.com/d0ngw/daystat/common"
	"github.com/d0ngw/daystat/orm"
	"github.com/d0ngw/daystat/stats"
)

// 统计使用的字段
const (
	FieldVideo    = "video"
	FieldLanguage = "language"
)

// VideoViewsName 视频播放统计的名称
const VideoViewsName = "video_views"

// VideoView 视频每天的播放数
type VideoView struct {
	orm.AutoID
	VideoID int64 `column:"video_id" json:"video_id"`
	stats.DayCount
}

// TableName implements orm.Entity
func (p *VideoView) TableName() string {
	return "video_view_stats"
}

func init() {
	orm.AddMeta(&VideoView{})
	orm.AddMeta(&SubtitleFetch{})
}

func videoID(fields stats.Fields) (int64, bool) {
	id, ok := fields.Int64(FieldVideo)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// VideoViewsPolicy 按视频和日期统计
func VideoViewsPolicy(prefix string, ops orm.OpCreator) *stats.Policy {
	return &stats.Policy{
		Key: func(date time.Time, fields stats.Fields) (string, bool, error) {
			id, ok := videoID(fields)
			if !ok {
				return "", false, nil
			}
			return stats.JoinKey(prefix, strconv.FormatInt(id, 10), stats.DateFormat(date)), true, nil
		},
		Record: func(ctx context.Context, key string) (stats.Record, error) {
			parts, err := stats.SplitKey(key, 3)
			if err != nil {
				c.Warnf("invalid video views key %s,err:%v", key, err)
				return nil, nil
			}
			id, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				c.Warnf("invalid video id in key %s", key)
				return nil, nil
			}
			date, err := stats.ParseDate(parts[2])
			if err != nil {
				c.Warnf("invalid date in key %s", key)
				return nil, nil
			}
			op, err := ops.NewOp()
			if err != nil {
				return nil, err
			}
			entities, err := orm.Query(op.WithContext(ctx), &VideoView{}, "WHERE video_id = ? AND date = ?", id, date)
			if err != nil {
				return nil, err
			}
			if len(entities) > 0 {
				return entities[0].(*VideoView), nil
			}
			return &VideoView{VideoID: id, DayCount: stats.DayCount{Date: date}}, nil
		},
		Query: func(fields stats.Fields) (stats.RecordSet, error) {
			id, ok := videoID(fields)
			if !ok {
				return nil, fmt.Errorf("invalid %s field", FieldVideo)
			}
			return stats.NewORMRecordSet(ops, &VideoView{}, "video_id = ?", id), nil
		},
	}
}

// NewVideoViews 创建视频播放统计
func NewVideoViews(store stats.Store, prefix string, ops orm.OpCreator, opts ...stats.Option) (*stats.PerDayStatistic, error) {
	if c.IsNil(ops) {
		return nil, fmt.Errorf("no db ops")
	}
	return stats.New(VideoViewsName, store, prefix, &VideoView{}, VideoViewsPolicy(prefix, ops), stats.NewORMSaver(ops), opts...)
}
