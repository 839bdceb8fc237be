package common

import (
	"time"
)

// LocalLocation 本地时区
var LocalLocation = time.Now().Local().Location()

// UnixMills 取得毫秒
func UnixMills(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

// TruncateDay 取得t所在日期的零点,保留t的时区
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays 在日期上增加days天,days可以为负
func AddDays(t time.Time, days int) time.Time {
	return TruncateDay(t).AddDate(0, 0, days)
}
