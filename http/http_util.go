package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	c "github.com/d0ngw/daystat/common"
	jsoniter "github.com/json-iterator/go"
)

// Resp JSON Http响应
type Resp struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Msg     string      `json:"msg,omitempty"`
}

var (
	errNoParam = errors.New("missing param")
	json       = jsoniter.ConfigCompatibleWithStandardLibrary
)

// GetParameter 取得由name指定的参数值
func GetParameter(r url.Values, name string) string {
	return strings.TrimSpace(r.Get(name))
}

// GetInt64Parameter 取得由name指定的64位整数参数值
func GetInt64Parameter(r url.Values, name string) (int64, error) {
	value := GetParameter(r, name)
	if value == "" {
		return 0, errNoParam
	}
	return strconv.ParseInt(value, 10, 64)
}

// RenderJSON 渲染JSON
func RenderJSON(w http.ResponseWriter, status int, jsonData interface{}) {
	data, err := json.Marshal(jsonData)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err = w.Write(data); err != nil {
		c.Warnf("write response fail,err:%v", err)
	}
}

// RenderData 渲染成功的响应
func RenderData(w http.ResponseWriter, data interface{}) {
	RenderJSON(w, http.StatusOK, &Resp{Success: true, Data: data})
}

// RenderError 渲染失败的响应
func RenderError(w http.ResponseWriter, status int, msg string) {
	RenderJSON(w, status, &Resp{Success: false, Msg: msg})
}

// RenderText 渲染Text
func RenderText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, text); err != nil {
		c.Warnf("write response fail,err:%v", err)
	}
}

// GetURL 请求URL,返回去掉首尾空白的响应体
func GetURL(client *http.Client, rawURL string, params url.Values) (string, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}
	resp, err := client.Get(rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status:%d,body:%s", resp.StatusCode, body)
	}
	return strings.TrimSpace(string(body)), nil
}

// ParseParams 从r中解析参数并填充到dest中,dest应该是struct指针
// 参数名取自pname tag,没有时使用字段名的下划线形式,"_"表示忽略
func ParseParams(r url.Values, dest interface{}) error {
	if r == nil || dest == nil {
		return fmt.Errorf("invalid args")
	}

	val, ind, typ := c.ExtractRefTuple(dest)
	if val.Kind() != reflect.Ptr {
		return fmt.Errorf("expect ptr,but it's %s", val.Kind())
	}
	if typ.Kind() != reflect.Struct {
		return fmt.Errorf("expect struct,but it's %s", typ.Kind())
	}

	for i := 0; i < ind.NumField(); i++ {
		field := typ.Field(i)
		paramName := field.Tag.Get("pname")
		if paramName == "" {
			paramName = ToUnderlineName(field.Name)
		}
		if paramName == "_" || !field.IsExported() {
			continue
		}
		value := GetParameter(r, paramName)
		if value == "" {
			continue
		}

		fieldVal := ind.Field(i)
		switch field.Type.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			v, err := strconv.ParseInt(value, 10, field.Type.Bits())
			if err != nil {
				return fmt.Errorf("invalid param %s:%w", paramName, err)
			}
			fieldVal.SetInt(v)
		case reflect.String:
			fieldVal.SetString(value)
		case reflect.Bool:
			v := strings.ToLower(value)
			fieldVal.SetBool(v == "1" || v == "y" || v == "true")
		default:
			return fmt.Errorf("unsupported field type %s", field.Type.Kind())
		}
	}
	return nil
}
