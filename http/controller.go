package http

import (
	"fmt"
	"net/http"
	"reflect"
	"unicode"
)

// Controller 一组http处理方法
type Controller interface {
	// GetName 控制器的名称
	GetName() string
	// GetPath 路径前缀,控制器下所有处理方法的路径都以此开头
	GetPath() string
	// GetHandlers 返回所有的处理方法,key为路径,value为处理方法
	GetHandlers() (map[string]http.HandlerFunc, error)
	// GetMethods 返回处理方法限定的http method,key为路径;没有限定的接受所有method
	GetMethods() map[string]string
}

// BaseController 提供Controller的名称、路径和method限定
type BaseController struct {
	Name    string            // Controller的名称
	Path    string            // Controller的路径
	Methods map[string]string // 路径 -> http method
}

// GetName implements Controller.GetName
func (p *BaseController) GetName() string {
	return p.Name
}

// GetPath implements Controller.GetPath
func (p *BaseController) GetPath() string {
	return p.Path
}

// GetMethods implements Controller.GetMethods
func (p *BaseController) GetMethods() map[string]string {
	return p.Methods
}

// ReflectHandlers 查找controller中签名为http.HandlerFunc的可导出方法,并将驼峰命名改为下划线分隔的路径
// 例如Index -> index,GetViews -> get_views
func ReflectHandlers(controller Controller) (map[string]http.HandlerFunc, error) {
	val := reflect.ValueOf(controller)
	if !val.IsValid() || val.Kind() != reflect.Ptr || val.IsNil() {
		return nil, fmt.Errorf("controller must be a valid pointer")
	}

	handlers := map[string]http.HandlerFunc{}
	typ := val.Type()
	for i := 0; i < val.NumMethod(); i++ {
		fn, ok := val.Method(i).Interface().(func(http.ResponseWriter, *http.Request))
		if !ok {
			continue
		}
		handlers[ToUnderlineName(typ.Method(i).Name)] = fn
	}
	return handlers, nil
}

// ToUnderlineName 将驼峰命名改为小写的下划线命名
func ToUnderlineName(camelName string) string {
	nameRune := []rune(camelName)
	normalizeName := make([]rune, 0, len(nameRune))

	for ni := 0; ni < len(nameRune); ni++ {
		if ni != 0 && unicode.IsUpper(nameRune[ni]) && unicode.IsLower(nameRune[ni-1]) {
			normalizeName = append(normalizeName, '_')
		}
		normalizeName = append(normalizeName, unicode.ToLower(nameRune[ni]))
	}
	return string(normalizeName)
}
