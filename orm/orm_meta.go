// Package orm 简单的DAL 封装
package orm

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	c "github.com/d0ngw/daystat/common"
)

// Meta meta
type Meta interface {
	Name() string
	Type() reflect.Type
	Columns() []string
}

// AddMeta register entity meta
func AddMeta(entity Entity) Meta {
	m, err := defaultMetaReg.regModel(entity)
	if err != nil {
		panic(err)
	}
	return m
}

// MetaOf parse meta
func MetaOf(entity Entity) Meta {
	m, err := parseMeta(entity)
	if err != nil {
		panic(err)
	}
	return m
}

// HasMeta 实体是否已经注册
func HasMeta(entity Entity) bool {
	_, _, typ := extract(entity)
	return findMeta(typ) != nil
}

func findMeta(typ reflect.Type) *meta {
	defaultMetaReg.lock.RLock()
	defer defaultMetaReg.lock.RUnlock()
	return defaultMetaReg.cache[fullTypeName(typ)]
}

type metaReg struct {
	lock  sync.RWMutex
	cache map[string]*meta
}

var (
	defaultMetaReg = &metaReg{
		cache: make(map[string]*meta),
	}
)

type meta struct {
	name              string
	pkField           *metaField
	fields            []*metaField
	columnFields      map[string]*metaField
	modelType         reflect.Type
	insertFunc        entityInsertFunc
	updateFunc        entityUpdateFunc
	updateColumnsFunc entityUpdateColumnFunc
	entityQueryFunc   entityQueryFunc
	columnsQueryFunc  queryColumnsFunc
	getFunc           entityGetFunc
	delFunc           entityDeleteFunc
	delEFunc          entityDeleteByIDFunc
}

// Name implements Meta.Name
func (p *meta) Name() string {
	return p.name
}

// Type implements Meta.Type
func (p *meta) Type() reflect.Type {
	return p.modelType
}

// Columns implements Meta.Columns
func (p *meta) Columns() []string {
	columns := make([]string, 0, len(p.fields))
	for _, field := range p.fields {
		columns = append(columns, field.column)
	}
	return columns
}

type metaField struct {
	name        string              //struct中的字段名称
	column      string              //表列名
	pk          bool                //是否主键
	pkAuto      bool                //如果是主键,是否是自增的id
	index       []int               //索引
	structField reflect.StructField //StructField
}

func (f *metaField) String() string {
	return fmt.Sprintf("{name:%v,column:%v,pk:%v,pkAuto:%v}", f.name, f.column, f.pk, f.pkAuto)
}

func (reg *metaReg) clean() {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	reg.cache = make(map[string]*meta)
}

func (reg *metaReg) regModel(model Entity) (*meta, error) {
	if model == nil {
		return nil, NewDBError(nil, "invalid model")
	}
	m, err := parseMeta(model)
	if err != nil {
		return nil, err
	}

	reg.lock.Lock()
	defer reg.lock.Unlock()
	if _, exist := reg.cache[m.name]; exist {
		return nil, NewDBError(nil, "Duplicate model name:"+m.name)
	}
	reg.cache[m.name] = m
	return m, nil
}

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

func parseMeta(model Entity) (m *meta, err error) {
	if c.IsNil(model) {
		return nil, NewDBError(nil, "Invalid model")
	}

	val, ind, typ := extract(model)
	fullName := fullTypeName(typ)

	if val.Kind() != reflect.Ptr {
		return nil, NewDBErrorf(nil, "Expect ptr ,but it's %s,type:%s", val.Kind(), typ)
	}
	if ind.Kind() != reflect.Struct {
		return nil, NewDBErrorf(nil, "Expect struct ,but it's %s,type:%s", typ.Kind(), typ)
	}

	var pkField *metaField
	fields, err := parseFields(nil, typ, &pkField, make([]*metaField, 0, ind.NumField()))
	if err != nil {
		return nil, err
	}
	if pkField == nil {
		return nil, NewDBErrorf(nil, "Can't find pk column for %s", typ)
	}
	columnFields := map[string]*metaField{}
	for _, field := range fields {
		if _, ok := columnFields[field.column]; ok {
			return nil, NewDBErrorf(nil, "Duplicate column %s in %s", field.column, typ)
		}
		columnFields[field.column] = field
	}
	c.Debugf("Register Model:%s,fields:%s,pkFiled:%+v", fullName, fields, pkField)

	mInfo := &meta{name: fullName, modelType: typ, pkField: pkField, fields: fields, columnFields: columnFields}
	mInfo.insertFunc = createInsertFunc(mInfo)
	mInfo.updateFunc = createUpdateFunc(mInfo)
	mInfo.updateColumnsFunc = createUpdateColumnsFunc(mInfo)
	mInfo.entityQueryFunc = createQueryFunc(mInfo)
	mInfo.columnsQueryFunc = createQueryColumnsFunc(mInfo)
	mInfo.delFunc = createDelFunc(mInfo)
	mInfo.getFunc = createGetFunc(mInfo)
	mInfo.delEFunc = createDelByIDFunc(mInfo)
	return mInfo, nil
}

func parseFields(index []int, typ reflect.Type, pkField **metaField, fields []*metaField) ([]*metaField, error) {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}

		fieldIndex := make([]int, len(index)+1)
		copy(fieldIndex, index)
		fieldIndex[len(index)] = i

		tag := field.Tag
		column, exist := tag.Lookup("column")
		fieldType := field.Type
		if fieldType.Kind() == reflect.Struct && fieldType != timeType &&
			!(reflect.PtrTo(fieldType).Implements(scannerType) && fieldType.Implements(valuerType)) {
			if !field.Anonymous {
				if exist {
					return nil, NewDBErrorf(nil, "field %s is struct it must be anonymous", field.Name)
				}
				continue
			}
			var err error
			if fields, err = parseFields(fieldIndex, fieldType, pkField, fields); err != nil {
				return nil, err
			}
			continue
		}
		if !exist {
			continue
		}
		if len(column) == 0 {
			return nil, NewDBErrorf(nil, "Empty column tag for %s.%s", typ, field.Name)
		}
		if fieldType.Kind() == reflect.Ptr {
			return nil, NewDBErrorf(nil, "unsupported field type,%s is pointer", field.Name)
		}

		pk := strings.ToLower(tag.Get("pk"))
		pkAuto := strings.ToLower(tag.Get("pkAuto"))
		mField := &metaField{
			name:        field.Name,
			column:      column,
			pk:          pk == "y",
			pkAuto:      pk == "y" && !(pkAuto == "n"),
			index:       fieldIndex,
			structField: field}

		if mField.pk {
			if *pkField != nil {
				return nil, NewDBErrorf(nil, "Duplicate pk column for %s.%s and %s ", typ, (*pkField).name, mField.name)
			}
			*pkField = mField
		}
		fields = append(fields, mField)
	}
	return fields, nil
}

func extract(model Entity) (reflect.Value, reflect.Value, reflect.Type) {
	return c.ExtractRefTuple(model)
}

func fullTypeName(typ reflect.Type) string {
	return typ.PkgPath() + "." + typ.Name()
}
