package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// executor *sql.DB或者*sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type entityInsertFunc func(ctx context.Context, executor executor, entity Entity) error
type entityUpdateFunc func(ctx context.Context, executor executor, entity Entity) (bool, error)
type entityUpdateColumnFunc func(ctx context.Context, executor executor, entity Entity, columns string, contition string, params []interface{}) (int64, error)
type entityQueryFunc func(ctx context.Context, executor executor, entity Entity, condition string, params []interface{}) ([]Entity, error)
type queryColumnsFunc func(ctx context.Context, executor executor, entity Entity, destStruct interface{}, columns []string, condition string, params []interface{}) error
type entityGetFunc func(ctx context.Context, executor executor, entity Entity, id interface{}) (Entity, error)
type entityDeleteFunc func(ctx context.Context, executor executor, entity Entity, condition string, params []interface{}) (int64, error)
type entityDeleteByIDFunc func(ctx context.Context, executor executor, entity Entity, id interface{}) (bool, error)

func toSlice(s string, count int) []string {
	slice := make([]string, 0, count)
	for i := 0; i < count; i++ {
		slice = append(slice, s)
	}
	return slice
}

func filterFields(fields []*metaField, pred func(field *metaField) bool) []*metaField {
	filtered := make([]*metaField, 0, len(fields))
	for _, field := range fields {
		if pred(field) {
			filtered = append(filtered, field)
		}
	}
	return filtered
}

func joinColumns(fields []*metaField, format string) string {
	columns := make([]string, 0, len(fields))
	for _, field := range fields {
		columns = append(columns, fmt.Sprintf(format, field.column))
	}
	return strings.Join(columns, ",")
}

//除了自增主键的过滤函数
var exceptIDPred = func(field *metaField) bool {
	if field == nil || (field.pk && field.pkAuto) {
		return false
	}
	return true
}

//除了主键的过滤函数
var noIDPred = func(field *metaField) bool {
	if field == nil || field.pk {
		return false
	}
	return true
}

//检查实体参数
func checkEntity(modelInfo *meta, entity Entity, executor executor) (ind reflect.Value) {
	val, ind, typ := extract(entity)
	if val.Kind() != reflect.Ptr {
		panic(NewDBErrorf(nil, "Expect ptr ,but it's %s,type:%s", val.Kind(), typ))
	}
	if typ != modelInfo.modelType {
		panic(NewDBErrorf(nil, "Not same model type %v and %v", typ, modelInfo.modelType))
	}
	if executor == nil {
		panic(NewDBError(nil, "No executor"))
	}
	return
}

func buildParamValues(ind reflect.Value, fields []*metaField) []interface{} {
	paramValues := make([]interface{}, 0, len(fields))
	for _, field := range fields {
		fv := ind.FieldByIndex(field.index).Interface()
		paramValues = append(paramValues, fv)
	}
	return paramValues
}

func affectedRows(rs sql.Result) (int64, error) {
	rows, err := rs.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}

//构建实体模型的插入函数
func createInsertFunc(modelInfo *meta) entityInsertFunc {
	insertFields := filterFields(modelInfo.fields, exceptIDPred)
	columns := joinColumns(insertFields, "%s")
	params := strings.Join(toSlice("?", len(insertFields)), ",")

	return func(ctx context.Context, executor executor, entity Entity) error {
		ind := checkEntity(modelInfo, entity, executor)
		paramValues := buildParamValues(ind, insertFields)
		insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES(%s)", entity.TableName(), columns, params)

		rs, err := executor.ExecContext(ctx, insertSQL, paramValues...)
		if err != nil {
			return NewDBErrorf(err, "insert %s", entity.TableName())
		}

		if modelInfo.pkField.pkAuto {
			id, err := rs.LastInsertId()
			if err != nil {
				return err
			}
			ind.FieldByIndex(modelInfo.pkField.index).SetInt(id)
		}
		return nil
	}
}

//构建实体模型的更新函数
func createUpdateFunc(modelInfo *meta) entityUpdateFunc {
	updateFields := filterFields(modelInfo.fields, noIDPred)
	columns := joinColumns(updateFields, "%s=?")

	return func(ctx context.Context, executor executor, entity Entity) (bool, error) {
		ind := checkEntity(modelInfo, entity, executor)
		id := ind.FieldByIndex(modelInfo.pkField.index).Interface()
		paramValues := buildParamValues(ind, updateFields)
		paramValues = append(paramValues, id)

		updateSQL := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", entity.TableName(), columns, modelInfo.pkField.column)
		rs, err := executor.ExecContext(ctx, updateSQL, paramValues...)
		if err != nil {
			return false, NewDBErrorf(err, "update %s", entity.TableName())
		}
		//检查更新的记录数
		rows, err := affectedRows(rs)
		if err != nil {
			return false, err
		}
		return rows == 1, nil
	}
}

//构建实体模型的指定列的更新函数
func createUpdateColumnsFunc(modelInfo *meta) entityUpdateColumnFunc {
	return func(ctx context.Context, executor executor, entity Entity, columns string, condition string, params []interface{}) (int64, error) {
		checkEntity(modelInfo, entity, executor)
		if len(columns) == 0 {
			return 0, NewDBError(nil, "Can't update empty columns")
		}

		updateSQL := fmt.Sprintf("UPDATE %s SET %s ", entity.TableName(), columns)
		if len(condition) > 0 {
			updateSQL += condition
		}

		rs, err := executor.ExecContext(ctx, updateSQL, params...)
		if err != nil {
			return 0, NewDBErrorf(err, "update columns %s", entity.TableName())
		}
		return affectedRows(rs)
	}
}

//构建查询函数
func createQueryFunc(modelInfo *meta) entityQueryFunc {
	columns := joinColumns(modelInfo.fields, "`%s`")

	return func(ctx context.Context, executor executor, entity Entity, condition string, params []interface{}) ([]Entity, error) {
		ind := checkEntity(modelInfo, entity, executor)
		querySQL := fmt.Sprintf("SELECT %s FROM %s ", columns, entity.TableName())
		if len(condition) > 0 {
			querySQL += condition
		}

		rows, err := executor.QueryContext(ctx, querySQL, params...)
		if err != nil {
			return nil, NewDBErrorf(err, "query %s", entity.TableName())
		}
		defer rows.Close()

		var rt = make([]Entity, 0, 10)
		for rows.Next() {
			ptrValue := reflect.New(ind.Type())
			ptrValueInd := reflect.Indirect(ptrValue)
			ptrValueSlice := make([]interface{}, 0, len(modelInfo.fields))
			for _, field := range modelInfo.fields {
				fv := ptrValueInd.FieldByIndex(field.index).Addr().Interface()
				ptrValueSlice = append(ptrValueSlice, fv)
			}
			if err := rows.Scan(ptrValueSlice...); err != nil {
				return nil, err
			}
			rt = append(rt, ptrValue.Interface().(Entity))
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return rt, nil
	}
}

//构建查询到指定结构的函数
func createQueryColumnsFunc(modelInfo *meta) queryColumnsFunc {
	return func(ctx context.Context, executor executor, entity Entity, destStructs interface{}, columns []string, condition string, params []interface{}) error {
		checkEntity(modelInfo, entity, executor)
		if destStructs == nil {
			return errors.New("dest must not be nil")
		}

		ptrVal := reflect.ValueOf(destStructs)
		if ptrVal.Kind() != reflect.Ptr {
			return errors.New("the dest must be pointer")
		}

		var destVal = ptrVal.Elem()
		if destVal.Kind() != reflect.Slice {
			return errors.New("the destStructs must be slice")
		}

		destStructTyp := destVal.Type().Elem()
		if destStructTyp.Kind() != reflect.Ptr || destStructTyp.Elem().Kind() != reflect.Struct {
			return errors.New("the element of dest must be struct pointer")
		}

		destTyp := destStructTyp.Elem()
		if destTyp.NumField() < len(columns) {
			return fmt.Errorf("number of %s's fields must >= columns", destTyp)
		}

		querySQL := fmt.Sprintf("SELECT %s FROM %s ", strings.Join(columns, ","), entity.TableName())
		if len(condition) > 0 {
			querySQL += condition
		}

		rows, err := executor.QueryContext(ctx, querySQL, params...)
		if err != nil {
			return NewDBErrorf(err, "query columns %s", entity.TableName())
		}
		defer rows.Close()

		var rt = reflect.MakeSlice(destVal.Type(), 0, 10)
		for rows.Next() {
			ptrValue := reflect.New(destTyp)
			ptrValueInd := reflect.Indirect(ptrValue)
			ptrValueSlice := make([]interface{}, 0, len(columns))
			for i := 0; i < len(columns); i++ {
				fv := ptrValueInd.Field(i).Addr().Interface()
				ptrValueSlice = append(ptrValueSlice, fv)
			}
			if err := rows.Scan(ptrValueSlice...); err != nil {
				return err
			}
			rt = reflect.Append(rt, ptrValue)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		ptrVal.Elem().Set(rt)
		return nil
	}
}

func createGetFunc(modelInfo *meta) entityGetFunc {
	return func(ctx context.Context, executor executor, entity Entity, id interface{}) (Entity, error) {
		l, err := modelInfo.entityQueryFunc(ctx, executor, entity, " WHERE "+modelInfo.pkField.column+" = ?", []interface{}{id})
		if err != nil || len(l) != 1 {
			return nil, err
		}
		return l[0], nil
	}
}

//构建删除函数
func createDelFunc(modelInfo *meta) entityDeleteFunc {
	return func(ctx context.Context, executor executor, entity Entity, condition string, params []interface{}) (int64, error) {
		checkEntity(modelInfo, entity, executor)
		delSQL := fmt.Sprintf("DELETE FROM %s ", entity.TableName())
		if len(condition) > 0 {
			delSQL += condition
		}

		rs, err := executor.ExecContext(ctx, delSQL, params...)
		if err != nil {
			return 0, NewDBErrorf(err, "delete %s", entity.TableName())
		}
		return affectedRows(rs)
	}
}

func createDelByIDFunc(modelInfo *meta) entityDeleteByIDFunc {
	return func(ctx context.Context, executor executor, entity Entity, id interface{}) (bool, error) {
		l, err := modelInfo.delFunc(ctx, executor, entity, " WHERE "+modelInfo.pkField.column+" = ?", []interface{}{id})
		if err != nil {
			return false, err
		}
		return l == 1, nil
	}
}
