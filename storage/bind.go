/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storage

import (
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
)

// BindValue binds v at index using the Statement method matching its type.
// Generated adapters use it for fields whose Go type is only known at runtime.
func BindValue(stmt Statement, index int, v any) error {
	switch tv := v.(type) {
	case nil:
		stmt.BindNull(index)
	case string:
		stmt.BindString(index, tv)
	case *string:
		if tv == nil {
			stmt.BindNull(index)
		} else {
			stmt.BindString(index, *tv)
		}
	case []byte:
		if tv == nil {
			stmt.BindNull(index)
		} else {
			stmt.BindBlob(index, tv)
		}
	case int:
		stmt.BindLong(index, int64(tv))
	case int8:
		stmt.BindLong(index, int64(tv))
	case int16:
		stmt.BindLong(index, int64(tv))
	case int32:
		stmt.BindLong(index, int64(tv))
	case int64:
		stmt.BindLong(index, tv)
	case uint8:
		stmt.BindLong(index, int64(tv))
	case uint16:
		stmt.BindLong(index, int64(tv))
	case uint32:
		stmt.BindLong(index, int64(tv))
	case *int64:
		if tv == nil {
			stmt.BindNull(index)
		} else {
			stmt.BindLong(index, *tv)
		}
	case bool:
		if tv {
			stmt.BindLong(index, 1)
		} else {
			stmt.BindLong(index, 0)
		}
	case float32:
		stmt.BindDouble(index, float64(tv))
	case float64:
		stmt.BindDouble(index, tv)
	case time.Time:
		stmt.BindString(index, strfmt.DateTime(tv).String())
	case strfmt.DateTime:
		stmt.BindString(index, tv.String())
	case *strfmt.DateTime:
		if tv == nil {
			stmt.BindNull(index)
		} else {
			stmt.BindString(index, tv.String())
		}
	case fmt.Stringer:
		stmt.BindString(index, tv.String())
	default:
		return fmt.Errorf("unsupported bind type %T at index %d", v, index)
	}
	return nil
}

// BindAll binds values starting at index 1.
func BindAll(stmt Statement, values ...any) error {
	for i, v := range values {
		if err := BindValue(stmt, i+1, v); err != nil {
			return err
		}
	}
	return nil
}
