package sq3

import (
	"bytes"
	"strings"

	"github.com/dropbox/godropbox/errors"
)

// Storage classes, in sort order: NULLs first, then numerics in numeric
// order, then text, then blobs compared by memcmp.
const (
	classNull = iota
	classNumeric
	classText
	classBlob
)

func storageClass(v Value) int {
	switch v.(type) {
	case nil:
		return classNull
	case int64, float64:
		return classNumeric
	case string:
		return classText
	case []byte:
		return classBlob
	default:
		panic(errors.Newf("unsupported value type %T", v))
	}
}

// CompareValues orders two values the way SQLite orders index keys.  Mixed
// integer/float comparisons are performed in floating point.
func CompareValues(v1, v2 Value) int {
	c1, c2 := storageClass(v1), storageClass(v2)
	if c1 != c2 {
		if c1 < c2 {
			return -1
		}
		return 1
	}
	switch c1 {
	case classNull:
		return 0
	case classNumeric:
		return compareNumeric(v1, v2)
	case classText:
		return strings.Compare(v1.(string), v2.(string))
	default:
		return bytes.Compare(v1.([]byte), v2.([]byte))
	}
}

func compareNumeric(v1, v2 Value) int {
	i1, isInt1 := v1.(int64)
	i2, isInt2 := v2.(int64)
	if isInt1 && isInt2 {
		switch {
		case i1 < i2:
			return -1
		case i1 > i2:
			return 1
		}
		return 0
	}
	f1, f2 := toFloat(v1), toFloat(v2)
	switch {
	case f1 < f2:
		return -1
	case f1 > f2:
		return 1
	}
	return 0
}

func toFloat(v Value) float64 {
	if i, ok := v.(int64); ok {
		return float64(i)
	}
	return v.(float64)
}

// ValueEquals reports whether two values compare equal within the same
// storage class.  Unlike CompareValues it never treats text and blob with
// identical bytes as related.
func ValueEquals(v1, v2 Value) bool {
	if storageClass(v1) != storageClass(v2) {
		return false
	}
	return CompareValues(v1, v2) == 0
}

// Less reports whether v1 sorts strictly before v2.
func Less(v1, v2 Value) bool {
	return CompareValues(v1, v2) < 0
}
