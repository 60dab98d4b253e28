package domain

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// HashValue returns a stable hex digest of an arbitrary parameter value.
// Parameter identifiers are content-addressed on it, so the digest must be
// identical across processes and runs for equal values. The canonical form
// is type-prefixed to keep "1" and 1 distinct.
func HashValue(v any) string {
	sum := blake2b.Sum256([]byte(canonicalValue(v)))

	return hex.EncodeToString(sum[:16])
}

func canonicalValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return "s:" + x
	case bool:
		return "b:" + strconv.FormatBool(x)
	case int:
		return "i:" + strconv.Itoa(x)
	case int32:
		return "i:" + strconv.FormatInt(int64(x), 10)
	case int64:
		return "i:" + strconv.FormatInt(x, 10)
	case float32:
		return "f:" + strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return "f:" + strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%T:%v", v, v)
	}
}
