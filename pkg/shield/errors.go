package shield

import "errors"

// Common errors
var (
	// ErrUnknownToken 占位符不是本次提取分配的
	ErrUnknownToken = errors.New("unknown placeholder token")

	// ErrUnresolvedToken 还原时占位符在映射中不存在
	ErrUnresolvedToken = errors.New("unresolved placeholder token")
)
