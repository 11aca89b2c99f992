package models

import (
	"errors"
	"fmt"
)

// NotFoundError 记录不存在
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is 让 errors.Is(err, ErrNotFound) 匹配任意资源
func (e NotFoundError) Is(target error) bool {
	switch target.(type) {
	case NotFoundError, *NotFoundError:
		return true
	}
	return false
}

var ErrNotFound = NotFoundError{}

// ErrConcurrentTransition 审核链在事务中被并发修改，整个事务回滚
var ErrConcurrentTransition = errors.New("review lineage changed concurrently")
