// Package mapper is the seam between the upstream wire shape and the public
// schema types. Decoding validates every element before anything is persisted;
// a single invalid element fails the whole batch. The reverse direction is a
// pure projection and lives in storage (rows scan straight into schema types).
package mapper

import (
	"encoding/json"
	"fmt"
)

// Validator 是所有公开 schema 类型共享的校验能力。
type Validator interface {
	Validate() error
}

// ValidationError 表示上游载荷未通过 schema 校验，整批一起失败。
type ValidationError struct {
	Index int // 列表中出错元素的下标；单对象固定为 0
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("upstream payload invalid at index %d: %v", e.Index, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DecodeList 将上游 JSON 数组解码为 T 切片，并逐个校验必填字段。
// 任一元素非法即返回 ValidationError，不会产生部分成功。
func DecodeList[T Validator](raw json.RawMessage) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ValidationError{Err: err}
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, &ValidationError{Index: i, Err: err}
		}
	}
	return items, nil
}

// DecodeOne 将上游 JSON 对象解码为单个 T 并校验。
func DecodeOne[T Validator](raw json.RawMessage) (T, error) {
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return item, &ValidationError{Err: err}
	}
	if err := item.Validate(); err != nil {
		return item, &ValidationError{Err: err}
	}
	return item, nil
}
