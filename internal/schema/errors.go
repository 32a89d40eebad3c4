package schema

import "fmt"

// FieldError 指出缺失或非法的必填字段，资源名用于日志定位。
type FieldError struct {
	Resource string
	Field    string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %q", e.Resource, e.Field)
}

func missingField(resource, field string) error {
	return FieldError{Resource: resource, Field: field}
}
