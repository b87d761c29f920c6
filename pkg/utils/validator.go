package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// ValidationFields 将绑定/校验错误拆成逐字段的错误信息，key 为 json 字段名
func ValidationFields(err error) map[string]string {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, e := range validationErrors {
			name := jsonFieldName(e)
			if _, exists := fields[name]; !exists {
				fields[name] = formatFieldError(name, e)
			}
		}
		return fields
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return map[string]string{
			typeErr.Field: fmt.Sprintf("field '%s' should be %s", typeErr.Field, typeErr.Type.String()),
		}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return map[string]string{"body": "invalid JSON format"}
	}

	return map[string]string{"body": err.Error()}
}

// FormatValidationError 格式化验证错误信息
func FormatValidationError(err error) string {
	fields := ValidationFields(err)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	messages := make([]string, 0, len(keys))
	for _, k := range keys {
		messages = append(messages, fields[k])
	}
	return strings.Join(messages, "; ")
}

// jsonFieldName gin 默认的 validator 不注册 tag name 函数，Field() 返回结构体字段名
func jsonFieldName(e validator.FieldError) string {
	return toSnake(e.Field())
}

func toSnake(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatFieldError(field string, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", field)
	case "max":
		return fmt.Sprintf("field '%s' must be at most %s characters", field, e.Param())
	case "min":
		return fmt.Sprintf("field '%s' must be at least %s", field, e.Param())
	case "email":
		return fmt.Sprintf("field '%s' must be a valid email address", field)
	case "url":
		return fmt.Sprintf("field '%s' must be a valid URL", field)
	case "gte":
		return fmt.Sprintf("field '%s' must be greater than or equal to %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", field, e.Param())
	case "uuid4", "uuid":
		return fmt.Sprintf("field '%s' must be a valid id", field)
	default:
		return fmt.Sprintf("field '%s' validation failed on '%s' tag", field, e.Tag())
	}
}
