package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

// ReservedUsername 保留用户名，对应 /users/me
const ReservedUsername = "me"

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterValidators(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterValidators 注册自定义校验规则：slug、username、notfutureyear
func RegisterValidators(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"slug": func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		},
		"username": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return usernamePattern.MatchString(s) && !strings.EqualFold(s, ReservedUsername)
		},
		"notfutureyear": func(fl validator.FieldLevel) bool {
			return fl.Field().Int() <= int64(time.Now().Year())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return nil
}

// checkVar 按 validator 标签校验单个字段
func checkVar(field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		return invalid(field, DescribeTag(err))
	}
	return nil
}

// DescribeTag 将 validator 错误转换为可读的提示
func DescribeTag(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("ensure this field has no more than %s characters", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("ensure this value is less than or equal to %s", fe.Param())
	case "email":
		return "enter a valid email address"
	case "slug":
		return "enter a valid slug consisting of letters, numbers, underscores or hyphens"
	case "username":
		return "enter a valid username; \"me\" is reserved"
	case "notfutureyear":
		return "year cannot be in the future"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}
