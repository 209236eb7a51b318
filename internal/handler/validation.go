package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/user/yamdb/internal/service"
	"github.com/user/yamdb/internal/utils"
)

// SetupValidator 为 gin 绑定注册自定义规则，字段名使用 json 标签
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return service.RegisterValidators(v)
}

// bind 绑定 JSON 请求体，失败时写入 400 响应并返回 false
func bind(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		utils.FieldError(c, verrs[0].Field(), service.DescribeTag(err))
		return false
	}
	utils.BadRequest(c, "请求体格式错误")
	return false
}
