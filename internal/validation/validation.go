// Package validation はリクエストペイロードの形式検証を提供する。
// go-playground/validatorのタグで制約を宣言し、違反をフィールドごとのメッセージに変換する。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/hitoshi/blogapi/internal/model"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// instance はタグ名をJSONフィールド名で報告するvalidatorを返す。
func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		// 空白のみの本文を拒否する。値自体は変更しない
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(fmt.Sprintf("failed to register notblank validator: %v", err))
		}
		if err := v.RegisterValidation("maxbytes", maxBytes); err != nil {
			panic(fmt.Sprintf("failed to register maxbytes validator: %v", err))
		}
		validate = v
	})
	return validate
}

// Struct はvalidateタグに従って構造体を検証する。
// 違反がある場合はフィールドごとのメッセージを含む*model.APIErrorを返す。
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate payload: %w", err)
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], message(fe))
	}
	return model.NewValidationError(fields)
}

// maxBytes は文字列のUTF-8バイト長が上限以下であることを検証する。
// maxは文字数で数えるため、バイト長に制約がある値にはこちらを使う。
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "この項目は必須です。"
	case "email":
		return "有効なメールアドレスを入力してください。"
	case "max":
		return fmt.Sprintf("%s文字以内で入力してください。", fe.Param())
	case "min":
		return fmt.Sprintf("%s文字以上で入力してください。", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%sバイト以内で入力してください。", fe.Param())
	default:
		return fmt.Sprintf("値が不正です（%s）。", fe.Tag())
	}
}
