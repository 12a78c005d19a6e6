package application

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON field names rather than Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validateInput runs struct tag validation and converts failures into a
// ValidationError carrying message as its summary. It returns nil when input is valid.
func validateInput(input any, message string) *ValidationError {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	vErr := &ValidationError{Message: message}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			vErr.add(fe.Field(), fe.Translate(translator))
		}
		return vErr
	}
	vErr.add("input", err.Error())
	return vErr
}

// credentialsShape is the input pre-filter shared by login and student management.
type credentialsShape struct {
	Username string `json:"username" validate:"required,alphanum"`
	Password string `json:"password" validate:"min=4"`
}

type newPasswordShape struct {
	NewPassword string `json:"newPassword" validate:"min=6"`
}

type announcementShape struct {
	Message string `json:"message" validate:"min=2,max=500"`
}

type materialShape struct {
	Title string `json:"title" validate:"min=2,max=100"`
}

type resetShape struct {
	Username    string `json:"username" validate:"required,alphanum"`
	NewPassword string `json:"newPassword" validate:"min=4"`
}
