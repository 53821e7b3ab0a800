package starsight

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// V validates write requests. Besides the built-in tags it knows:
//
//	slug             canonical slug (see IsSlug)
//	simple_richtext  rich text limited to bold and italic
var V = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	must(v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return IsSlug(fl.Field().String())
	}))
	must(v.RegisterValidation("simple_richtext", func(fl validator.FieldLevel) bool {
		return ValidateRichText(fl.Field().String(), SimpleRichTextFeatures) == nil
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Validate checks s against its validate tags and reports every failing
// field in a *ValidationError.
func Validate(s any) error {
	err := V.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Add(fieldPath(fe.StructNamespace()), describe(fe))
	}
	return out.OrNil()
}

// fieldPath drops the struct name from a namespace: "Req.Article.Alt" -> "Article.Alt".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "max":
		if fe.Kind() == reflect.Slice {
			return "must have at most " + fe.Param() + " items"
		}
		return "must be at most " + fe.Param() + " characters"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must have at least " + fe.Param() + " items"
		}
		return "must be at least " + fe.Param() + " characters"
	case "unique":
		return "must not contain duplicates"
	case "slug":
		return "must contain only lowercase letters, digits, hyphens and underscores"
	case "simple_richtext":
		return "uses a formatting feature that is not allowed here"
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// ValidateStream checks every block of an article body.
func ValidateStream(content StreamValue) error {
	out := &ValidationError{}
	for i, b := range content {
		field := "Content[" + strconv.Itoa(i) + "]"
		switch v := b.Value.(type) {
		case RichTextBlock:
			if err := ValidateRichText(v.Source, SimpleRichTextFeatures); err != nil {
				out.Add(field, err.Error())
			}
		case DetailedImageBlock, ReferencesBlock:
			if err := Validate(v); err != nil {
				var ve *ValidationError
				if errors.As(err, &ve) {
					for k, msg := range ve.Fields {
						out.Add(field+"."+k, msg)
					}
					continue
				}
				return err
			}
		default:
			out.Add(field, ErrUnknownBlockType.Error())
		}
	}
	return out.OrNil()
}
