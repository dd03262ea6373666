package blog

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const validationFailedCode = "BLOG_VALIDATION_FAILED"

var (
	errNameNotScrubbable = validation.NewError("validation_blog_name", "must contain at least one letter or digit")
	errRouteWhitespace   = validation.NewError("validation_blog_route", "must not contain whitespace")
)

func (in CreateCategoryInput) validate() error {
	return wrapValidation(validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 140), validation.By(scrubbable)),
		validation.Field(&in.Name, validation.Length(0, 140)),
	))
}

func (in CreateBloggerInput) validate() error {
	return wrapValidation(validation.ValidateStruct(&in,
		validation.Field(&in.ShortName, validation.Required, validation.Length(1, 140), validation.By(noWhitespace)),
		validation.Field(&in.FullName, validation.Required, validation.Length(1, 255)),
	))
}

func (in CreatePostInput) validate() error {
	return wrapValidation(validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Route, validation.Length(0, 255), validation.By(noWhitespace)),
		validation.Field(&in.BlogCategory, validation.Required),
		validation.Field(&in.Blogger, validation.Required),
		validation.Field(&in.ContentType, validation.In(ContentTypeMarkdown, ContentTypeHTML)),
	))
}

func (in UpdatePostInput) validate() error {
	errs := validation.Errors{}
	if in.ID == uuid.Nil {
		errs["id"] = validation.ErrRequired
	}
	if in.Title != nil {
		errs["title"] = validation.Validate(*in.Title, validation.Required, validation.Length(1, 255))
	}
	if in.Route != nil {
		errs["route"] = validation.Validate(*in.Route, validation.Length(0, 255), validation.By(noWhitespace))
	}
	if in.BlogCategory != nil {
		errs["blog_category"] = validation.Validate(*in.BlogCategory, validation.Required)
	}
	if in.Blogger != nil {
		errs["blogger"] = validation.Validate(*in.Blogger, validation.Required)
	}
	if in.ContentType != nil {
		errs["content_type"] = validation.Validate(normalizeContentType(*in.ContentType), validation.In(ContentTypeMarkdown, ContentTypeHTML))
	}
	return wrapValidation(errs.Filter())
}

func scrubbable(value any) error {
	text, _ := value.(string)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if Scrub(text) == "" {
		return errNameNotScrubbable
	}
	return nil
}

func noWhitespace(value any) error {
	text, _ := value.(string)
	if strings.ContainsAny(strings.TrimSpace(text), " \t\r\n") {
		return errRouteWhitespace
	}
	return nil
}

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "blog: invalid input").
		WithTextCode(validationFailedCode)
}

// IsValidationError reports whether err was produced by input validation.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.IsCategory(err, goerrors.CategoryValidation) {
		return true
	}
	var verrs validation.Errors
	return errors.As(err, &verrs)
}
