package handlers

import (
	"errors"
	"net/http"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
)

// passwordComplexity enforces the character-class policy on top of the
// length rule: at least one lower case, one upper case and one digit.
func passwordComplexity(value interface{}) error {
	s, _ := value.(string)
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return errors.New("must contain lower case, upper case and numeric characters")
	}
	return nil
}

var passwordRules = []validation.Rule{
	validation.Required,
	validation.Length(8, 1024),
	validation.By(passwordComplexity),
}

// validationResponse turns ozzo field errors into a 400 with a
// field→messages map, the same shape the frontend already consumes.
func validationResponse(c echo.Context, err error) error {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		out := map[string][]string{}
		for field, ferr := range fieldErrs {
			out[field] = append(out[field], ferr.Error())
		}
		return c.JSON(http.StatusBadRequest, out)
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
