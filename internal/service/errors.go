package service

import (
	"errors"

	"github.com/omarshaarawi/tradereferee/internal/api/fantasy"
	"github.com/omarshaarawi/tradereferee/internal/api/referee"
	"github.com/omarshaarawi/tradereferee/internal/trade"
)

// UserMessage is the text a failure is shown with, and the value SET_ERROR
// stores for it.
func UserMessage(err error) string {
	var validationErr *trade.ValidationError
	var serviceErr *referee.ServiceError
	var transportErr *referee.TransportError
	var malformedErr *fantasy.MalformedInputError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &serviceErr):
		return serviceErr.Message
	case errors.As(err, &transportErr):
		return "Network error: " + transportErr.Err.Error()
	case errors.As(err, &malformedErr):
		return malformedErr.Error()
	}
	return err.Error()
}

// IsValidation reports whether err was raised before anything was dispatched.
func IsValidation(err error) bool {
	var validationErr *trade.ValidationError
	return errors.As(err, &validationErr)
}
