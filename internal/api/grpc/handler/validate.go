package handler

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dtroode/authkeeper/internal/api/grpc/authapi"
	"github.com/dtroode/authkeeper/internal/password"
)

var singleLine = validation.Match(regexp.MustCompile(`^[^\r\n]*$`)).Error("must not contain line breaks")

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(0, password.MaxLength).Error(fmt.Sprintf("must be at most %d bytes", password.MaxLength)),
	}
}

func validateRegister(req *authapi.RegisterRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Username, validation.Required, singleLine),
		validation.Field(&req.Email, validation.Required, singleLine, is.Email),
		validation.Field(&req.Password, passwordRules()...),
		validation.Field(&req.DisplayName, singleLine),
	)
}

func validateResetPassword(req *authapi.ResetPasswordRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Token, validation.Required),
		validation.Field(&req.Password, passwordRules()...),
		validation.Field(&req.PasswordConfirm, validation.By(equals(req.Password, "passwords do not match"))),
	)
}

func equals(want, message string) validation.RuleFunc {
	return func(value interface{}) error {
		if s, _ := value.(string); s != want {
			return errors.New(message)
		}
		return nil
	}
}
