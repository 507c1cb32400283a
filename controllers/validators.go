package controllers

import (
	"reflect"
	"strings"

	"corretor/models"
	"corretor/tools"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adiciona as tags lead_status e phone_br ao validator do gin.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("lead_status", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || models.IsValidLeadStatus(s)
	}); err != nil {
		return err
	}
	return v.RegisterValidation("phone_br", func(fl validator.FieldLevel) bool {
		return tools.IsValidBrazilianPhone(fl.Field().String())
	})
}

// validationMessage traduz o primeiro erro do validator numa mensagem curta.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "requisição inválida"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " é obrigatório"
	case "email":
		return "email inválido"
	case "min":
		return fe.Field() + " muito curto"
	case "lead_status":
		return "status inválido"
	case "phone_br":
		return "telefone inválido"
	}
	return fe.Field() + " inválido"
}
