package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	httperror "delivery-service/src/pkg/http-error"
)

type ResponseBody struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Response(data interface{}, message string, status int, ctx *fiber.Ctx) error {
	return ctx.Status(status).JSON(ResponseBody{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ResponseError(err error, ctx *fiber.Ctx) error {
	var commonErr *httperror.CommonError
	if errors.As(err, &commonErr) {
		return ctx.Status(commonErr.ResponseCode).JSON(ResponseBody{
			Success: false,
			Message: commonErr.Message,
			Code:    commonErr.Code,
		})
	}
	return ctx.Status(fiber.StatusBadRequest).JSON(ResponseBody{
		Success: false,
		Message: err.Error(),
	})
}
