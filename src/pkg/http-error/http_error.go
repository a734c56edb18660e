package httperror

import "github.com/gofiber/fiber/v2"

// Domain error codes carried next to the HTTP status so callers can branch
// without parsing messages.
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeNotCancellable     = "NOT_CANCELLABLE"
	CodeOfferExpired       = "OFFER_EXPIRED"
	CodeAssignmentConflict = "ASSIGNMENT_CONFLICT"
	CodeOrderNotReady      = "ORDER_NOT_READY"
	CodeInvalidState       = "INVALID_STATE"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

type CommonError struct {
	ResponseCode int    `json:"-"`
	Code         string `json:"code"`
	Message      string `json:"message"`
}

func (e *CommonError) Error() string {
	return e.Message
}

func NewBadRequest() *CommonError {
	return &CommonError{ResponseCode: fiber.StatusBadRequest, Code: CodeValidationError, Message: "bad request"}
}

func NewNotFound() *CommonError {
	return &CommonError{ResponseCode: fiber.StatusNotFound, Code: CodeNotFound, Message: "not found"}
}

func NewConflict() *CommonError {
	return &CommonError{ResponseCode: fiber.StatusConflict, Code: CodeConflict, Message: "conflict"}
}

func NewInternalServerError() *CommonError {
	return &CommonError{ResponseCode: fiber.StatusInternalServerError, Code: CodeInternal, Message: "internal server error"}
}

func NewInvalidTransition() *CommonError {
	return &CommonError{ResponseCode: fiber.StatusConflict, Code: CodeInvalidTransition, Message: "invalid status transition"}
}

func NewNotCancellable() *CommonError {
	return &CommonError{ResponseCode: fiber.StatusConflict, Code: CodeNotCancellable, Message: "order can no longer be cancelled"}
}

func NewOfferExpired() *CommonError {
	return &CommonError{ResponseCode: fiber.StatusConflict, Code: CodeOfferExpired, Message: "offer already decided or expired"}
}

func NewAssignmentConflict() *CommonError {
	return &CommonError{ResponseCode: fiber.StatusConflict, Code: CodeAssignmentConflict, Message: "driver already has an active assignment"}
}

func NewOrderNotReady() *CommonError {
	return &CommonError{ResponseCode: fiber.StatusConflict, Code: CodeOrderNotReady, Message: "order is not ready for dispatch"}
}

func NewInvalidState() *CommonError {
	return &CommonError{ResponseCode: fiber.StatusConflict, Code: CodeInvalidState, Message: "invalid state"}
}
