package utils

import httperror "delivery-service/src/pkg/http-error"

// Result is the envelope every usecase returns. Error is nil on success.
type Result struct {
	Data  interface{}
	Error *httperror.CommonError
}
