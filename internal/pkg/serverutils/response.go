package serverutils

type BaseResponse[T any] struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) *BaseResponse[T] {
	return &BaseResponse[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code, message string) *BaseResponse[any] {
	return &BaseResponse[any]{
		Success: false,
		Code:    code,
		Message: message,
	}
}
