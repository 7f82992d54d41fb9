package model

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

type NotFoundError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param"`
}

func (e *NotFoundError) Error() string {
	return e.Message
}

type ForbiddenError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

type ConflictError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param"`
}

func (e *ConflictError) Error() string {
	return e.Message
}
