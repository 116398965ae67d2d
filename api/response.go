// Package api defines the request and response types of the DeniZEN REST API.
package api

// Response is the envelope for every successful response body.
type Response struct {
	IsSuccess  bool        `json:"is_success"`
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Success wraps data in a success envelope.
func Success(data interface{}) Response {
	return Response{IsSuccess: true, Data: data}
}

// SuccessPage wraps data and pagination metadata in a success envelope.
func SuccessPage(data interface{}, page *Pagination) Response {
	return Response{IsSuccess: true, Data: data, Pagination: page}
}

// Message is used when the payload of a response is a single string.
type Message struct {
	Message string `json:"message"`
}

type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalCount int `json:"total_count"`
}

// PaginationRequest is embedded in requests for list endpoints.
type PaginationRequest struct {
	Page    int `form:"page" json:"-"`
	PerPage int `form:"per_page" json:"-"`
}

type EmptyRequest struct{}

type EmptyResponse struct{}
