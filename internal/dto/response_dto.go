package dto

type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type ListResponse struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Data    interface{} `json:"data"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
