package response

type MessageResponse struct {
	Message string `json:"message"`
}

type VerifyResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}
