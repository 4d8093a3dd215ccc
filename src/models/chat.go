package models

type MChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type MChatRequest struct {
	Message string      `json:"message"`
	History []MChatTurn `json:"history"`
}

type MChatResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
