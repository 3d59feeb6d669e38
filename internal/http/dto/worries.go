package dto

import "worry_solver/internal/model"

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type StatusResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type SubmitWorryRequest struct {
	UserID            string   `json:"userId"`
	ConfessionText    string   `json:"confessionText"`
	SelectedTags      []string `json:"selectedTags"`
	PrivacyOption     string   `json:"privacyOption"`
	EmailNotification bool     `json:"emailNotification"`
	Email             string   `json:"email"`
}

type SubmitWorryResponse struct {
	AccessCode string       `json:"accessCode"`
	Record     model.Record `json:"record"`
}

type CreateReplyRequest struct {
	ReplyText   string `json:"replyText"`
	ReplierName string `json:"replierName"`
}

type CurrentCodeResponse struct {
	AccessCode string `json:"accessCode"`
}
