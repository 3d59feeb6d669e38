package model

type Reply struct {
	ReplyText   string `json:"replyText"`
	ReplierName string `json:"replierName"`
	ReplyTime   string `json:"replyTime"`
}

type Record struct {
	UserID            string   `json:"userId"`
	AccessCode        string   `json:"accessCode"`
	ConfessionText    string   `json:"confessionText"`
	SelectedTags      []string `json:"selectedTags"`
	PrivacyOption     string   `json:"privacyOption,omitempty"`
	EmailNotification bool     `json:"emailNotification,omitempty"`
	Email             string   `json:"email,omitempty"`
	Timestamp         string   `json:"timestamp,omitempty"`
	Replies           []Reply  `json:"replies"`
	Views             int      `json:"views"`
}
