package model

// ReplyEvent is what listeners of an access code receive when a reply lands.
type ReplyEvent struct {
	AccessCode string `json:"accessCode"`
	Index      int    `json:"index"`
	Reply      Reply  `json:"reply"`
}

type SubmissionEvent struct {
	AccessCode   string   `json:"accessCode"`
	SelectedTags []string `json:"selectedTags"`
	Timestamp    string   `json:"timestamp"`
}
