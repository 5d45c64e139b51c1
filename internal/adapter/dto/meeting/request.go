package meeting

// CreateMeetingRequest is the payload for POST /meetings
type CreateMeetingRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	BotName  string `json:"bot_name" validate:"required,min=1,max=100"`
	URL      string `json:"url" validate:"required,url"`
	JoinTime string `json:"join_time" validate:"required,datetime=15:04"`
	Active   *bool  `json:"active,omitempty"`
}

// ListMeetingsRequest carries pagination for GET /meetings
type ListMeetingsRequest struct {
	Page     int `query:"page"`
	PageSize int `query:"page_size"`
}

// Normalize applies pagination defaults and bounds
func (r *ListMeetingsRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = 20
	}
	if r.PageSize > 100 {
		r.PageSize = 100
	}
}
