package api

// swagger:model api.CreateResourceRequest
type CreateResourceRequest struct {
	Title       string   `json:"title" validate:"required,max=200" example:"A Tour of Go"`
	Description string   `json:"description" validate:"required,max=5000" example:"Interactive introduction to Go"`
	Level       string   `json:"level" validate:"required,oneof=beginner intermediate advanced" example:"beginner"`
	Course      string   `json:"course" validate:"required,oneof=web-development data-science machine-learning mobile-development cybersecurity cloud-computing programming-fundamentals other" example:"programming-fundamentals"`
	Tags        []string `json:"tags" validate:"omitempty,dive,max=40" example:"go,basics"`
	Type        string   `json:"type" validate:"required,oneof=video article tutorial course tool" example:"tutorial"`
	Author      string   `json:"author" validate:"required,max=200" example:"The Go Authors"`
	Rating      float64  `json:"rating" validate:"gte=0,lte=5" example:"4.5"`
	Link        string   `json:"link" validate:"required,url" example:"https://go.dev/tour"`
}

// swagger:model api.CreateEventRequest
type CreateEventRequest struct {
	Title       string   `json:"title" validate:"required,max=200" example:"Go Workshop"`
	Description string   `json:"description" validate:"required,max=5000" example:"Hands-on intro"`
	Date        string   `json:"date" validate:"required,datetime=2006-01-02" example:"2025-03-01"`
	Time        string   `json:"time" validate:"required,datetime=15:04" example:"18:00"`
	Location    string   `json:"location" validate:"required,max=200" example:"Lab 1"`
	Type        string   `json:"type" validate:"required,oneof=workshop hackathon seminar meetup competition webinar" example:"workshop"`
	Capacity    int      `json:"capacity" validate:"required,gt=0,lte=100000" example:"30"`
	Tags        []string `json:"tags" validate:"omitempty,dive,max=40" example:"go"`
	Speaker     *string  `json:"speaker,omitempty" validate:"omitempty,max=200" example:"Gopher"`
	ImageURL    *string  `json:"imageUrl,omitempty" validate:"omitempty,url" example:"https://example.com/banner.png"`
}

// swagger:model api.RegistrationStatusResponse
type RegistrationStatusResponse struct {
	Registered bool `json:"registered" example:"true"`
}
