package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// credentialsRequest is the login/register/reset form. The email travels in
// the "username" field.
type credentialsRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=254"`
	Password string `json:"password" form:"password" validate:"required,max=72"`
}

type formField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// formResponse describes a form the client should render.
type formResponse struct {
	Form      string      `json:"form"`
	Action    string      `json:"action"`
	Method    string      `json:"method"`
	Fields    []formField `json:"fields"`
	Providers []string    `json:"providers,omitempty"`
	Error     string      `json:"error,omitempty"`
}

type homeLinks struct {
	Login    string `json:"login"`
	Register string `json:"register"`
	Todolist string `json:"todolist"`
	Logout   string `json:"logout"`
}

type homeResponse struct {
	Name          string    `json:"name"`
	Authenticated bool      `json:"authenticated"`
	Email         string    `json:"email,omitempty"`
	Links         homeLinks `json:"_links"`
}

var credentialFields = []formField{
	{Name: "username", Type: "email"},
	{Name: "password", Type: "password"},
}
