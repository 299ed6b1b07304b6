package models

type RegisterUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type StoreCredentialRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// ActionRequest carries one UI action. Only the fields relevant to the named
// action are read.
type ActionRequest struct {
	Action           string `json:"action" binding:"required,oneof=search summarize bookmark view_bookmarks summarize_bookmark view_results"`
	Query            string `json:"query,omitempty"`
	CredentialChoice string `json:"credential_choice,omitempty" binding:"omitempty,oneof=shared own"`
	APIKey           string `json:"api_key,omitempty"`
	Index            *int   `json:"index,omitempty" binding:"omitempty,min=0"`
}
