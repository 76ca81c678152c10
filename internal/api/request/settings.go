package request

// SetProviderTokenRequest is the body of PUT /api/settings/token/{provider}.
// An empty token removes the stored one.
type SetProviderTokenRequest struct {
	Token string `json:"token"`
}
