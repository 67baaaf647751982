package respond

// TokenRespond 令牌响应
type TokenRespond struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}
