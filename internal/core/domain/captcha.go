package domain

import "errors"

var (
	ErrCaptchaRequired = errors.New("captcha is required")
	ErrCaptchaExpired  = errors.New("captcha expired")
	ErrCaptchaInvalid  = errors.New("captcha answer is wrong")
)

// Captcha is an arithmetic challenge handed out before login.
type Captcha struct {
	Key      string `json:"key"`
	Question string `json:"question"`
}
