package auth

// UserInfo represents the user information carried by Google's verified ID token
type UserInfo struct {
	Sub           string `json:"sub"`            // Unique Google ID
	Email         string `json:"email"`          // User's email
	EmailVerified bool   `json:"email_verified"` // Whether the email is verified
	Name          string `json:"name"`           // Full name
	Picture       string `json:"picture"`        // Profile picture URL
}
