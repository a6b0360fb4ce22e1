package auth

import (
	sharedauth "cv-builder/internal/shared/auth"
	"cv-builder/internal/users"
)

// tokenFor signs a session token carrying the user's public profile.
func tokenFor(u users.User) (string, error) {
	return sharedauth.SignJWT(sharedauth.Claims{
		Sub:     u.ID,
		Email:   u.Email,
		Name:    u.FullName,
		Picture: u.PictureURL,
	})
}
