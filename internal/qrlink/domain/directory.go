package domain

import "time"

// DirectoryUser is the minimal projection of the external user directory
// this service needs: enough to resolve a confirming identity to a user id.
type DirectoryUser struct {
	ID          string
	Username    string
	DisplayName string
	CreatedAt   time.Time
}
