package domain

// User is a pre-provisioned chat participant. HasRoom is true iff the user
// currently administers exactly one live room.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	HasRoom  bool   `json:"has_room"`
}

// Ref is the identity slice of a user embedded in broadcast payloads.
type Ref struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Ref returns the broadcast identity of the user.
func (u *User) Ref() Ref {
	return Ref{ID: u.ID, Username: u.Username}
}
