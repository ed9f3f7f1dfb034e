package domain

// PresenceSnapshot is the presence view pushed to the environment group.
// AvailableUsers holds usernames not currently bound to a session; OnlineUsers
// is the independently tracked online counter.
type PresenceSnapshot struct {
	AvailableUsers []string `json:"available_users"`
	OnlineUsers    int64    `json:"online_users"`
}
