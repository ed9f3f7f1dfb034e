package log

const (
	// Actor
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Realtime
	FieldClientID = "client_id"
	FieldGroup    = "group"
	FieldRoom     = "room"

	// Service
	FieldService = "service"
)
