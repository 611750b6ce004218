package types

// UserResponse is the public profile shape. Fullname carries the username,
// matching the client contract.
type UserResponse struct {
	ID       uint   `json:"id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}
