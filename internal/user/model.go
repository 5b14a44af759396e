package user

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"` // bcrypt hash, never exposed
	IsAdmin  bool   `json:"is_admin"`
}

// RegisterInput is the registration form after binding.
type RegisterInput struct {
	Username string `form:"username" validate:"required,max=50"`
	Email    string `form:"email" validate:"required,email,max=50"`
	Password string `form:"password" validate:"required"`
}

type LoginInput struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}
