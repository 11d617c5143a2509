package models

// Role is the platform role carried in the bearer token.
type Role string

const (
	RoleSeller     Role = "seller"
	RoleDispatcher Role = "dispatcher"
	RoleOwner      Role = "owner"
)

// Identity is the verified caller extracted by the auth middleware.
type Identity struct {
	Subject  string `json:"sub"`
	SellerID int64  `json:"seller_id"`
	Role     Role   `json:"role"`
}
