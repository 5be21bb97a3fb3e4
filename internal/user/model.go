package user

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
)

type User struct {
	ID          uint
	Email       string
	DisplayName string
	Password    string
	Role        Role
	CreatedAt   time.Time
}
