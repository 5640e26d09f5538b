package service

import "github.com/storefront-next/internal/constants"

// Actor 发起操作的用户
type Actor struct {
	UserID uint
	Role   string
}

// IsAdmin 是否管理员
func (a Actor) IsAdmin() bool {
	return a.Role == constants.RoleAdmin
}

// IsVendor 是否商家
func (a Actor) IsVendor() bool {
	return a.Role == constants.RoleVendor
}

// canManageCatalog 商家或管理员
func (a Actor) canManageCatalog() bool {
	return a.IsAdmin() || a.IsVendor()
}

func (a Actor) idPtr() *uint {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}
