package auth

// IsAdmin: порядковый rank, роли 1–2 административные.
// Новые роли добавлять с учётом этого порядка.
func IsAdmin(roleID int) bool { return roleID <= 2 }

// EditPermission — множество ролей, которым разрешено править чужие
// записи времени; задаётся конфигурацией.
type EditPermission map[int]bool

func NewEditPermission(roles []int) EditPermission {
	p := make(EditPermission, len(roles))
	for _, r := range roles {
		p[r] = true
	}
	return p
}

func (p EditPermission) CanEditTime(roleID int) bool { return p[roleID] }
