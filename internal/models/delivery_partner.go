package models

type PartnerProfile struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     []Address `json:"address"`
	Role        string    `json:"role"`
	Avatar      string    `json:"avatar,omitempty"`
	IsAvailable bool      `json:"isAvailable"`
}

// IsPartner is the access gate for every partner-only view.
func (p *PartnerProfile) IsPartner() bool {
	return p != nil && p.Role == RoleDeliveryPartner
}

// PrimaryAddress returns the first address, or a zero value when none is set.
func (p *PartnerProfile) PrimaryAddress() Address {
	if p == nil || len(p.Address) == 0 {
		return Address{}
	}
	return p.Address[0]
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegistrationForm struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Phone    string    `json:"phone"`
	Address  []Address `json:"address,omitempty"`
	Role     string    `json:"role"`
}

// ProfileUpdate carries only the fields being changed.
type ProfileUpdate struct {
	Name    *string   `json:"name,omitempty"`
	Phone   *string   `json:"phone,omitempty"`
	Avatar  *string   `json:"avatar,omitempty"`
	Address []Address `json:"address,omitempty"`
}

func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Phone == nil && u.Avatar == nil && len(u.Address) == 0
}
