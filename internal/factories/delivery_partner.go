package factories

import (
	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

var fake = faker.New()

type DeliveryPartnerFactory struct{}

func (df *DeliveryPartnerFactory) CreateDeliveryPartner() *models.PartnerProfile {
	person := fake.Person()
	return &models.PartnerProfile{
		ID:          cuid.New(),
		Name:        person.Name(),
		Email:       fake.Internet().Email(),
		Phone:       fake.Phone().Number(),
		Address:     []models.Address{createAddress()},
		Role:        models.RoleDeliveryPartner,
		IsAvailable: true,
	}
}

// CreateCustomerAccount returns a signed-in account that is not a partner.
func (df *DeliveryPartnerFactory) CreateCustomerAccount() *models.PartnerProfile {
	p := df.CreateDeliveryPartner()
	p.Role = "customer"
	p.IsAvailable = false
	return p
}

func createAddress() models.Address {
	addr := fake.Address()
	return models.Address{
		Line1:   addr.StreetAddress(),
		City:    addr.City(),
		Pincode: addr.PostCode(),
	}
}
