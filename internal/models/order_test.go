package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderDecode_PartnerReference(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		available bool
		partnerID string
	}{
		{"absent", `{"_id":"o1","orderStatus":"ready"}`, true, ""},
		{"null", `{"_id":"o1","orderStatus":"ready","deliveryPartner":null}`, true, ""},
		{"empty id", `{"_id":"o1","orderStatus":"ready","deliveryPartner":""}`, true, ""},
		{"empty object", `{"_id":"o1","orderStatus":"ready","deliveryPartner":{}}`, true, ""},
		{"bare id", `{"_id":"o1","orderStatus":"ready","deliveryPartner":"p9"}`, false, "p9"},
		{"populated", `{"_id":"o1","orderStatus":"ready","deliveryPartner":{"_id":"p9","name":"Ravi"}}`, false, "p9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var o Order
			require.NoError(t, json.Unmarshal([]byte(tc.body), &o))
			assert.Equal(t, tc.available, o.IsAvailable())
			if !tc.available {
				assert.Equal(t, tc.partnerID, o.DeliveryPartner.ID)
			}
		})
	}
}

func TestPartnerProfile_IsPartner(t *testing.T) {
	var nilProfile *PartnerProfile
	assert.False(t, nilProfile.IsPartner())
	assert.False(t, (&PartnerProfile{Role: "customer"}).IsPartner())
	assert.True(t, (&PartnerProfile{Role: RoleDeliveryPartner}).IsPartner())
}

func TestAddressString(t *testing.T) {
	assert.Equal(t, "12 MG Road, Pune, 411001", Address{Line1: "12 MG Road", City: "Pune", Pincode: "411001"}.String())
	assert.Equal(t, "Pune", Address{City: "Pune"}.String())
}
