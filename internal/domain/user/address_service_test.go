package user

import (
	"errors"
	"testing"

	"github.com/your-org/storefront-backend/internal/domain"
)

func newAddressFixture() *CreateAddressRequest {
	return &CreateAddressRequest{
		Type:         AddressTypeHome,
		Name:         "Asha Rao",
		Phone:        "+919876543210",
		AddressLine1: "221B Residency Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		PostalCode:   "560025",
	}
}

func TestCreateAddressDefaultsCountry(t *testing.T) {
	svc := NewAddressService(newTestDB(t), testConfig())

	addr, err := svc.CreateAddress(1, newAddressFixture())
	if err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}

	if addr.Country != "India" {
		t.Errorf("Country = %q, want India", addr.Country)
	}
}

func TestSingleDefaultAddressInvariant(t *testing.T) {
	svc := NewAddressService(newTestDB(t), testConfig())

	first := newAddressFixture()
	first.IsDefault = true
	a1, err := svc.CreateAddress(1, first)
	if err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}

	second := newAddressFixture()
	second.Type = AddressTypeWork
	second.IsDefault = true
	a2, err := svc.CreateAddress(1, second)
	if err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}

	def, err := svc.GetDefaultAddress(1)
	if err != nil {
		t.Fatalf("GetDefaultAddress() error = %v", err)
	}
	if def.ID != a2.ID {
		t.Errorf("default address ID = %d, want %d", def.ID, a2.ID)
	}

	// The first address must have lost the flag
	reloaded, err := svc.GetAddress(1, a1.ID)
	if err != nil {
		t.Fatalf("GetAddress() error = %v", err)
	}
	if reloaded.IsDefault {
		t.Error("previous default address still carries the flag")
	}
}

func TestSetDefaultAddressFlipsAtomically(t *testing.T) {
	svc := NewAddressService(newTestDB(t), testConfig())

	first := newAddressFixture()
	first.IsDefault = true
	a1, err := svc.CreateAddress(1, first)
	if err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}

	a2, err := svc.CreateAddress(1, newAddressFixture())
	if err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}

	if err := svc.SetDefaultAddress(1, a2.ID); err != nil {
		t.Fatalf("SetDefaultAddress() error = %v", err)
	}

	addresses, err := svc.GetUserAddresses(1)
	if err != nil {
		t.Fatalf("GetUserAddresses() error = %v", err)
	}

	defaults := 0
	for _, a := range addresses {
		if a.IsDefault {
			defaults++
			if a.ID != a2.ID {
				t.Errorf("default address ID = %d, want %d", a.ID, a2.ID)
			}
		}
	}
	if defaults != 1 {
		t.Errorf("default address count = %d, want exactly 1", defaults)
	}
	_ = a1
}

func TestSetDefaultAddressOfOtherUserFails(t *testing.T) {
	svc := NewAddressService(newTestDB(t), testConfig())

	addr, err := svc.CreateAddress(1, newAddressFixture())
	if err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}

	err = svc.SetDefaultAddress(2, addr.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("SetDefaultAddress() error = %v, want ErrNotFound", err)
	}
}

func TestGetAddressScopedToOwner(t *testing.T) {
	svc := NewAddressService(newTestDB(t), testConfig())

	addr, err := svc.CreateAddress(1, newAddressFixture())
	if err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}

	if _, err := svc.GetAddress(2, addr.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetAddress() by non-owner error = %v, want ErrNotFound", err)
	}
}

func TestGetDefaultAddressWithoutDefault(t *testing.T) {
	svc := NewAddressService(newTestDB(t), testConfig())

	if _, err := svc.CreateAddress(1, newAddressFixture()); err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}

	_, err := svc.GetDefaultAddress(1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetDefaultAddress() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateAddressPartial(t *testing.T) {
	svc := NewAddressService(newTestDB(t), testConfig())

	addr, err := svc.CreateAddress(1, newAddressFixture())
	if err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}

	newCity := "Mysuru"
	updated, err := svc.UpdateAddress(1, addr.ID, &UpdateAddressRequest{City: &newCity})
	if err != nil {
		t.Fatalf("UpdateAddress() error = %v", err)
	}

	if updated.City != "Mysuru" {
		t.Errorf("City = %q, want Mysuru", updated.City)
	}
	if updated.AddressLine1 != addr.AddressLine1 {
		t.Errorf("AddressLine1 changed unexpectedly: %q", updated.AddressLine1)
	}
}

func TestDeleteAddress(t *testing.T) {
	svc := NewAddressService(newTestDB(t), testConfig())

	addr, err := svc.CreateAddress(1, newAddressFixture())
	if err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}

	if err := svc.DeleteAddress(1, addr.ID); err != nil {
		t.Fatalf("DeleteAddress() error = %v", err)
	}

	if _, err := svc.GetAddress(1, addr.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetAddress() after delete error = %v, want ErrNotFound", err)
	}

	if err := svc.DeleteAddress(1, addr.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteAddress() twice error = %v, want ErrNotFound", err)
	}
}

func TestGetUserAddressesOrdersDefaultFirst(t *testing.T) {
	svc := NewAddressService(newTestDB(t), testConfig())

	if _, err := svc.CreateAddress(1, newAddressFixture()); err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}

	second := newAddressFixture()
	second.IsDefault = true
	def, err := svc.CreateAddress(1, second)
	if err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}

	addresses, err := svc.GetUserAddresses(1)
	if err != nil {
		t.Fatalf("GetUserAddresses() error = %v", err)
	}

	if len(addresses) != 2 {
		t.Fatalf("address count = %d, want 2", len(addresses))
	}
	if addresses[0].ID != def.ID {
		t.Errorf("first address ID = %d, want default %d", addresses[0].ID, def.ID)
	}
}
