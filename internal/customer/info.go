package customer

import (
	"fmt"
	"strings"
)

type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentPayPal PaymentMethod = "paypal"
)

// Info is the customer data collected across the checkout steps. It is stored
// on the order as the shipping address.
type Info struct {
	FirstName     string        `json:"firstName"`
	LastName      string        `json:"lastName"`
	Phone         string        `json:"phone"`
	Email         string        `json:"email"`
	Address       string        `json:"address"`
	City          string        `json:"city"`
	Zip           string        `json:"zip"`
	Country       string        `json:"country"`
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`
}

type Identity struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type Address struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

func (i *Info) SetIdentity(id Identity) {
	i.FirstName = strings.TrimSpace(id.FirstName)
	i.LastName = strings.TrimSpace(id.LastName)
	i.Phone = strings.TrimSpace(id.Phone)
	i.Email = strings.TrimSpace(id.Email)
}

func (i *Info) SetAddress(a Address) {
	i.Address = strings.TrimSpace(a.Address)
	i.City = strings.TrimSpace(a.City)
	i.Zip = strings.TrimSpace(a.Zip)
	i.Country = strings.TrimSpace(a.Country)
}

// Prefill copies the non-empty fields of src into the fields of i that are
// still empty. Values already entered are kept.
func (i *Info) Prefill(src Info) {
	fill := func(dst *string, v string) {
		if *dst == "" && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	fill(&i.FirstName, src.FirstName)
	fill(&i.LastName, src.LastName)
	fill(&i.Phone, src.Phone)
	fill(&i.Email, src.Email)
	fill(&i.Address, src.Address)
	fill(&i.City, src.City)
	fill(&i.Zip, src.Zip)
	fill(&i.Country, src.Country)
}

// ValidationError lists the fields that failed a step's checks.
type ValidationError struct {
	Step   string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %s", e.Step, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// ValidateIdentity requires first name, last name, phone and an email with an "@".
func (i Info) ValidateIdentity() error {
	var bad []string
	if strings.TrimSpace(i.FirstName) == "" {
		bad = append(bad, "firstName")
	}
	if strings.TrimSpace(i.LastName) == "" {
		bad = append(bad, "lastName")
	}
	if strings.TrimSpace(i.Phone) == "" {
		bad = append(bad, "phone")
	}
	if !strings.Contains(i.Email, "@") {
		bad = append(bad, "email")
	}
	if len(bad) > 0 {
		return &ValidationError{Step: "identity", Fields: bad}
	}
	return nil
}

func (i Info) ValidateAddress() error {
	var bad []string
	if strings.TrimSpace(i.Address) == "" {
		bad = append(bad, "address")
	}
	if strings.TrimSpace(i.City) == "" {
		bad = append(bad, "city")
	}
	if strings.TrimSpace(i.Zip) == "" {
		bad = append(bad, "zip")
	}
	if strings.TrimSpace(i.Country) == "" {
		bad = append(bad, "country")
	}
	if len(bad) > 0 {
		return &ValidationError{Step: "address", Fields: bad}
	}
	return nil
}
