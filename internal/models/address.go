package models

import "strings"

type Address struct {
	Line1   string `json:"line1"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
}

func (a Address) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Line1, a.City, a.Pincode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
