// Package monetization provisions and tears down the paid tier of an
// extension on the payment platform.
package monetization

import (
	"fmt"
	"strings"
)

// Usage is how a subscription is billed.
type Usage string

const (
	UsageLicensed Usage = "licensed"
	UsageMetered  Usage = "metered"
)

// Descriptor is the premium tier requested at publish time.
type Descriptor struct {
	// Price is the unit amount in minor currency units.
	Price       int64    `json:"price"`
	Name        string   `json:"name,omitempty"`
	Description []string `json:"description,omitempty"`
	Usage       Usage    `json:"usage,omitempty"`
	// Quantity, when positive, bills per Quantity units instead of per unit.
	Quantity int64  `json:"quantity,omitempty"`
	Interval string `json:"interval,omitempty"`
}

// Normalized fills defaults and lowercases enumerations.
func (d Descriptor) Normalized() Descriptor {
	d.Usage = Usage(strings.ToLower(strings.TrimSpace(string(d.Usage))))
	if d.Usage == "" {
		d.Usage = UsageLicensed
	}
	d.Interval = strings.ToLower(strings.TrimSpace(d.Interval))
	if d.Interval == "" {
		d.Interval = "month"
	}
	return d
}

// Validate checks a normalized descriptor.
func (d Descriptor) Validate() error {
	if d.Price < 0 {
		return fmt.Errorf("premium price must not be negative, got %d", d.Price)
	}
	switch d.Usage {
	case UsageLicensed, UsageMetered:
	default:
		return fmt.Errorf("premium usage must be %q or %q, got %q", UsageLicensed, UsageMetered, d.Usage)
	}
	switch d.Interval {
	case "day", "week", "month", "year":
	default:
		return fmt.Errorf("premium interval %q is not one of day, week, month, year", d.Interval)
	}
	if d.Quantity < 0 {
		return fmt.Errorf("premium quantity must not be negative, got %d", d.Quantity)
	}
	return nil
}
