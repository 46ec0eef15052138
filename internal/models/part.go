// Package models defines core data structures for parts, list filters, and search results.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits enforced by PartInput.Validate.
const (
	NameMaxLength        = 150
	SKUMaxLength         = 30
	DescriptionMaxLength = 1024
)

// DateTimeFormat is the layout used for created_at/updated_at in JSON.
const DateTimeFormat = "2006-01-02 15:04:05"

// Part is a stored inventory record.
type Part struct {
	ID           string
	Name         string
	SKU          string
	Description  string
	WeightOunces int
	IsActive     int
	CreatedAt    time.Time
	UpdatedAt    *time.Time // nil until the first update
}

// partJSON is the wire shape of a Part. Timestamps are formatted strings;
// updated_at is "" when the part was never updated.
type partJSON struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Description  string `json:"description"`
	WeightOunces int    `json:"weight_ounces"`
	IsActive     int    `json:"is_active"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// MarshalJSON implements json.Marshaler.
func (p *Part) MarshalJSON() ([]byte, error) {
	out := partJSON{
		ID:           p.ID,
		Name:         p.Name,
		SKU:          p.SKU,
		Description:  p.Description,
		WeightOunces: p.WeightOunces,
		IsActive:     p.IsActive,
	}
	if !p.CreatedAt.IsZero() {
		out.CreatedAt = p.CreatedAt.UTC().Format(DateTimeFormat)
	}
	if p.UpdatedAt != nil {
		out.UpdatedAt = p.UpdatedAt.UTC().Format(DateTimeFormat)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. It accepts the shape written by MarshalJSON.
func (p *Part) UnmarshalJSON(data []byte) error {
	var in partJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = Part{
		ID:           in.ID,
		Name:         in.Name,
		SKU:          in.SKU,
		Description:  in.Description,
		WeightOunces: in.WeightOunces,
		IsActive:     in.IsActive,
	}
	if in.CreatedAt != "" {
		t, err := time.ParseInLocation(DateTimeFormat, in.CreatedAt, time.UTC)
		if err != nil {
			return fmt.Errorf("parse created_at: %w", err)
		}
		p.CreatedAt = t
	}
	if in.UpdatedAt != "" {
		t, err := time.ParseInLocation(DateTimeFormat, in.UpdatedAt, time.UTC)
		if err != nil {
			return fmt.Errorf("parse updated_at: %w", err)
		}
		p.UpdatedAt = &t
	}
	return nil
}

// String returns a short human-readable label.
func (p *Part) String() string {
	return fmt.Sprintf("Part %s - SKU: %s", p.Name, p.SKU)
}

// PartInput holds the mutable fields of a part, as received from the API or an import file.
// Update is a full replace: every field is written, omitted ones take their zero value
// (IsActive defaults to 1 when omitted).
type PartInput struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Description  string `json:"description"`
	WeightOunces int    `json:"weight_ounces"`
	IsActive     *int   `json:"is_active,omitempty"`
}

// Normalize trims surrounding whitespace from name and sku.
func (in *PartInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)
}

// Active returns the is_active flag, defaulting to 1.
func (in *PartInput) Active() int {
	if in.IsActive == nil {
		return 1
	}
	return *in.IsActive
}

// Validate checks every field and returns a *ValidationError listing all failures, or nil.
// Lengths are counted in characters, not bytes.
func (in *PartInput) Validate() error {
	verr := &ValidationError{}
	if in.Name == "" {
		verr.Add("name", KindRequired, "name can not be empty")
	} else if utf8.RuneCountInString(in.Name) > NameMaxLength {
		verr.Add("name", KindMaxLength, fmt.Sprintf("name can not be longer than %d characters", NameMaxLength))
	}
	if in.SKU == "" {
		verr.Add("sku", KindRequired, "sku can not be empty")
	} else if utf8.RuneCountInString(in.SKU) > SKUMaxLength {
		verr.Add("sku", KindMaxLength, fmt.Sprintf("sku can not be longer than %d characters", SKUMaxLength))
	}
	if utf8.RuneCountInString(in.Description) > DescriptionMaxLength {
		verr.Add("description", KindMaxLength, fmt.Sprintf("description can not be longer than %d characters", DescriptionMaxLength))
	}
	if in.WeightOunces < 0 {
		verr.Add("weight_ounces", KindMinValue, "weight_ounces must be 0 or greater")
	}
	if a := in.Active(); a != 0 && a != 1 {
		verr.Add("is_active", KindInvalid, "is_active must be 0 or 1")
	}
	return verr.OrNil()
}

// ApplyTo copies the input's fields onto p.
func (in *PartInput) ApplyTo(p *Part) {
	p.Name = in.Name
	p.SKU = in.SKU
	p.Description = in.Description
	p.WeightOunces = in.WeightOunces
	p.IsActive = in.Active()
}
