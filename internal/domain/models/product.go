package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the format used for planted, harvested and use-before dates.
const DateLayout = "2006-01-02"

// ProductRecord represents one unit of tracked produce. JSON field names match
// the layout persisted in the products slot.
type ProductRecord struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	CropType      string `json:"cropType"`
	SoilType      string `json:"soilType"`
	Status        string `json:"status"`
	Pesticides    string `json:"pesticides"`
	PlantedDate   string `json:"plantedDate"`
	HarvestedDate string `json:"harvestedDate"`
	UseBefore     string `json:"useBefore"`
	Location      string `json:"location"`
	CreatedBy     string `json:"createdBy"`
	CreatedRole   string `json:"createdRole,omitempty"`
	ImageURL      string `json:"imageUrl"`
}

// ProductDraft is the user-supplied part of a ProductRecord.
type ProductDraft struct {
	Name          string `json:"name" form:"name"`
	CropType      string `json:"cropType" form:"cropType"`
	SoilType      string `json:"soilType" form:"soilType"`
	Status        string `json:"status" form:"status"`
	Pesticides    string `json:"pesticides" form:"pesticides"`
	PlantedDate   string `json:"plantedDate" form:"plantedDate"`
	HarvestedDate string `json:"harvestedDate" form:"harvestedDate"`
	UseBefore     string `json:"useBefore" form:"useBefore"`
	Location      string `json:"location" form:"location"`

	// ImageURL is filled in by the dashboard once an upload has been stored.
	ImageURL string `json:"-" form:"-"`
}

// ValidationError reports a draft field that blocks an operation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Normalize trims surrounding whitespace from every draft field.
func (d ProductDraft) Normalize() ProductDraft {
	return ProductDraft{
		Name:          strings.TrimSpace(d.Name),
		CropType:      strings.TrimSpace(d.CropType),
		SoilType:      strings.TrimSpace(d.SoilType),
		Status:        strings.TrimSpace(d.Status),
		Pesticides:    strings.TrimSpace(d.Pesticides),
		PlantedDate:   strings.TrimSpace(d.PlantedDate),
		HarvestedDate: strings.TrimSpace(d.HarvestedDate),
		UseBefore:     strings.TrimSpace(d.UseBefore),
		Location:      strings.TrimSpace(d.Location),
		ImageURL:      d.ImageURL,
	}
}

// Validate checks the draft after normalization.
func (d ProductDraft) Validate() error {
	if d.Name == "" {
		return &ValidationError{Field: "name", Message: "Enter product name"}
	}

	dates := []struct {
		field string
		value string
	}{
		{"plantedDate", d.PlantedDate},
		{"harvestedDate", d.HarvestedDate},
		{"useBefore", d.UseBefore},
	}
	for _, date := range dates {
		if date.value == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, date.value); err != nil {
			return &ValidationError{Field: date.field, Message: fmt.Sprintf("expected date formatted as %s", DateLayout)}
		}
	}

	return nil
}

// Order is a static demo order shown on the orders page.
type Order struct {
	ID       int    `json:"id"`
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
	Status   string `json:"status"`
}
