package lifecycle

import (
	"fmt"
	"strings"

	"ironingOrderManagement/internal/apperr"
	"ironingOrderManagement/models"
)

// Draft is an order being composed by a customer, before submission.
type Draft struct {
	Items          []models.OrderItem
	DeliveryOption models.DeliveryOption
	Address        string
	Notes          string
	Documents      []models.Document
}

// AddDocument attaches a document to the draft.
func (d *Draft) AddDocument(doc models.Document) {
	d.Documents = append(d.Documents, doc)
}

// RemoveDocument drops the first document with the given name. Documents can only be
// removed while the order is still a draft.
func (d *Draft) RemoveDocument(name string) bool {
	for i, doc := range d.Documents {
		if doc.Name == name {
			d.Documents = append(d.Documents[:i:i], d.Documents[i+1:]...)
			return true
		}
	}
	return false
}

// ValidateDraft checks items, delivery option and address, reporting every bad field.
func ValidateDraft(d Draft) error {
	return apperr.Validation("submitOrder", DraftFields(d)...)
}

// DraftFields is ValidateDraft's field list, for callers that merge in their own checks.
func DraftFields(d Draft) []apperr.FieldError {
	var fields []apperr.FieldError
	fields = append(fields, itemFields(d.Items)...)
	fields = append(fields, deliveryFields(d.DeliveryOption, d.Address)...)
	if err := validateDocuments("documents", d.Documents); err != nil {
		fields = append(fields, apperr.FieldsOf(err)...)
	}
	return fields
}

func itemFields(items []models.OrderItem) []apperr.FieldError {
	if len(items) == 0 {
		return []apperr.FieldError{apperr.Field("items", "at least one item is required")}
	}
	var fields []apperr.FieldError
	for i, it := range items {
		if strings.TrimSpace(it.ClothType) == "" {
			fields = append(fields, apperr.Field(fmt.Sprintf("items[%d].clothType", i), "cloth type is required"))
		}
		if it.Quantity <= 0 {
			fields = append(fields, apperr.Field(fmt.Sprintf("items[%d].quantity", i), "must be greater than 0"))
		}
		if !it.UnitPrice.IsPositive() {
			fields = append(fields, apperr.Field(fmt.Sprintf("items[%d].unitPrice", i), "must be greater than 0"))
		}
	}
	return fields
}

func deliveryFields(opt models.DeliveryOption, address string) []apperr.FieldError {
	if !opt.Valid() {
		return []apperr.FieldError{apperr.Field("deliveryOption", "must be %q or %q", models.DeliveryDoorstep, models.DeliveryCustomerPickup)}
	}
	if opt == models.DeliveryDoorstep && strings.TrimSpace(address) == "" {
		return []apperr.FieldError{apperr.Field("address", "required for doorstep delivery")}
	}
	return nil
}

func validateDocuments(field string, docs []models.Document) error {
	var fields []apperr.FieldError
	for i, doc := range docs {
		if strings.TrimSpace(doc.Name) == "" {
			fields = append(fields, apperr.Field(fmt.Sprintf("%s[%d].name", field, i), "name is required"))
		}
	}
	return apperr.Validation(field, fields...)
}

// normalizedAddress keeps an address only for doorstep delivery.
func normalizedAddress(opt models.DeliveryOption, address string) string {
	if opt != models.DeliveryDoorstep {
		return ""
	}
	return strings.TrimSpace(address)
}
