package bill

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Draft holds the new bill form fields. Amount and Pct are pointers so that
// an empty input can be told apart from zero.
type Draft struct {
	Type       ExpenseType `validate:"required,expense_type"`
	Name       string
	Date       string `validate:"required"`
	Amount     *int   `validate:"required"`
	VAT        string
	Pct        *int `validate:"required"`
	Commentary string
}

// Validate returns a MissingFieldsError naming every field that fails its
// constraint, or nil.
func (d Draft) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	missing := &MissingFieldsError{}
	for _, fe := range fieldErrs {
		missing.Fields = append(missing.Fields, fe.Field())
	}
	return missing
}

// Record builds the bill to create from the draft, the submitting identity
// and the uploaded receipt.
func (d Draft) Record(id Identity, stored *StoredFile, fileName string) *Bill {
	b := &Bill{
		Email:      id.Email,
		Type:       d.Type,
		Name:       d.Name,
		Date:       d.Date,
		VAT:        d.VAT,
		Commentary: d.Commentary,
		Status:     StatusPending,
	}
	if d.Amount != nil {
		b.Amount = *d.Amount
	}
	if d.Pct != nil {
		b.Pct = *d.Pct
	}
	if stored != nil {
		b.FileURL = stored.DownloadURL
		b.FileName = fileName
	}
	return b
}
