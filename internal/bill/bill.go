package bill

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Status is the processing status of a bill, assigned by the store
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// ExpenseType is one of the fixed expense categories
type ExpenseType string

const (
	TypeTransports  ExpenseType = "Transports"
	TypeRestaurants ExpenseType = "Restaurants et bars"
	TypeHotel       ExpenseType = "Hôtel et logement"
	TypeOnline      ExpenseType = "Services en ligne"
	TypeIT          ExpenseType = "IT et électronique"
	TypeEquipment   ExpenseType = "Equipement et matériel"
	TypeOffice      ExpenseType = "Fournitures de bureau"
)

// ExpenseTypes lists the categories in the order the form offers them
var ExpenseTypes = []ExpenseType{
	TypeTransports,
	TypeRestaurants,
	TypeHotel,
	TypeOnline,
	TypeIT,
	TypeEquipment,
	TypeOffice,
}

// Valid reports whether t is a known expense category
func (t ExpenseType) Valid() bool {
	for _, known := range ExpenseTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Bill is a single expense claim. Date is kept verbatim, even when it is not
// a valid YYYY-MM-DD value.
type Bill struct {
	ID           string      `json:"id,omitempty"`
	Email        string      `json:"email" validate:"required"`
	Type         ExpenseType `json:"type" validate:"required,expense_type"`
	Name         string      `json:"name"`
	Date         string      `json:"date" validate:"required"`
	Amount       int         `json:"amount"`
	VAT          string      `json:"vat,omitempty"`
	Pct          int         `json:"pct"`
	Commentary   string      `json:"commentary,omitempty"`
	FileURL      string      `json:"fileUrl,omitempty" validate:"required_with=FileName"`
	FileName     string      `json:"fileName,omitempty" validate:"required_with=FileURL"`
	Status       Status      `json:"status"`
	CommentAdmin string      `json:"commentAdmin,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Validate checks the fields a persisted bill must carry
func (b *Bill) Validate() error {
	return validate.Struct(b)
}

// Identity is the employee currently signed in
type Identity struct {
	Email string
}

// Route names a view the navigation collaborator can switch to
type Route string

const (
	RouteBills   Route = "Bills"
	RouteNewBill Route = "NewBill"
)

// Navigator receives navigation requests from the view logic
type Navigator interface {
	Navigate(route Route)
}

// NavigatorFunc adapts a plain function to Navigator
type NavigatorFunc func(route Route)

func (f NavigatorFunc) Navigate(route Route) { f(route) }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("expense_type", func(fl validator.FieldLevel) bool {
		return ExpenseType(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}
	return v
}
