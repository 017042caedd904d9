package orders

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ashendes/welcome-home/internal/addons"
	"github.com/ashendes/welcome-home/internal/apperrors"
	"github.com/ashendes/welcome-home/internal/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// User-facing validation messages.
const (
	MsgArrivalRequired = "Arrival date and address are required."
	MsgBadArrivalDate  = "Arrival date must be YYYY-MM-DD."
	MsgBadArrivalTime  = "Arrival time must be HH:MM."
	MsgInvalidEmail    = "Invalid email."
	MsgNoItems         = "Order must contain at least one cart item."
)

var validate = validator.New()

type itemRules struct {
	ProductID int    `validate:"min=1"`
	Name      string `validate:"required"`
	Quantity  int    `validate:"min=1"`
}

var itemMessages = map[string]string{
	"ProductID": "product id is required.",
	"Name":      "name is required.",
	"Quantity":  "quantity must be at least 1.",
}

// Validate checks a create request and returns the add-on selection it
// names. Checks run in a fixed order and the first failure wins.
func Validate(req models.CreateOrderRequest) (models.AddOnSelection, error) {
	none := models.AddOnSelection{}

	date := strings.TrimSpace(req.ArrivalDate)
	if date == "" || strings.TrimSpace(req.Address) == "" {
		return none, apperrors.Validation(MsgArrivalRequired)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return none, apperrors.Validation(MsgBadArrivalDate)
	}
	if t := strings.TrimSpace(req.ArrivalTime); t != "" {
		if _, err := time.Parse(timeLayout, t); err != nil || len(t) != len(timeLayout) {
			return none, apperrors.Validation(MsgBadArrivalTime)
		}
	}

	if email := strings.TrimSpace(req.ContactEmail); email != "" {
		if err := validate.Var(email, "email"); err != nil {
			return none, apperrors.Validation(MsgInvalidEmail)
		}
	}

	lines := req.Lines()
	if len(lines) == 0 {
		return none, apperrors.Validation(MsgNoItems)
	}
	for i, in := range lines {
		if msg := validateItem(in); msg != "" {
			return none, apperrors.Validationf("Item %d: %s", i+1, msg)
		}
	}

	keys := make([]string, 0, len(req.AddOns))
	for key := range req.AddOns {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !addons.Known(key) {
			return none, apperrors.Validationf("Unknown add-on: %s.", key)
		}
	}
	sel, err := addons.FromMap(req.AddOns)
	if err != nil {
		return none, apperrors.Validation(err.Error())
	}
	return sel, nil
}

// validateItem returns the message for the first broken item rule, or "".
func validateItem(in models.OrderItemInput) string {
	err := validate.Struct(itemRules{
		ProductID: in.CatalogID(),
		Name:      strings.TrimSpace(in.Name),
		Quantity:  in.Quantity,
	})
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return itemMessages[fieldErrs[0].Field()]
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
