package domain

import "errors"

var (
	// ErrCartNotFound is returned when no cart record exists for the user.
	ErrCartNotFound = errors.New("cart not found")
	// ErrItemNotFound is returned when the referenced cart line does not exist.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrOrderNotFound is returned when the requested order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound is returned when the catalog cannot resolve a product.
	ErrProductNotFound = errors.New("product not found")
	// ErrEmptyCart is returned when checkout is attempted on a missing or empty cart.
	ErrEmptyCart = errors.New("cart is empty or does not exist")
	// ErrProductGone is returned when a product referenced by the cart no longer
	// exists at checkout time. The whole checkout aborts, no partial order.
	ErrProductGone = errors.New("a product in the cart no longer exists")
	// ErrCheckoutConflict is returned when a checkout loses a race with a
	// concurrent checkout for the same user.
	ErrCheckoutConflict = errors.New("checkout conflicts with a concurrent request")
)

// ValidationError marks an error as caused by bad caller input rather than a
// system fault. Transports map it to a client error status.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
