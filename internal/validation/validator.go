package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a validator with the struct-level rules registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// decimal fields are opaque to tag rules, so money checks live here
	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})

	return v
}

func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)

	if req.Shipping.IsNegative() {
		sl.ReportError(req.Shipping, "shipping", "Shipping", "non_negative", "")
	}
	if req.Tax.IsNegative() {
		sl.ReportError(req.Tax, "tax", "Tax", "non_negative", "")
	}
	if req.Subtotal != nil && req.Subtotal.IsNegative() {
		sl.ReportError(*req.Subtotal, "subtotal", "Subtotal", "non_negative", "")
	}
	if req.Total != nil && req.Total.IsNegative() {
		sl.ReportError(*req.Total, "total", "Total", "non_negative", "")
	}
}
