// Package status maps transport status codes, plus a few synthetic
// application codes, onto the user-facing messages the UI shows. Every error
// the core surfaces ends up here; nothing is fatal.
package status

import (
	"fmt"
)

// Synthetic codes extend the HTTP range for outcomes the transport cannot
// express on its own.
const (
	Created             = 201
	CreatedUser         = 20101
	CreatedOrder        = 20103
	BadRequestOrder     = 400
	BadRequestUser      = 40001
	BadRequestCoupon    = 40002
	Unauthorized        = 401
	NotAllowed          = 405
	InternalServerError = 500
)

// Message is one user-facing notification: the text, where the UI navigates
// next, and the severity color.
type Message struct {
	Name  string `json:"name"`
	Href  string `json:"href"`
	Color string `json:"color"`
}

// ForText resolves a code with a subject interpolated into the text.
func ForText(code int, text string) Message {
	switch code {
	case Created:
		return Message{
			Name:  fmt.Sprintf("The %s has been created successfully", text),
			Href:  "/details",
			Color: "green",
		}
	case CreatedUser:
		return Message{
			Name:  fmt.Sprintf("The user %s has been registered", text),
			Href:  "/",
			Color: "green",
		}
	case CreatedOrder:
		return Message{
			Name:  fmt.Sprintf("Order sent by name %s has been registered", text),
			Href:  "/invoice",
			Color: "green",
		}
	case BadRequestUser:
		return Message{
			Name:  "Invalid form data. Please check your inputs",
			Color: "red",
		}
	case BadRequestCoupon:
		return Message{
			Name:  "Invalid form data coupon. Please check your inputs",
			Color: "red",
		}
	case BadRequestOrder:
		return Message{
			Name:  "Invalid data invoice. Please check your inputs",
			Color: "red",
		}
	case Unauthorized:
		return Message{
			Name:  fmt.Sprintf("User %s is not authorized", text),
			Href:  "/login",
			Color: "red",
		}
	case NotAllowed:
		return Message{
			Name:  fmt.Sprintf("User %s not found. Please check name or password", text),
			Color: "red",
		}
	case InternalServerError:
		return Message{
			Name:  "An internal server error occurred",
			Href:  "/",
			Color: "red",
		}
	}
	return Message{}
}

// ForStatus resolves a bare code with no subject.
func ForStatus(code int) Message {
	return ForText(code, "")
}
