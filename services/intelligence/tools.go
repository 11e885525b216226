package intelligence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	customerRepo "bookline/database/repository/customer"
	"bookline/models"
	"bookline/services/booking"
	"bookline/services/catalog"
	"bookline/services/conversation"
	"bookline/services/notification"
	"bookline/utils"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
)

// toolDeclarations lists every function the model may call. The booking
// tools mirror the dispatcher operations one to one.
func toolDeclarations() []*genai.Tool {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "list_offerings",
				Description: "List the services, products or menu this business offers.",
				Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}},
			},
			{
				Name:        "find_availability",
				Description: "Find free booking slots on a date.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"date":        str("Date as YYYY-MM-DD."),
						"resource_id": str("Optional professional id or name."),
						"service":     str("Optional service name, used to pick the slot length."),
					},
					Required: []string{"date"},
				},
			},
			{
				Name:        "create_booking",
				Description: "Create a booking once date, time and required details are known.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"date":             str("Date as YYYY-MM-DD."),
						"time":             str("Start time as HH:MM."),
						"service":          str("Service or product name."),
						"resource_id":      str("Professional id or name, when the customer chose one."),
						"delivery_address": str("Delivery address, for store orders."),
						"party_size":       str("Number of guests, for restaurant reservations."),
						"area":             str("Seating area, for restaurants."),
						"occasion":         str("Special occasion, for restaurants."),
					},
					Required: []string{"date", "time"},
				},
			},
			{
				Name:        "modify_booking",
				Description: "Move an existing booking to a new date, time or professional.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"booking_id":  str("Id of the booking to change."),
						"new_date":    str("New date as YYYY-MM-DD, if changing."),
						"new_time":    str("New start time as HH:MM, if changing."),
						"resource_id": str("New professional, if changing."),
					},
					Required: []string{"booking_id"},
				},
			},
			{
				Name:        "cancel_booking",
				Description: "Cancel an existing booking.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"booking_id": str("Id of the booking to cancel."),
					},
					Required: []string{"booking_id"},
				},
			},
			{
				Name:        "confirm_booking",
				Description: "Record the customer's answer to a reminder: yes, no or reschedule.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"response":   str("One of yes, no, reschedule."),
						"booking_id": str("Booking id, only when the customer has several."),
					},
					Required: []string{"response"},
				},
			},
			{
				Name:        "list_my_bookings",
				Description: "List the customer's upcoming bookings.",
				Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}},
			},
			{
				Name:        "escalate_to_human",
				Description: "Hand the conversation to a human operator when the customer needs one.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"reason": str("Short reason for the handoff."),
					},
					Required: []string{"reason"},
				},
			},
			{
				Name:        "save_customer_field",
				Description: "Remember a detail the customer shared, like their name or email.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"field": str("One of: full_name, email, notes."),
						"value": str("The value to remember."),
					},
					Required: []string{"field", "value"},
				},
			},
		},
	}}
}

// ToolExecutor runs model function calls against the real services.
type ToolExecutor struct {
	Booking   booking.BookingService
	Ownership conversation.OwnershipStore
	Customers customerRepo.CustomerRepository
	Notifier  notification.Service
	Catalog   catalog.Service
}

// Escalated is set on the result map under this key when the
// conversation was handed off during the tool loop.
const escalatedKey = "escalated"

// Execute dispatches one function call and returns the response payload
// fed back to the model. Errors from the booking taxonomy become
// user-relayable messages; everything else becomes a generic apology.
func (e *ToolExecutor) Execute(ctx context.Context, tenant *models.TenantConfig, customerRef string, call genai.FunctionCall) map[string]any {
	args := stringArgs(call.Args)

	switch call.Name {
	case "list_offerings":
		result, err := e.Booking.ListOfferings(ctx, tenant)
		if err != nil {
			return errResult(err)
		}
		out := map[string]any{"offerings": result}
		if e.Catalog != nil && tenant.Catalog.PDFURL != "" {
			if text, err := e.Catalog.MenuText(ctx, tenant); err == nil && text != "" {
				out["menu_text"] = text
			}
		}
		return out

	case "find_availability":
		result, err := e.Booking.FindAvailability(ctx, tenant, booking.AvailabilityRequest{
			Date:       args["date"],
			ResourceID: args["resource_id"],
			Service:    args["service"],
		})
		if err != nil {
			return errResult(err)
		}
		return map[string]any{"availability": result}

	case "create_booking":
		result, err := e.Booking.CreateBooking(ctx, tenant, booking.CreateRequest{
			CustomerRef: customerRef,
			Date:        args["date"],
			Time:        args["time"],
			Service:     args["service"],
			ResourceID:  args["resource_id"],
			Attributes:  bookingAttributes(args),
		})
		if err != nil {
			return errResult(err)
		}
		return map[string]any{"booking": result.Booking, "message": result.Message}

	case "modify_booking":
		result, err := e.Booking.ModifyBooking(ctx, tenant, booking.ModifyRequest{
			BookingID:   args["booking_id"],
			CustomerRef: customerRef,
			NewDate:     args["new_date"],
			NewTime:     args["new_time"],
			ResourceID:  args["resource_id"],
		})
		if err != nil {
			return errResult(err)
		}
		return map[string]any{"booking": result.Booking, "message": result.Message}

	case "cancel_booking":
		result, err := e.Booking.CancelBooking(ctx, tenant, customerRef, args["booking_id"])
		if err != nil {
			return errResult(err)
		}
		return map[string]any{"message": result.Message}

	case "confirm_booking":
		result, err := e.Booking.ConfirmBooking(ctx, tenant, customerRef, args["booking_id"],
			booking.ConfirmResponse(strings.ToLower(args["response"])))
		if err != nil {
			return errResult(err)
		}
		out := map[string]any{"message": result.Message}
		if result.NeedsNewTime {
			out["ask_for_new_time"] = true
		}
		return out

	case "list_my_bookings":
		title, bookings, err := e.Booking.ListMyBookings(ctx, tenant, customerRef)
		if err != nil {
			return errResult(err)
		}
		return map[string]any{"title": title, "bookings": bookings}

	case "escalate_to_human":
		if err := e.Ownership.MarkEscalated(ctx, tenant.ID, customerRef, "", args["reason"]); err != nil {
			return errResult(err)
		}
		e.Notifier.NotifyEscalation(ctx, tenant, customerRef, args["reason"])
		return map[string]any{escalatedKey: true, "message": "A member of our team will continue this conversation shortly."}

	case "save_customer_field":
		if err := e.Customers.SetField(tenant.ID, customerRef, args["field"], args["value"]); err != nil {
			utils.GetLogger().Warn("customer field save failed",
				zap.String("tenant", tenant.ID),
				zap.String("field", args["field"]),
				zap.Error(err))
			// Not worth surfacing; the conversation continues either way.
			return map[string]any{"saved": false}
		}
		return map[string]any{"saved": true}

	default:
		return map[string]any{"error": fmt.Sprintf("unknown tool %q", call.Name)}
	}
}

func bookingAttributes(args map[string]string) map[string]string {
	attrs := map[string]string{}
	for arg, key := range map[string]string{
		"delivery_address": models.AttrDeliveryAddress,
		"party_size":       models.AttrPartySize,
		"area":             models.AttrArea,
		"occasion":         models.AttrOccasion,
	} {
		if v := args[arg]; v != "" {
			attrs[key] = v
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func stringArgs(args map[string]any) map[string]string {
	out := make(map[string]string, len(args))
	for k, v := range args {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strings.TrimSuffix(fmt.Sprintf("%v", val), ".0")
		default:
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return out
}

// errResult maps an operation error onto a payload the model can relay.
// Internal detail never crosses this boundary.
func errResult(err error) map[string]any {
	var (
		validation  *booking.ValidationError
		resource    *booking.ResourceRequiredError
		unavailable *booking.SlotUnavailableError
		notFound    *booking.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return map[string]any{"error": validation.Message, "field": validation.Field}
	case errors.As(err, &resource):
		return map[string]any{
			"error":   "the customer must choose a professional first",
			"options": resource.Options,
		}
	case errors.As(err, &unavailable):
		return map[string]any{"error": unavailable.Reason, "retry_with_other_slot": true}
	case errors.As(err, &notFound):
		return map[string]any{"error": "no matching booking was found"}
	default:
		utils.GetLogger().Error("tool execution failed", zap.Error(err))
		return map[string]any{"error": "something went wrong on our side, please try again in a moment"}
	}
}
