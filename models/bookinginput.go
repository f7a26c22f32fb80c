package models

// SlotBookingRequest is the body of POST /api/slots/book.
type SlotBookingRequest struct {
	User           PilgrimInput   `json:"user"`
	Slot           string         `json:"slot" validate:"required"`
	BookingDetails BookingDetails `json:"bookingDetails"`
}

type PilgrimInput struct {
	FullName      string `json:"fullName" validate:"required,max=120"`
	Phone         string `json:"phone" validate:"required,inmobile"`
	Email         string `json:"email" validate:"omitempty,email"`
	AadhaarNumber string `json:"aadhaarNumber" validate:"required,aadhaar"`
}

type BookingDetails struct {
	NumberOfPeople int `json:"numberOfPeople" validate:"min=1,max=10"`
}

// QueueBookingRequest is the body of POST /api/queue/form. TicketID and
// GateNumber are normally left empty and issued by the server.
type QueueBookingRequest struct {
	TempleName      string `json:"templeName" validate:"required,max=120"`
	UserName        string `json:"userName" validate:"required,max=120"`
	Phone           string `json:"phone" validate:"required,inmobile"`
	NumberOfPersons int    `json:"numberOfPersons" validate:"min=1"`
	Date            string `json:"date" validate:"required,isodate"`
	TicketID        string `json:"ticketId,omitempty" validate:"omitempty,max=64"`
	GateNumber      string `json:"gateNumber,omitempty"`
}

// CreateSlotRequest is the admin body of POST /api/slots.
type CreateSlotRequest struct {
	Date     string `json:"date" validate:"required,isodate"`
	Time     string `json:"time" validate:"required,max=40"`
	Ghat     string `json:"ghat" validate:"required,max=120"`
	Capacity int    `json:"capacity" validate:"min=1"`
}

// UpdateSlotRequest is the admin body of PATCH /api/slots/:id.
type UpdateSlotRequest struct {
	Date     *string `json:"date" validate:"omitempty,isodate"`
	Time     *string `json:"time" validate:"omitempty,min=1,max=40"`
	Ghat     *string `json:"ghat" validate:"omitempty,min=1,max=120"`
	Capacity *int    `json:"capacity" validate:"omitempty,min=1"`
}

func (r UpdateSlotRequest) IsEmpty() bool {
	return r.Date == nil && r.Time == nil && r.Ghat == nil && r.Capacity == nil
}

// StatusUpdateRequest is the admin body of PATCH /api/bookings/:id/status.
type StatusUpdateRequest struct {
	Status BookingStatus `json:"status" validate:"required,oneof=Cancelled Completed"`
}

// AdminLoginRequest exchanges admin credentials for a bearer token.
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
