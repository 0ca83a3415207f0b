package httpserver

import (
	"time"

	"indekost/internal/repo"
)

type ownerView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toOwnerView(o *repo.Owner) ownerView {
	return ownerView{ID: o.ID, Name: o.Name, Email: o.Email, CreatedAt: o.CreatedAt}
}

type roomView struct {
	ID            string      `json:"id"`
	RoomNumber    string      `json:"room_number"`
	Price         float64     `json:"price"`
	Status        string      `json:"status"`
	CurrentTenant *tenantView `json:"current_tenant,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func toRoomView(r *repo.Room) roomView {
	v := roomView{
		ID:         r.ID,
		RoomNumber: r.RoomNumber,
		Price:      r.Price,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.CurrentTenant != nil {
		t := toTenantView(r.CurrentTenant)
		v.CurrentTenant = &t
	}
	return v
}

func toRoomViews(rooms []repo.Room) []roomView {
	out := make([]roomView, 0, len(rooms))
	for i := range rooms {
		out = append(out, toRoomView(&rooms[i]))
	}
	return out
}

type tenantView struct {
	ID             string    `json:"id"`
	RoomID         string    `json:"room_id,omitempty"`
	Name           string    `json:"name"`
	WhatsAppNumber string    `json:"whatsapp_number"`
	EntryDate      string    `json:"entry_date"`
	Status         string    `json:"status"`
	Room           *roomView `json:"room,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toTenantView(t *repo.Tenant) tenantView {
	v := tenantView{
		ID:             t.ID,
		RoomID:         t.RoomID,
		Name:           t.Name,
		WhatsAppNumber: t.WhatsAppNumber,
		EntryDate:      t.EntryDate.Format("2006-01-02"),
		Status:         string(t.Status),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.Room != nil {
		r := toRoomView(t.Room)
		v.Room = &r
	}
	return v
}

func toTenantViews(tenants []repo.Tenant) []tenantView {
	out := make([]tenantView, 0, len(tenants))
	for i := range tenants {
		out = append(out, toTenantView(&tenants[i]))
	}
	return out
}

type meterView struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Type      string    `json:"type"`
	LastValue float64   `json:"last_value"`
	Threshold float64   `json:"threshold"`
	Unit      string    `json:"unit"`
	IsLow     bool      `json:"is_low"`
	UpdatedBy *string   `json:"updated_by,omitempty"`
	Room      *roomView `json:"room,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toMeterView(m *repo.Meter) meterView {
	v := meterView{
		ID:        m.ID,
		RoomID:    m.RoomID,
		Type:      string(m.Type),
		LastValue: m.LastValue,
		Threshold: m.Threshold,
		Unit:      m.UnitLabel(),
		IsLow:     m.IsLow(),
		UpdatedBy: m.UpdatedBy,
		UpdatedAt: m.UpdatedAt,
	}
	if m.Room != nil {
		r := toRoomView(m.Room)
		v.Room = &r
	}
	return v
}

func toMeterViews(meters []repo.Meter) []meterView {
	out := make([]meterView, 0, len(meters))
	for i := range meters {
		out = append(out, toMeterView(&meters[i]))
	}
	return out
}

type paymentView struct {
	ID             string      `json:"id"`
	TenantID       string      `json:"tenant_id"`
	Amount         float64     `json:"amount"`
	ProofOfPayment *string     `json:"proof_of_payment,omitempty"`
	PaymentDate    *time.Time  `json:"payment_date,omitempty"`
	Period         string      `json:"period"`
	Status         string      `json:"status"`
	Tenant         *tenantView `json:"tenant,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func toPaymentView(p *repo.Payment) paymentView {
	v := paymentView{
		ID:             p.ID,
		TenantID:       p.TenantID,
		Amount:         p.Amount,
		ProofOfPayment: p.ProofOfPayment,
		PaymentDate:    p.PaymentDate,
		Period:         p.Period,
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.Tenant != nil {
		t := toTenantView(p.Tenant)
		v.Tenant = &t
	}
	return v
}

func toPaymentViews(payments []repo.Payment) []paymentView {
	out := make([]paymentView, 0, len(payments))
	for i := range payments {
		out = append(out, toPaymentView(&payments[i]))
	}
	return out
}

type ticketView struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	RoomID      string     `json:"room_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PhotoPath   *string    `json:"photo_path,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toTicketView(t *repo.Ticket) ticketView {
	return ticketView{
		ID:          t.ID,
		TenantID:    t.TenantID,
		RoomID:      t.RoomID,
		Title:       t.Title,
		Description: t.Description,
		PhotoPath:   t.PhotoPath,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		ResolvedAt:  t.ResolvedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTicketViews(tickets []repo.Ticket) []ticketView {
	out := make([]ticketView, 0, len(tickets))
	for i := range tickets {
		out = append(out, toTicketView(&tickets[i]))
	}
	return out
}
