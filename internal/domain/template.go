package domain

// Template is an outreach email template with {{var}} placeholders,
// selected by sector tag.
type Template struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"` // unique
	Sector  string `json:"sector"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Active  bool   `json:"active"`

	Sent    int `json:"sent"`
	Opened  int `json:"opened"`
	Clicked int `json:"clicked"`
	Replied int `json:"replied"`
}

func rate(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return float64(n) / float64(of) * 100
}

func (t Template) OpenRate() float64  { return rate(t.Opened, t.Sent) }
func (t Template) ClickRate() float64 { return rate(t.Clicked, t.Sent) }
func (t Template) ReplyRate() float64 { return rate(t.Replied, t.Sent) }
