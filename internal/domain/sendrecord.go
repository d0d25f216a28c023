package domain

import "time"

type SendStatus string

const (
	SendPending SendStatus = "pending"
	SendSent    SendStatus = "sent"
	SendFailed  SendStatus = "failed"
	SendBounced SendStatus = "bounced"
)

// ListedCandidate is the snapshot of one candidate as rendered into a
// sent email.
type ListedCandidate struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profileUrl"`
	Title      string `json:"title"`
	Company    string `json:"company"`
}

type Engagement struct {
	Opened    bool       `json:"opened"`
	OpenedAt  *time.Time `json:"openedAt,omitempty"`
	Clicked   bool       `json:"clicked"`
	ClickedAt *time.Time `json:"clickedAt,omitempty"`
	Replied   bool       `json:"replied"`
	RepliedAt *time.Time `json:"repliedAt,omitempty"`
}

// SendRecord is the per-attempt audit log for one outreach email.
// One record is written per dispatch invocation, success or failure;
// the resend sweep mutates the same record, bumping Retries.
type SendRecord struct {
	ID             string            `json:"id"` // uuid
	PostingID      int64             `json:"postingId"`
	CompanyName    string            `json:"companyName"`
	RecipientEmail string            `json:"recipientEmail"`
	RecipientName  string            `json:"recipientName"`
	TemplateID     int64             `json:"templateId,omitempty"`
	Subject        string            `json:"subject"`
	Body           string            `json:"body"`
	Candidates     []ListedCandidate `json:"candidates"`
	TrackingID     string            `json:"trackingId"`
	MessageID      string            `json:"messageId"`
	Status         SendStatus        `json:"status"`
	ErrorMessage   string            `json:"errorMessage,omitempty"`
	Retries        int               `json:"retries"`
	Engagement     Engagement        `json:"engagement"`
	SentAt         time.Time         `json:"sentAt"`
}
