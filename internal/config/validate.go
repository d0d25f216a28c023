package config

import "fmt"

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

func Validate(cfg Config) Validation {
	var res Validation

	if cfg.Automation.IntervalMinutes < 1 {
		res.addErr("automation.interval_minutes must be >= 1")
	}
	if cfg.Automation.SendDelayMillis < 100 {
		res.addWarn("automation.send_delay_millis < 100 risks transport rate limits")
	}
	if cfg.Automation.CandidateCount < 1 || cfg.Automation.CandidateCount > 10 {
		res.addErr("automation.candidate_count must be 1..10")
	}
	if cfg.Automation.SendEmails {
		if cfg.Providers.SendGrid.APIKey == "" {
			res.addWarn("send_emails enabled but no sendgrid api key; dispatch will fail")
		}
		if cfg.Providers.SendGrid.FromEmail == "" {
			res.addErr("send_emails enabled but providers.sendgrid.from_email is empty")
		}
	}
	if cfg.Engage.Enabled && (cfg.Engage.IMAPHost == "" || cfg.Engage.Username == "") {
		res.addErr("engage enabled but missing imap_host/username")
	}
	return res
}
