package services

import (
	"time"

	"github.com/nexconsult/case-fetcher/internal/config"
)

// Portal describes the remote case search page: where it lives, which
// elements the automation touches, and how long each wait may take.
type Portal struct {
	BaseURL string

	CaptchaImage    string
	FormAnchor      string
	CaseTypeField   string
	CaseNumberField string
	FilingYearField string
	CaptchaField    string
	SubmitButton    string
	ErrorBanner     string
	ResultContainer string

	PresenceTimeout  time.Duration
	AttributeTimeout time.Duration
	SettleTimeout    time.Duration
	FetchTimeout     time.Duration
}

// minCaptchaSrcLen rules out blank or placeholder sources during initial paint
const minCaptchaSrcLen = 11

// DefaultPortal returns the eCourts search page layout
func DefaultPortal() Portal {
	return Portal{
		BaseURL:          config.DefaultPortalURL,
		CaptchaImage:     "#captcha_image",
		FormAnchor:       "[name='scid']",
		CaseTypeField:    "[name='case_type']",
		CaseNumberField:  "[name='case_no']",
		FilingYearField:  "[name='case_year']",
		CaptchaField:     "[name='captcha_code']",
		SubmitButton:     "#searchbtn",
		ErrorBanner:      "div.alert-danger",
		ResultContainer:  "div#history_cnr, table.case_details_table",
		PresenceTimeout:  10 * time.Second,
		AttributeTimeout: 15 * time.Second,
		SettleTimeout:    15 * time.Second,
		FetchTimeout:     10 * time.Second,
	}
}

// PortalFromConfig applies configured URL and wait bounds to the default layout
func PortalFromConfig(cfg config.PortalConfig) Portal {
	p := DefaultPortal()
	if cfg.BaseURL != "" {
		p.BaseURL = cfg.BaseURL
	}
	if cfg.PresenceTimeout > 0 {
		p.PresenceTimeout = cfg.PresenceTimeout
	}
	if cfg.AttributeTimeout > 0 {
		p.AttributeTimeout = cfg.AttributeTimeout
	}
	if cfg.SettleTimeout > 0 {
		p.SettleTimeout = cfg.SettleTimeout
	}
	if cfg.CaptchaFetchTimeout > 0 {
		p.FetchTimeout = cfg.CaptchaFetchTimeout
	}
	return p
}
