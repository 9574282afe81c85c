package models

import "time"

// Platform setting keys consulted by the core. Values are strings; consumers
// parse and fall back to the default when the key is absent.
const (
	SettingMarkupPercent     = "platform_markup_percent"
	SettingInvoiceTaxPercent = "invoice_tax_percent"

	DefaultMarkupPercent     = "100"
	DefaultInvoiceTaxPercent = "20"
)

type PlatformSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
