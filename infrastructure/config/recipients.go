package config

import (
	"sort"
	"strings"

	"ncs-birthday-mailer/domain/notification"
)

// AdminRecipients returns the report recipients in key order, skipping
// entries without an address and repeated addresses.
func (c *Config) AdminRecipients() []notification.Recipient {
	keys := make([]string, 0, len(c.Admins))
	for key := range c.Admins {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var result []notification.Recipient
	seen := make(map[string]bool)
	for _, key := range keys {
		rc := c.Admins[key]
		addr := strings.TrimSpace(rc.Address)
		if addr == "" || seen[strings.ToLower(addr)] {
			continue
		}
		seen[strings.ToLower(addr)] = true
		result = append(result, notification.Recipient{Name: rc.Name, Address: addr})
	}
	return result
}

// Sender returns the configured sender identity
func (c *Config) Sender() notification.Recipient {
	return notification.Recipient{
		Name:    c.Mail.SenderName,
		Address: c.Mail.SenderAddress,
	}
}
