package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"ncs-birthday-mailer/domain/contact"
)

// Errors for config management
var (
	ErrAdminNotFound = errors.New("admin not found")
	ErrDuplicateKey  = errors.New("key already exists")
	ErrInvalidEmail  = errors.New("invalid email format")
)

// ConfigManager provides CRUD operations for config entries
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Admin represents an admin entry that receives run reports
type Admin struct {
	Key     string
	Name    string
	Address string
}

// AddAdmin adds a new report recipient to config
func (m *ConfigManager) AddAdmin(key, name, email string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if key == "" {
		return fmt.Errorf("admin key is required")
	}
	if !ValidEmail(email) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	if m.config.Admins == nil {
		m.config.Admins = make(map[string]RecipientConfig)
	}

	if _, exists := m.config.Admins[key]; exists {
		return fmt.Errorf("%w: admin %q", ErrDuplicateKey, key)
	}

	m.config.Admins[key] = RecipientConfig{Name: name, Address: email}
	return Save(m.config, m.configPath)
}

// ListAdmins returns all admins sorted by key
func (m *ConfigManager) ListAdmins() []Admin {
	result := make([]Admin, 0, len(m.config.Admins))
	for key, rc := range m.config.Admins {
		result = append(result, Admin{
			Key:     key,
			Name:    rc.Name,
			Address: rc.Address,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// GetAdmin gets an admin by key (case-insensitive)
func (m *ConfigManager) GetAdmin(key string) (Admin, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if rc, exists := m.config.Admins[key]; exists {
		return Admin{Key: key, Name: rc.Name, Address: rc.Address}, nil
	}
	return Admin{}, fmt.Errorf("%w: %q", ErrAdminNotFound, key)
}

// RemoveAdmin removes an admin by key
func (m *ConfigManager) RemoveAdmin(key string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if _, exists := m.config.Admins[key]; !exists {
		return fmt.Errorf("%w: %q", ErrAdminNotFound, key)
	}

	delete(m.config.Admins, key)
	return Save(m.config, m.configPath)
}

// UpdateAdmin updates an admin's name and/or email
func (m *ConfigManager) UpdateAdmin(key, name, email string) error {
	key = strings.ToLower(strings.TrimSpace(key))

	rc, exists := m.config.Admins[key]
	if !exists {
		return fmt.Errorf("%w: %q", ErrAdminNotFound, key)
	}

	// Update only provided values
	if name = strings.TrimSpace(name); name != "" {
		rc.Name = name
	}
	if email = strings.TrimSpace(email); email != "" {
		if !ValidEmail(email) {
			return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
		}
		rc.Address = email
	}

	m.config.Admins[key] = rc
	return Save(m.config, m.configPath)
}

// ValidEmail applies the same format rule used for contact addresses
func ValidEmail(email string) bool {
	return contact.ValidFormat(strings.ToLower(email))
}

// SuggestAddAdminCommand returns the command to add a missing admin
func SuggestAddAdminCommand(key string) string {
	return fmt.Sprintf(`ncs-birthday-mailer config add admin --key %s --name "Admin Name" --email "email@example.com"`, key)
}
