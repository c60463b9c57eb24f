package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// client defaults applied when the data file leaves a field empty.
const (
	DefaultPaymentType = "Cash"
	DefaultVoidReason  = "Void by officer"
)

// ErrNoClients is returned when the data file defines no clients.
var ErrNoClients = errors.New("no clients defined")

// Client is one application instance under test.
type Client struct {
	Name             string `yaml:"client_name"`
	BaseURL          string `yaml:"base_url"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	TicketID         string `yaml:"ticket_id"`
	FineAmount       string `yaml:"fine_amount"`
	PaymentType      string `yaml:"payment_type"`
	PayeeEmail       string `yaml:"payee_email"`
	AdjustmentAmount string `yaml:"amount"`
	AdjustmentReason string `yaml:"reason"`
	VoidReason       string `yaml:"void_reason"`
}

type clientsFile struct {
	Clients []Client `yaml:"clients"`
}

// LoadClients reads the client data file. Both yaml and the legacy JSON layout are accepted.
// Passwords are expanded against the environment and empty optional fields get defaults.
func LoadClients(path string) ([]Client, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from config or flags
	if err != nil {
		return nil, fmt.Errorf("read clients file: %w", err)
	}
	return ParseClients(data)
}

// ParseClients decodes and validates client data.
func ParseClients(data []byte) ([]Client, error) {
	var f clientsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse clients: %w", err)
	}
	if len(f.Clients) == 0 {
		return nil, ErrNoClients
	}

	seen := map[string]bool{}
	for i := range f.Clients {
		c := &f.Clients[i]
		c.applyDefaults()
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("client #%d: %w", i, err)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("client #%d: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true
	}
	return f.Clients, nil
}

// SelectClient returns the named client, or the first one when name is empty.
func SelectClient(clients []Client, name string) (Client, error) {
	if len(clients) == 0 {
		return Client{}, ErrNoClients
	}
	if name == "" {
		return clients[0], nil
	}
	for _, c := range clients {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return Client{}, fmt.Errorf("client %q not found", name)
}

// ClientNames lists client names in file order.
func ClientNames(clients []Client) []string {
	names := make([]string, 0, len(clients))
	for _, c := range clients {
		names = append(names, c.Name)
	}
	return names
}

// LoginURL is the base URL with the application's login path.
func (c Client) LoginURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/default/index"
}

func (c *Client) applyDefaults() {
	c.Name = strings.TrimSpace(c.Name)
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.Password = os.ExpandEnv(c.Password)
	if c.PaymentType == "" {
		c.PaymentType = DefaultPaymentType
	}
	if c.PayeeEmail == "" {
		c.PayeeEmail = c.Username
	}
	if c.VoidReason == "" {
		c.VoidReason = DefaultVoidReason
	}
}

func (c *Client) validate() error {
	switch {
	case c.Name == "":
		return errors.New("client_name is required")
	case c.BaseURL == "":
		return errors.New("base_url is required")
	case !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://"):
		return fmt.Errorf("base_url %q must be http(s)", c.BaseURL)
	case c.Username == "":
		return errors.New("username is required")
	case c.TicketID == "":
		return errors.New("ticket_id is required")
	}
	return nil
}
