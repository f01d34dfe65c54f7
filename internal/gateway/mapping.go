package gateway

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"payrecon/internal/domain"
)

// Mapping translates the native statuses of one gateway into payment
// statuses. Unlisted statuses resolve to the fallback, so Map is total.
type Mapping struct {
	gateway  string
	statuses map[string]domain.PaymentStatus
	fallback domain.PaymentStatus
}

// NewMapping builds a mapping. Native status keys are matched case-insensitively.
func NewMapping(gateway string, statuses map[string]domain.PaymentStatus, fallback domain.PaymentStatus) (*Mapping, error) {
	if !fallback.IsValid() {
		return nil, fmt.Errorf("gateway %q: fallback status %q is not valid", gateway, fallback)
	}

	m := &Mapping{
		gateway:  gateway,
		statuses: make(map[string]domain.PaymentStatus, len(statuses)),
		fallback: fallback,
	}
	for native, status := range statuses {
		if !status.IsValid() {
			return nil, fmt.Errorf("gateway %q: status %q maps to unknown status %q", gateway, native, status)
		}
		m.statuses[Status(native).normalized()] = status
	}
	return m, nil
}

// Gateway returns the gateway name the mapping belongs to.
func (m *Mapping) Gateway() string {
	return m.gateway
}

// Map returns the payment status for a native gateway status.
func (m *Mapping) Map(native Status) domain.PaymentStatus {
	if status, ok := m.statuses[native.normalized()]; ok {
		return status
	}
	return m.fallback
}

type mappingFile struct {
	Gateways map[string]struct {
		Fallback string            `yaml:"fallback"`
		Statuses map[string]string `yaml:"statuses"`
	} `yaml:"gateways"`
}

// LoadMappings reads gateway status mappings from a YAML file.
func LoadMappings(path string) (map[string]*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read status map: %w", err)
	}
	return ParseMappings(data)
}

// ParseMappings decodes gateway status mappings. Every gateway must declare a
// valid fallback and every row must map to a known payment status.
func ParseMappings(data []byte) (map[string]*Mapping, error) {
	var file mappingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode status map: %w", err)
	}
	if len(file.Gateways) == 0 {
		return nil, fmt.Errorf("status map declares no gateways")
	}

	mappings := make(map[string]*Mapping, len(file.Gateways))
	for name, gw := range file.Gateways {
		if gw.Fallback == "" {
			return nil, fmt.Errorf("gateway %q: fallback is required", name)
		}

		statuses := make(map[string]domain.PaymentStatus, len(gw.Statuses))
		for native, target := range gw.Statuses {
			statuses[native] = domain.PaymentStatus(target)
		}

		m, err := NewMapping(name, statuses, domain.PaymentStatus(gw.Fallback))
		if err != nil {
			return nil, err
		}
		mappings[name] = m
	}
	return mappings, nil
}
