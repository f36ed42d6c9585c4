package config

// DomainConfig holds tunable business rules for note content.
// Kept separate from infrastructure config so domain code never reads the
// environment.
type DomainConfig struct {
	MaxTitleLength     int
	MaxBodyLength      int
	MaxAttachmentBytes int
}

// DefaultDomainConfig returns the default business rule configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxTitleLength:     200,
		MaxBodyLength:      50000,
		MaxAttachmentBytes: 10 << 20,
	}
}
