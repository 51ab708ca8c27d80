package auth

import (
	"fmt"
	"strings"
)

// credential is one configured principal.
type credential struct {
	id     string
	secret string
	access Access
}

// parseCredentials reads a configuration string in the format
// "id:secret[:access],id:secret[:access]". The access suffix is optional and
// defaults to read. label prefixes error messages.
func parseCredentials(label, config string) ([]credential, error) {
	trimmed := strings.TrimSpace(config)
	if trimmed == "" {
		return nil, fmt.Errorf("%s: config must not be empty", label)
	}

	var creds []credential
	for _, entry := range strings.Split(trimmed, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf(
				"%s: invalid entry format, expected id:secret[:access]", label,
			)
		}

		id := strings.TrimSpace(parts[0])
		secret := strings.TrimSpace(parts[1])
		if id == "" || secret == "" {
			return nil, fmt.Errorf("%s: id and secret must not be empty", label)
		}

		var rawAccess string
		if len(parts) == 3 {
			rawAccess = strings.TrimSpace(parts[2])
		}
		access, err := ParseAccess(rawAccess)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}

		creds = append(creds, credential{id: id, secret: secret, access: access})
	}

	if len(creds) == 0 {
		return nil, fmt.Errorf("%s: no valid entries found", label)
	}

	return creds, nil
}
