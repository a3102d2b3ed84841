package encryption

import (
	"fmt"
)

// EncryptFields seals the named string fields of a record in place.
// Missing fields and non-string values are skipped.
func EncryptFields(enc Encryptor, record map[string]any, fields []string) error {
	for _, name := range fields {
		val, ok := record[name]
		if !ok {
			continue
		}
		s, ok := val.(string)
		if !ok || s == "" {
			continue
		}
		sealed, err := enc.Encrypt(s)
		if err != nil {
			return fmt.Errorf("encrypt field %q: %w", name, err)
		}
		record[name] = sealed
	}
	return nil
}

// DecryptFields opens the named string fields of a record in place.
func DecryptFields(enc Encryptor, record map[string]any, fields []string) error {
	for _, name := range fields {
		val, ok := record[name]
		if !ok {
			continue
		}
		s, ok := val.(string)
		if !ok || s == "" {
			continue
		}
		opened, err := enc.Decrypt(s)
		if err != nil {
			return fmt.Errorf("decrypt field %q: %w", name, err)
		}
		record[name] = opened
	}
	return nil
}
