package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"leave_portal/internal/domain/model"

	"github.com/spf13/viper"
)

// LoadPolicy reads the leave policy table from a YAML file of the form
//
//	leave_types:
//	  - leave_type: Annual
//	    days: 20
//
// A missing file yields model.DefaultPolicy. Entries are kept as a list because
// viper lowercases map keys and leave types are case-sensitive on the wire.
func LoadPolicy(path string) (model.Policy, error) {
	if path == "" {
		return model.DefaultPolicy(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Printf("INFO: No policy file at %s, using default leave policy", path)
		return model.DefaultPolicy(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read policy file %s: %w", path, err)
	}

	var policy model.Policy
	if err := v.UnmarshalKey("leave_types", &policy); err != nil {
		return nil, fmt.Errorf("decode policy file %s: %w", path, err)
	}
	if len(policy) == 0 {
		return nil, fmt.Errorf("policy file %s defines no leave_types", path)
	}
	seen := make(map[string]bool, len(policy))
	for _, a := range policy {
		if a.LeaveType == "" || a.Days < 0 {
			return nil, fmt.Errorf("policy file %s: invalid entry %+v", path, a)
		}
		if seen[a.LeaveType] {
			return nil, fmt.Errorf("policy file %s: duplicate leave type %q", path, a.LeaveType)
		}
		seen[a.LeaveType] = true
	}
	return policy, nil
}
