package main

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// dateFlag is a pflag.Value validating a YYYYMMDD date at parse time,
// the way dbn-go's cmd tree registers custom Var flags (e.g. its
// Encoding/SType flags) instead of validating a bare string later.
type dateFlag string

var _ pflag.Value = (*dateFlag)(nil)

func (d *dateFlag) String() string { return string(*d) }

func (d *dateFlag) Set(s string) error {
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("must be YYYYMMDD: %w", err)
	}
	*d = dateFlag(s)
	return nil
}

func (d *dateFlag) Type() string { return "date" }
