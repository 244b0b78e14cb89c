package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

const (
	// Stored in place of a blank description. Codes have no such sentinel:
	// a blank code normalizes to nil so it can never collide with another
	// blank code under the unique index.
	NoDescription = "no description"
)

var (
	codePattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)
	validate    = validator.New(validator.WithRequiredStructEnabled())
)

// NodePayload is the caller-supplied shape for any node create or update.
type NodePayload struct {
	Name        string `validate:"required"`
	Code        string
	Description string
}

// NormalizedNode is the persistable form. Callers must not persist a payload
// that has not passed through NormalizeNodePayload.
type NormalizedNode struct {
	Name        string
	Code        *string
	Description string
}

// NormalizeNodePayload trims and normalizes a payload, failing on missing
// name or malformed code.
func NormalizeNodePayload(p NodePayload) (NormalizedNode, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := validate.Struct(p); err != nil {
		return NormalizedNode{}, serrors.Validation("Name is required")
	}

	code, err := NormalizeCode(p.Code)
	if err != nil {
		return NormalizedNode{}, err
	}

	description := strings.TrimSpace(p.Description)
	if description == "" {
		description = NoDescription
	}

	return NormalizedNode{
		Name:        p.Name,
		Code:        code,
		Description: description,
	}, nil
}

// NormalizeCode uppercases a trimmed code and checks its alphabet. A blank
// code normalizes to nil, never to an empty string.
func NormalizeCode(code string) (*string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	if !codePattern.MatchString(code) {
		return nil, serrors.Validation("Code can only contain letters, numbers, hyphens, and underscores")
	}
	return &code, nil
}

// CheckOptimisticLock rejects an update whose last-seen timestamp disagrees
// with the stored one by more than a second. A nil lastSeen skips the check;
// the tolerance absorbs sub-second precision loss on the wire.
func CheckOptimisticLock(lastSeen *time.Time, stored time.Time) error {
	if lastSeen == nil {
		return nil
	}
	diff := stored.Sub(*lastSeen)
	if diff < 0 {
		diff = -diff
	}
	if diff > time.Second {
		return serrors.OptimisticLock("record was modified by another admin")
	}
	return nil
}
