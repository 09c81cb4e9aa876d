package overlay

import (
	"encoding/json"
	"os"

	"github.com/releasetools/fixvet/pkg/errors"
)

// The two-file JSON variant predates the unified metadata file. It is still
// accepted as input but callers should migrate to a single YAML overlay.

// legacyFixups mirrors the old --fixup-commits JSON schema.
type legacyFixups struct {
	Fixups map[string]string `json:"fixups"`
	Ignore []string          `json:"ignore"`
}

// legacyWhitelist mirrors the old --whitelist-jiras JSON schema.
type legacyWhitelist struct {
	WhitelistJiras []string `json:"whitelist_jiras"`
}

// LoadLegacy builds an overlay from the deprecated two-file JSON inputs.
// Either path may be empty. The returned overlay carries no refs; the
// caller supplies them before validation.
func LoadLegacy(fixupPath, whitelistPath string) (*Overlay, error) {
	o := Empty()

	if fixupPath != "" {
		data, err := os.ReadFile(fixupPath)
		if err != nil {
			return nil, errors.WrapIO("read", fixupPath, err)
		}
		var f legacyFixups
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, errors.WrapParse("json", fixupPath, err)
		}
		o.Fixups = f.Fixups
		o.IgnoreCommits = f.Ignore
	}

	if whitelistPath != "" {
		data, err := os.ReadFile(whitelistPath)
		if err != nil {
			return nil, errors.WrapIO("read", whitelistPath, err)
		}
		var w legacyWhitelist
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, errors.WrapParse("json", whitelistPath, err)
		}
		o.IgnoreIssues = w.WhitelistJiras
	}

	return o, nil
}

// Merge folds another overlay into this one. Fixups and ignore lists are
// unioned; refs from other win only when unset here.
func (o *Overlay) Merge(other *Overlay) {
	if other == nil {
		return
	}
	if o.StartRef == "" {
		o.StartRef = other.StartRef
	}
	if o.EndRef == "" {
		o.EndRef = other.EndRef
	}
	if len(other.Fixups) > 0 && o.Fixups == nil {
		o.Fixups = make(map[string]string, len(other.Fixups))
	}
	for k, v := range other.Fixups {
		if _, exists := o.Fixups[k]; !exists {
			o.Fixups[k] = v
		}
	}
	o.IgnoreCommits = append(o.IgnoreCommits, other.IgnoreCommits...)
	o.IgnoreIssues = append(o.IgnoreIssues, other.IgnoreIssues...)
}
