package toolexec

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// VersionError reports a tool older than the required minimum.
type VersionError struct {
	Tool string
	Have string
	Want string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("%s %s is too old, need at least %s", e.Tool, e.Have, e.Want)
}

var versionRE = regexp.MustCompile(`\d+(\.\d+)+`)

// ParseVersion extracts the first dotted version number from out and returns
// it in canonical semver form ("v3.28.1"). Leading zeros are dropped, so
// "2.15.05" becomes "v2.15.5".
func ParseVersion(out string) (string, bool) {
	m := versionRE.FindString(out)
	if m == "" {
		return "", false
	}
	parts := strings.Split(m, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	for i, p := range parts {
		p = strings.TrimLeft(p, "0")
		if p == "" {
			p = "0"
		}
		parts[i] = p
	}
	v := semver.Canonical("v" + strings.Join(parts, "."))
	return v, v != ""
}

// RequireVersion runs "<tool> --version" and checks the reported version is
// at least min (a semver string such as "v3.16").
func (r *Runner) RequireVersion(ctx context.Context, tool, min string) (string, error) {
	res, err := r.Run(ctx, Cmd{Name: tool, Args: []string{"--version"}})
	if err != nil {
		return "", err
	}
	have, ok := ParseVersion(string(res.Stdout) + string(res.Stderr))
	if !ok {
		return "", fmt.Errorf("cannot determine %s version from %q", tool, strings.TrimSpace(string(res.Stdout)))
	}
	if semver.Compare(have, min) < 0 {
		return have, &VersionError{Tool: tool, Have: have, Want: min}
	}
	return have, nil
}
