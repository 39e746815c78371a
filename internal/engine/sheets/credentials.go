package sheets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// RequiredCredentialFields are the service-account keys that must be present, in report order.
var RequiredCredentialFields = []string{"type", "project_id", "private_key", "client_email", "token_uri"}

const (
	pemBegin = "BEGIN PRIVATE KEY"
	pemEnd   = "END PRIVATE KEY"
)

// CredentialStage identifies which validation step rejected a credential payload.
type CredentialStage string

const (
	StageMissingSecret CredentialStage = "missing_secret"
	StageMalformedJSON CredentialStage = "malformed_json"
	StageMissingFields CredentialStage = "missing_fields"
	StageMalformedKey  CredentialStage = "malformed_key"
)

// CredentialError reports a failed credential check.
type CredentialError struct {
	Stage   CredentialStage
	Source  string   // where the secret was looked up
	Missing []string // StageMissingFields only
	Reason  string
	Err     error
}

func (e *CredentialError) Error() string {
	switch e.Stage {
	case StageMissingSecret:
		return fmt.Sprintf("credentials: no secret found in %s", e.Source)
	case StageMalformedJSON:
		return fmt.Sprintf("credentials: invalid JSON in %s: %v", e.Source, e.Err)
	case StageMissingFields:
		return fmt.Sprintf("credentials: missing required fields: %s", strings.Join(e.Missing, ", "))
	case StageMalformedKey:
		return "credentials: malformed private_key: " + e.Reason
	}
	return "credentials: " + string(e.Stage)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// Credentials is a validated service-account record.
type Credentials struct {
	Type        string
	ProjectID   string
	PrivateKey  string
	ClientEmail string
	TokenURI    string

	raw []byte // full document, provider-defined fields included
}

// JSON returns the original credential document.
func (c *Credentials) JSON() []byte { return c.raw }

// SecretSource yields the raw credential document.
// ok is false when the source has no entry at all.
type SecretSource interface {
	Lookup() (payload string, ok bool, err error)
	String() string
}

// EnvSecret reads the document from an environment variable.
type EnvSecret string

func (e EnvSecret) Lookup() (string, bool, error) {
	v, ok := os.LookupEnv(string(e))
	if !ok || strings.TrimSpace(v) == "" {
		return "", false, nil
	}
	return v, true, nil
}

func (e EnvSecret) String() string { return "env " + string(e) }

// FileSecret reads the document from a JSON key file.
type FileSecret string

func (f FileSecret) Lookup() (string, bool, error) {
	if f == "" {
		return "", false, nil
	}
	data, err := os.ReadFile(string(f))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", string(f), err)
	}
	return string(data), true, nil
}

func (f FileSecret) String() string { return "file " + string(f) }

// StaticSecret holds the document in memory.
type StaticSecret string

func (s StaticSecret) Lookup() (string, bool, error) {
	if s == "" {
		return "", false, nil
	}
	return string(s), true, nil
}

func (s StaticSecret) String() string { return "static secret" }

// FirstSecret tries each source in order and uses the first that has an entry.
type FirstSecret []SecretSource

func (f FirstSecret) Lookup() (string, bool, error) {
	for _, src := range f {
		v, ok, err := src.Lookup()
		if err != nil {
			return "", false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

func (f FirstSecret) String() string {
	names := make([]string, 0, len(f))
	for _, src := range f {
		names = append(names, src.String())
	}
	return strings.Join(names, " or ")
}

// ValidateCredentials runs the ordered checks on the secret and returns a
// record ready for client construction. Every failure is a *CredentialError.
//
// The private key check only looks for the PEM markers and a real newline.
// It catches the usual copy/paste damage; the key is not parsed here.
func ValidateCredentials(src SecretSource) (*Credentials, error) {
	payload, ok, err := src.Lookup()
	if err != nil {
		return nil, &CredentialError{Stage: StageMissingSecret, Source: src.String(), Err: err}
	}
	if !ok {
		return nil, &CredentialError{Stage: StageMissingSecret, Source: src.String()}
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, &CredentialError{Stage: StageMalformedJSON, Source: src.String(), Err: err}
	}
	if doc == nil {
		return nil, &CredentialError{Stage: StageMalformedJSON, Source: src.String(), Err: errors.New("document is null")}
	}

	var missing []string
	for _, k := range RequiredCredentialFields {
		if s, ok := doc[k].(string); !ok || strings.TrimSpace(s) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, &CredentialError{Stage: StageMissingFields, Source: src.String(), Missing: missing}
	}

	key := doc["private_key"].(string)
	if reason := checkPrivateKey(key); reason != "" {
		return nil, &CredentialError{Stage: StageMalformedKey, Source: src.String(), Reason: reason}
	}

	return &Credentials{
		Type:        doc["type"].(string),
		ProjectID:   doc["project_id"].(string),
		PrivateKey:  key,
		ClientEmail: doc["client_email"].(string),
		TokenURI:    doc["token_uri"].(string),
		raw:         []byte(payload),
	}, nil
}

// checkPrivateKey returns a non-empty reason when the key is unusable.
func checkPrivateKey(key string) string {
	switch {
	case !strings.Contains(key, pemBegin):
		return "missing -----" + pemBegin + "----- marker"
	case !strings.Contains(key, pemEnd):
		return "missing -----" + pemEnd + "----- marker"
	case !strings.Contains(key, "\n"):
		if strings.Contains(key, `\n`) {
			return `contains escaped "\n" sequences instead of newlines (the key was escaped twice)`
		}
		return "contains no newlines"
	}
	return ""
}
